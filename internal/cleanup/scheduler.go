// Package cleanup sweeps orphaned media artifacts out of the working
// directories. The per-job reaper removes everything on normal exit paths;
// this scheduler is the backstop for files left behind by crashes.
package cleanup

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/intervuave/interview-worker/internal/logging"
)

// Scheduler periodically removes stale files from the watched directories.
type Scheduler struct {
	dirs            []string
	intervalMinutes int
	maxAgeHours     int
	stopChan        chan struct{}
	log             zerolog.Logger
}

// NewScheduler creates a cleanup scheduler over the given directories.
func NewScheduler(dirs []string, intervalMinutes, maxAgeHours int) *Scheduler {
	return &Scheduler{
		dirs:            dirs,
		intervalMinutes: intervalMinutes,
		maxAgeHours:     maxAgeHours,
		stopChan:        make(chan struct{}),
		log:             logging.WithComponent("cleanup"),
	}
}

// Start runs an initial sweep, then sweeps on the configured interval.
func (s *Scheduler) Start() {
	s.log.Info().
		Int("interval_minutes", s.intervalMinutes).
		Int("max_age_hours", s.maxAgeHours).
		Msg("cleanup scheduler started")
	s.sweep()

	ticker := time.NewTicker(time.Duration(s.intervalMinutes) * time.Minute)

	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the cleanup scheduler.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.log.Info().Msg("cleanup scheduler stopped")
}

// sweep removes files older than maxAgeHours from every watched directory.
func (s *Scheduler) sweep() {
	now := time.Now()
	maxAge := time.Duration(s.maxAgeHours) * time.Hour

	var deletedCount int
	var deletedSize int64

	for _, dir := range s.dirs {
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil // skip files we can't access
			}
			if info.IsDir() {
				return nil
			}

			age := now.Sub(info.ModTime())
			if age > maxAge {
				size := info.Size()
				if err := os.Remove(path); err != nil {
					s.log.Warn().Err(err).Str("path", path).Msg("failed to delete stale file")
					return nil
				}
				deletedCount++
				deletedSize += size
				s.log.Debug().
					Str("file", filepath.Base(path)).
					Dur("age", age.Round(time.Hour)).
					Msg("deleted stale file")
			}
			return nil
		})
		if err != nil {
			s.log.Warn().Err(err).Str("dir", dir).Msg("sweep error")
		}
	}

	if deletedCount > 0 {
		s.log.Info().
			Int("deleted", deletedCount).
			Float64("freed_mb", float64(deletedSize)/(1024*1024)).
			Msg("sweep complete")
	}
}

// EnsureDirs creates the watched directories if they don't exist.
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
