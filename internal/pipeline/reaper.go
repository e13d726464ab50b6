package pipeline

import (
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/intervuave/interview-worker/internal/logging"
	"github.com/intervuave/interview-worker/internal/media"
)

// Reaper tracks every temp artifact created during one job run and
// guarantees each is removed exactly once, on every exit path. Artifacts are
// either job-scoped (removed at job end) or chunk-scoped (removed when their
// chunk finishes, or at job end, whichever comes first).
type Reaper struct {
	mu       sync.Mutex
	jobPaths []string
	chunks   map[string][]string
	released map[string]bool
	log      zerolog.Logger
}

// NewReaper creates an empty registry for one job run.
func NewReaper(interviewID string) *Reaper {
	return &Reaper{
		chunks:   make(map[string][]string),
		released: make(map[string]bool),
		log:      logging.WithJob(interviewID).With().Str("component", "reaper").Logger(),
	}
}

// JobScope returns a registrar for artifacts that live until job end.
func (r *Reaper) JobScope() media.Registrar {
	return media.RegistrarFunc(func(path string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.jobPaths = append(r.jobPaths, path)
	})
}

// ChunkScope returns a registrar for artifacts tied to one question's chunk.
func (r *Reaper) ChunkScope(questionID string) media.Registrar {
	return media.RegistrarFunc(func(path string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.chunks[questionID] = append(r.chunks[questionID], path)
	})
}

// ReleaseChunk removes the artifacts of one chunk. Safe to call for chunks
// that never registered anything.
func (r *Reaper) ReleaseChunk(questionID string) {
	r.mu.Lock()
	paths := r.chunks[questionID]
	delete(r.chunks, questionID)
	r.mu.Unlock()

	for _, p := range paths {
		r.remove(p)
	}
}

// ReleaseAll removes every artifact still registered: leftover chunk-scoped
// files first, then job-scoped ones. Called from the orchestrator's deferred
// block, so it runs on success, failure, and cancellation alike.
func (r *Reaper) ReleaseAll() {
	r.mu.Lock()
	var paths []string
	for qid, chunkPaths := range r.chunks {
		paths = append(paths, chunkPaths...)
		delete(r.chunks, qid)
	}
	paths = append(paths, r.jobPaths...)
	r.jobPaths = nil
	r.mu.Unlock()

	for _, p := range paths {
		r.remove(p)
	}
}

// remove deletes one path at most once. A file that is already gone is not
// an error; removal failures are logged, never raised.
func (r *Reaper) remove(path string) {
	r.mu.Lock()
	if r.released[path] {
		r.mu.Unlock()
		return
	}
	r.released[path] = true
	r.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		r.log.Warn().Err(err).Str("path", path).Msg("failed to remove temp artifact")
		return
	}
	r.log.Debug().Str("path", path).Msg("removed temp artifact")
}
