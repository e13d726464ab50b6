package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepRemovesOnlyStaleFiles(t *testing.T) {
	tempDir := t.TempDir()
	chunkDir := t.TempDir()

	stale := filepath.Join(tempDir, "orphan.mp4")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0644))
	old := time.Now().Add(-10 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	staleChunk := filepath.Join(chunkDir, "int-1_q1.wav")
	require.NoError(t, os.WriteFile(staleChunk, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(staleChunk, old, old))

	fresh := filepath.Join(tempDir, "active.mp4")
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0644))

	s := NewScheduler([]string{tempDir, chunkDir}, 30, 6)
	s.sweep()

	assert.NoFileExists(t, stale)
	assert.NoFileExists(t, staleChunk)
	assert.FileExists(t, fresh)
}

func TestSweepMissingDirectory(t *testing.T) {
	s := NewScheduler([]string{"/no/such/dir"}, 30, 6)
	s.sweep()
}

func TestEnsureDirs(t *testing.T) {
	base := t.TempDir()
	a := filepath.Join(base, "temp")
	b := filepath.Join(base, "chunks", "nested")

	require.NoError(t, EnsureDirs(a, b))
	assert.DirExists(t, a)
	assert.DirExists(t, b)
}
