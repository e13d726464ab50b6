package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intervuave/interview-worker/internal/types"
)

type fakeProcessor struct {
	mu      sync.Mutex
	runs    []string
	result  *types.JobResult
	err     error
	block   chan struct{}
	started chan string
}

func (f *fakeProcessor) Run(ctx context.Context, job *types.InterviewJob) (*types.JobResult, error) {
	f.mu.Lock()
	f.runs = append(f.runs, job.ID)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- job.ID
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &types.JobResult{InterviewID: job.ID, ProcessedAt: time.Now()}, nil
}

func (f *fakeProcessor) ran() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.runs...)
}

func interview(id string) *types.InterviewJob {
	return &types.InterviewJob{
		ID:       id,
		VideoURL: "https://example.com/v.mp4",
		Timestamps: []types.TimeRange{
			{QuestionID: "q1", Start: 0, End: 1000},
		},
	}
}

func TestWorkerPoolProcessesJob(t *testing.T) {
	proc := &fakeProcessor{}
	pool := NewWorkerPool(1, proc, nil)
	pool.Start()

	job := NewJob(interview("int-1"))
	require.NoError(t, pool.Enqueue(job))

	pool.Stop()

	assert.Equal(t, []string{"int-1"}, proc.ran())
	assert.Equal(t, types.StatusProcessed, job.Status())
	assert.Empty(t, job.Error())
}

func TestWorkerPoolJobFailure(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("acquire video: download failed")}
	pool := NewWorkerPool(1, proc, nil)
	pool.Start()

	job := NewJob(interview("int-2"))
	require.NoError(t, pool.Enqueue(job))

	pool.Stop()

	assert.Equal(t, types.StatusFailedProcessing, job.Status())
	assert.Contains(t, job.Error(), "download failed")
}

func TestWorkerPoolCancelRunningJob(t *testing.T) {
	proc := &fakeProcessor{
		block:   make(chan struct{}),
		started: make(chan string, 1),
	}
	pool := NewWorkerPool(1, proc, nil)
	pool.Start()

	job := NewJob(interview("int-3"))
	require.NoError(t, pool.Enqueue(job))

	<-proc.started
	assert.True(t, pool.Cancel("int-3"))

	pool.Stop()

	assert.Equal(t, types.StatusFailedProcessing, job.Status())
}

func TestWorkerPoolCancelUnknownJob(t *testing.T) {
	pool := NewWorkerPool(1, &fakeProcessor{}, nil)
	assert.False(t, pool.Cancel("never-submitted"))
}

func TestWorkerPoolSurvivesPanic(t *testing.T) {
	panicking := &panickingProcessor{started: make(chan string, 2)}
	pool := NewWorkerPool(1, panicking, nil)
	pool.Start()

	bad := NewJob(interview("int-bad"))
	require.NoError(t, pool.Enqueue(bad))

	// Wait until the worker has actually picked up the bad job before
	// calming the processor down.
	assert.Equal(t, "int-bad", <-panicking.started)
	panicking.calm.Store(true)

	// The worker must still be alive to process the next job.
	good := NewJob(interview("int-good"))
	require.NoError(t, pool.Enqueue(good))
	assert.Equal(t, "int-good", <-panicking.started)

	pool.Stop()

	assert.Equal(t, types.StatusFailedProcessing, bad.Status())
	assert.Contains(t, bad.Error(), "panic")
	assert.Equal(t, types.StatusProcessed, good.Status())
}

type panickingProcessor struct {
	calm    atomic.Bool
	started chan string
}

func (p *panickingProcessor) Run(ctx context.Context, job *types.InterviewJob) (*types.JobResult, error) {
	p.started <- job.ID
	if !p.calm.Load() {
		panic("boom")
	}
	return &types.JobResult{InterviewID: job.ID, ProcessedAt: time.Now()}, nil
}
