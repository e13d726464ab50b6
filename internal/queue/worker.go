package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"

	"github.com/intervuave/interview-worker/internal/logging"
	"github.com/intervuave/interview-worker/internal/storage"
	"github.com/intervuave/interview-worker/internal/types"
)

// ErrQueueFull is returned when the job buffer cannot accept another job.
var ErrQueueFull = errors.New("job queue full")

// Processor runs one interview job to completion.
type Processor interface {
	Run(ctx context.Context, job *types.InterviewJob) (*types.JobResult, error)
}

type jobHandle struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// WorkerPool manages a pool of workers processing interview jobs. Each job
// gets its own cancellable context at enqueue time, so a queued or running
// job can be abandoned through Cancel.
type WorkerPool struct {
	jobQueue    chan *Job
	workerCount int
	processor   Processor
	store       *storage.JobStore
	log         zerolog.Logger

	mu      sync.Mutex
	handles map[string]jobHandle

	baseCtx  context.Context
	baseStop context.CancelFunc
	wg       sync.WaitGroup
}

// NewWorkerPool creates a worker pool. The store may be nil; metadata writes
// are then skipped.
func NewWorkerPool(workerCount int, processor Processor, store *storage.JobStore) *WorkerPool {
	ctx, stop := context.WithCancel(context.Background())
	return &WorkerPool{
		jobQueue:    make(chan *Job, 100),
		workerCount: workerCount,
		processor:   processor,
		store:       store,
		log:         logging.WithComponent("worker_pool"),
		handles:     make(map[string]jobHandle),
		baseCtx:     ctx,
		baseStop:    stop,
	}
}

// Start launches all workers.
func (wp *WorkerPool) Start() {
	wp.log.Info().Int("workers", wp.workerCount).Msg("starting worker pool")
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	wp.baseStop()
	wp.log.Info().Msg("worker pool stopped")
}

// Enqueue adds a job to the queue without blocking the caller.
func (wp *WorkerPool) Enqueue(job *Job) error {
	ctx, cancel := context.WithCancel(wp.baseCtx)
	wp.mu.Lock()
	wp.handles[job.Interview.ID] = jobHandle{ctx: ctx, cancel: cancel}
	wp.mu.Unlock()

	select {
	case wp.jobQueue <- job:
	default:
		wp.dropHandle(job.Interview.ID)
		return ErrQueueFull
	}

	wp.log.Info().
		Str("interview_id", job.Interview.ID).
		Int("questions", len(job.Interview.Timestamps)).
		Msg("job enqueued")
	return nil
}

// Cancel aborts a queued or running job. Returns false when the job is not
// known to the pool anymore.
func (wp *WorkerPool) Cancel(interviewID string) bool {
	wp.mu.Lock()
	handle, ok := wp.handles[interviewID]
	wp.mu.Unlock()
	if !ok {
		return false
	}
	handle.cancel()
	return true
}

// worker processes jobs from the queue.
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	log := wp.log.With().Int("worker", id).Logger()
	log.Info().Msg("worker started")

	for job := range wp.jobQueue {
		// Panic recovery: a crashing job must not take the worker down.
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Str("interview_id", job.Interview.ID).
						Str("stack", string(debug.Stack())).
						Msgf("panic processing job: %v", r)
					job.setFailed(fmt.Sprintf("worker panic: %v", r))
					wp.recordCompletion(job, 0, 0)
				}
			}()

			wp.processJob(log, job)
		}()
		wp.dropHandle(job.Interview.ID)
	}
}

func (wp *WorkerPool) processJob(log zerolog.Logger, job *Job) {
	ctx := wp.jobContext(job.Interview.ID)
	if ctx.Err() != nil {
		log.Info().Str("interview_id", job.Interview.ID).Msg("job cancelled before start")
		job.setFailed("job cancelled")
		wp.recordCompletion(job, 0, 0)
		return
	}

	job.setStatus(types.StatusProcessing)
	if wp.store != nil {
		if err := wp.store.UpdateStatus(job.Interview.ID, types.StatusProcessing); err != nil {
			log.Warn().Err(err).Msg("failed to update job status")
		}
	}

	result, err := wp.processor.Run(ctx, job.Interview)
	if err != nil {
		job.setFailed(err.Error())
		wp.recordCompletion(job, 0, 0)
		return
	}

	job.setStatus(types.StatusProcessed)
	wp.recordCompletion(job, len(result.Errors), result.ProcessingTime)
	log.Info().
		Str("interview_id", job.Interview.ID).
		Int("failed_chunks", len(result.Errors)).
		Msg("job completed")
}

func (wp *WorkerPool) jobContext(interviewID string) context.Context {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if handle, ok := wp.handles[interviewID]; ok {
		return handle.ctx
	}
	return wp.baseCtx
}

func (wp *WorkerPool) recordCompletion(job *Job, failedChunks int, processingTime float64) {
	if wp.store == nil {
		return
	}
	if err := wp.store.MarkCompleted(job.Interview.ID, job.Status(), failedChunks, processingTime); err != nil {
		wp.log.Warn().Err(err).Str("interview_id", job.Interview.ID).Msg("failed to record job completion")
	}
}

func (wp *WorkerPool) dropHandle(interviewID string) {
	wp.mu.Lock()
	if handle, ok := wp.handles[interviewID]; ok {
		handle.cancel()
		delete(wp.handles, interviewID)
	}
	wp.mu.Unlock()
}
