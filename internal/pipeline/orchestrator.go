package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/intervuave/interview-worker/internal/events"
	"github.com/intervuave/interview-worker/internal/logging"
	"github.com/intervuave/interview-worker/internal/media"
	"github.com/intervuave/interview-worker/internal/observability/metrics"
	"github.com/intervuave/interview-worker/internal/types"
)

// Job-level stages, published with an empty question id.
const (
	StageAcquiring  = "acquiring"
	StageExtracting = "extracting_audio"
	StageCompleted  = "completed"
)

// Acquirer resolves the job's video reference to a local mp4.
type Acquirer interface {
	Acquire(ctx context.Context, reference string, reg media.Registrar) (string, error)
}

// Notifier reports job lifecycle transitions to the callback endpoints.
type Notifier interface {
	JobStarted(ctx context.Context, job *types.InterviewJob)
	JobSucceeded(ctx context.Context, job *types.InterviewJob, result *types.JobResult)
	JobFailed(ctx context.Context, job *types.InterviewJob)
}

// Orchestrator runs one interview job end to end: acquire the video, extract
// the full audio track, process every question chunk, assemble the result,
// and notify. Acquisition and audio extraction failures are fatal to the
// job; chunk failures are not.
type Orchestrator struct {
	acquirer         Acquirer
	segmenter        Segmenter
	chunks           *ChunkPipeline
	notifier         Notifier
	hub              *events.Hub
	metrics          *metrics.Metrics
	chunkConcurrency int
	log              zerolog.Logger
}

// NewOrchestrator wires the job-level controller.
func NewOrchestrator(acquirer Acquirer, seg Segmenter, chunks *ChunkPipeline, notifier Notifier, hub *events.Hub, chunkConcurrency int) *Orchestrator {
	if chunkConcurrency <= 0 {
		chunkConcurrency = 1
	}
	return &Orchestrator{
		acquirer:         acquirer,
		segmenter:        seg,
		chunks:           chunks,
		notifier:         notifier,
		hub:              hub,
		metrics:          metrics.DefaultMetrics,
		chunkConcurrency: chunkConcurrency,
		log:              logging.WithComponent("orchestrator"),
	}
}

// Run processes one job and reports the outcome through the notifier. The
// returned result is nil exactly when the returned error is non-nil.
func (o *Orchestrator) Run(ctx context.Context, job *types.InterviewJob) (*types.JobResult, error) {
	log := o.log.With().Str("interview_id", job.ID).Logger()
	log.Info().Int("questions", len(job.Timestamps)).Msg("starting interview job")

	o.metrics.JobsActive.Inc()
	defer o.metrics.JobsActive.Dec()
	start := time.Now()

	o.notifier.JobStarted(ctx, job)

	result, err := o.process(ctx, job)
	if err != nil {
		log.Error().Err(err).Msg("interview job failed")
		o.metrics.JobsFailed.Inc()
		o.notifier.JobFailed(ctx, job)
		return nil, types.NewJobError(job.ID, err)
	}

	o.metrics.JobsProcessed.Inc()
	o.metrics.JobDuration.Observe(time.Since(start).Seconds())
	o.stage(job.ID, StageCompleted)
	log.Info().
		Float64("processing_time", result.ProcessingTime).
		Int("failed_chunks", len(result.Errors)).
		Msg("interview job processed")

	o.notifier.JobSucceeded(ctx, job, result)
	return result, nil
}

func (o *Orchestrator) process(ctx context.Context, job *types.InterviewJob) (*types.JobResult, error) {
	start := time.Now()

	reaper := NewReaper(job.ID)
	defer reaper.ReleaseAll()

	o.stage(job.ID, StageAcquiring)
	videoPath, err := o.acquirer.Acquire(ctx, job.VideoURL, reaper.JobScope())
	if err != nil {
		return nil, fmt.Errorf("acquire video: %w", err)
	}

	o.stage(job.ID, StageExtracting)
	audioPath, err := o.segmenter.ExtractAudio(ctx, videoPath, reaper.JobScope())
	if err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}

	// Chunks run with bounded parallelism and write into their own slot, so
	// the output order always matches the input timestamp order.
	results := make([]types.ChunkResult, len(job.Timestamps))
	g := &errgroup.Group{}
	g.SetLimit(o.chunkConcurrency)
	for i, tr := range job.Timestamps {
		i, tr := i, tr
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = types.ChunkResult{QuestionID: tr.QuestionID, Reason: "job cancelled"}
				return nil
			}
			results[i] = o.chunks.Process(ctx, job, videoPath, audioPath, tr, reaper)
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("job cancelled: %w", err)
	}

	var errs []string
	for _, cr := range results {
		if cr.Failed() {
			o.metrics.ChunksFailed.Inc()
			o.log.Error().
				Str("interview_id", job.ID).
				Str("question_id", cr.QuestionID).
				Msg(fmt.Sprintf("Error processing question %s: %s", cr.QuestionID, cr.Reason))
			errs = append(errs, fmt.Sprintf("Error processing question %s: %s", cr.QuestionID, cr.Reason))
			continue
		}
		o.metrics.ChunksProcessed.Inc()
	}

	return &types.JobResult{
		InterviewID:    job.ID,
		Responses:      results,
		Errors:         errs,
		ProcessingTime: math.Round(time.Since(start).Seconds()*100) / 100,
		ProcessedAt:    time.Now().UTC(),
	}, nil
}

func (o *Orchestrator) stage(interviewID, stage string) {
	if o.hub != nil {
		o.hub.Publish(events.Event{InterviewID: interviewID, Stage: stage})
	}
}
