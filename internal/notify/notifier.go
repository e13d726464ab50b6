// Package notify drives the status-notification protocol toward the
// external callback endpoints. Every delivery failure here is logged and
// counted, never escalated: notifications do not change a job's outcome and
// are not retried.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/intervuave/interview-worker/internal/logging"
	"github.com/intervuave/interview-worker/internal/observability/metrics"
	"github.com/intervuave/interview-worker/internal/types"
)

// Callback kinds, used for logging and metrics labels.
const (
	kindStatus       = "status"
	kindTaskStatus   = "task_status"
	kindWorkerStatus = "worker_status"
	kindResult       = "result"
)

// Notifier delivers lifecycle transitions and final results to the job's
// callback endpoints.
type Notifier struct {
	statusClient *http.Client
	resultClient *http.Client
	metrics      *metrics.Metrics
	log          zerolog.Logger
}

// NewNotifier creates a notifier. Status callbacks get the short timeout,
// the result callback the long one (result payloads carry full timelines).
func NewNotifier(statusTimeout, resultTimeout time.Duration) *Notifier {
	return &Notifier{
		statusClient: &http.Client{Timeout: statusTimeout},
		resultClient: &http.Client{Timeout: resultTimeout},
		metrics:      metrics.DefaultMetrics,
		log:          logging.WithComponent("notifier"),
	}
}

// JobStarted announces the start of processing. Ordering is an observable
// contract: job status, then task status, then worker status.
func (n *Notifier) JobStarted(ctx context.Context, job *types.InterviewJob) {
	n.patch(ctx, job.StatusCallbackURL, kindStatus, map[string]any{
		"status": types.StatusProcessing,
	})
	n.patch(ctx, job.TaskStatusCallbackURL, kindTaskStatus, map[string]any{
		"interview_id": job.ID,
		"status":       types.StatusProcessing,
	})
	n.patch(ctx, job.WorkerStatusCallbackURL, kindWorkerStatus, map[string]any{
		"interview_id": job.ID,
		"status":       types.WorkerBusy,
	})
}

// JobSucceeded delivers the result payload, then marks the task processed
// and the worker available.
func (n *Notifier) JobSucceeded(ctx context.Context, job *types.InterviewJob, result *types.JobResult) {
	n.post(ctx, job.CallbackURL, kindResult, result.Payload())
	n.patch(ctx, job.TaskStatusCallbackURL, kindTaskStatus, map[string]any{
		"interview_id": job.ID,
		"status":       types.StatusProcessed,
	})
	n.patch(ctx, job.WorkerStatusCallbackURL, kindWorkerStatus, map[string]any{
		"interview_id": job.ID,
		"status":       types.WorkerAvailable,
	})
}

// JobFailed marks the task failed and the worker available. The result
// callback is deliberately skipped.
func (n *Notifier) JobFailed(ctx context.Context, job *types.InterviewJob) {
	n.patch(ctx, job.TaskStatusCallbackURL, kindTaskStatus, map[string]any{
		"interview_id": job.ID,
		"status":       types.StatusFailedProcessing,
	})
	n.patch(ctx, job.WorkerStatusCallbackURL, kindWorkerStatus, map[string]any{
		"interview_id": job.ID,
		"status":       types.WorkerAvailable,
	})
}

func (n *Notifier) patch(ctx context.Context, url, kind string, body any) {
	n.send(ctx, n.statusClient, http.MethodPatch, url, kind, body)
}

func (n *Notifier) post(ctx context.Context, url, kind string, body any) {
	n.send(ctx, n.resultClient, http.MethodPost, url, kind, body)
}

// send performs one callback delivery. Endpoints are optional; an empty URL
// is skipped. Completion notifications must go out even when the job's own
// context was cancelled, so delivery uses a detached context bounded only by
// the client timeout.
func (n *Notifier) send(ctx context.Context, client *http.Client, method, url, kind string, body any) {
	if url == "" {
		return
	}

	payload, err := json.Marshal(Sanitize(body))
	if err != nil {
		n.fail(kind, url, err)
		return
	}

	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), method, url, bytes.NewReader(payload))
	if err != nil {
		n.fail(kind, url, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		n.fail(kind, url, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		n.fail(kind, url, fmt.Errorf("status %s: %s", resp.Status, string(snippet)))
		return
	}

	n.log.Info().Str("kind", kind).Str("url", url).Msg("callback delivered")
}

func (n *Notifier) fail(kind, url string, err error) {
	n.metrics.NotificationFailures.WithLabelValues(kind).Inc()
	n.log.Error().Err(err).Str("kind", kind).Str("url", url).Msg("callback delivery failed")
}
