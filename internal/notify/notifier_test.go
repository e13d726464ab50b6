package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intervuave/interview-worker/internal/types"
)

type recordedCall struct {
	Method string
	Path   string
	Body   map[string]any
}

type callRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (r *callRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		data, _ := io.ReadAll(req.Body)
		var body map[string]any
		_ = json.Unmarshal(data, &body)

		r.mu.Lock()
		r.calls = append(r.calls, recordedCall{Method: req.Method, Path: req.URL.Path, Body: body})
		r.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}
}

func (r *callRecorder) recorded() []recordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedCall(nil), r.calls...)
}

func testJob(base string) *types.InterviewJob {
	return &types.InterviewJob{
		ID:                      "int-42",
		VideoURL:                "https://example.com/video.mp4",
		CallbackURL:             base + "/result",
		StatusCallbackURL:       base + "/status",
		TaskStatusCallbackURL:   base + "/task-status",
		WorkerStatusCallbackURL: base + "/worker-status",
	}
}

func TestJobStartedOrdering(t *testing.T) {
	rec := &callRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	n := NewNotifier(5*time.Second, 5*time.Second)
	n.JobStarted(context.Background(), testJob(srv.URL))

	calls := rec.recorded()
	require.Len(t, calls, 3)

	assert.Equal(t, http.MethodPatch, calls[0].Method)
	assert.Equal(t, "/status", calls[0].Path)
	assert.Equal(t, "PROCESSING", calls[0].Body["status"])

	assert.Equal(t, "/task-status", calls[1].Path)
	assert.Equal(t, "int-42", calls[1].Body["interview_id"])
	assert.Equal(t, "PROCESSING", calls[1].Body["status"])

	assert.Equal(t, "/worker-status", calls[2].Path)
	assert.Equal(t, "BUSY", calls[2].Body["status"])
}

func TestJobSucceededOrdering(t *testing.T) {
	rec := &callRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	result := &types.JobResult{
		InterviewID: "int-42",
		Responses: []types.ChunkResult{
			{QuestionID: "q1", Response: &types.Response{QuestionID: "q1"}},
		},
		ProcessingTime: 3.2,
		ProcessedAt:    time.Now(),
	}

	n := NewNotifier(5*time.Second, 5*time.Second)
	n.JobSucceeded(context.Background(), testJob(srv.URL), result)

	calls := rec.recorded()
	require.Len(t, calls, 3)

	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "/result", calls[0].Path)
	assert.Equal(t, "int-42", calls[0].Body["interviewId"])
	responses, ok := calls[0].Body["responses"].([]any)
	require.True(t, ok)
	assert.Len(t, responses, 1)

	assert.Equal(t, "/task-status", calls[1].Path)
	assert.Equal(t, "PROCESSED", calls[1].Body["status"])

	assert.Equal(t, "/worker-status", calls[2].Path)
	assert.Equal(t, "AVAILABLE", calls[2].Body["status"])
}

func TestJobFailedSkipsResultCallback(t *testing.T) {
	rec := &callRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	n := NewNotifier(5*time.Second, 5*time.Second)
	n.JobFailed(context.Background(), testJob(srv.URL))

	calls := rec.recorded()
	require.Len(t, calls, 2)

	assert.Equal(t, "/task-status", calls[0].Path)
	assert.Equal(t, "FAILED_PROCESSING", calls[0].Body["status"])

	assert.Equal(t, "/worker-status", calls[1].Path)
	assert.Equal(t, "AVAILABLE", calls[1].Body["status"])
}

func TestEmptyCallbackURLsSkipped(t *testing.T) {
	n := NewNotifier(time.Second, time.Second)

	// No server, no URLs: must not panic or block.
	n.JobStarted(context.Background(), &types.InterviewJob{ID: "int-1"})
	n.JobFailed(context.Background(), &types.InterviewJob{ID: "int-1"})
}

func TestDeliveryFailureIsAbsorbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewNotifier(time.Second, time.Second)
	n.JobStarted(context.Background(), testJob(srv.URL))
}

func TestDeliverySurvivesCancelledContext(t *testing.T) {
	rec := &callRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := NewNotifier(5*time.Second, 5*time.Second)
	n.JobFailed(ctx, testJob(srv.URL))

	require.Len(t, rec.recorded(), 2)
}
