package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intervuave/interview-worker/internal/queue"
	"github.com/intervuave/interview-worker/internal/storage"
	"github.com/intervuave/interview-worker/internal/types"
)

type idleProcessor struct{}

func (idleProcessor) Run(ctx context.Context, job *types.InterviewJob) (*types.JobResult, error) {
	return &types.JobResult{InterviewID: job.ID, ProcessedAt: time.Now()}, nil
}

func newTestApp(t *testing.T) (*fiber.App, *storage.JobStore, *queue.WorkerPool) {
	t.Helper()

	store, err := storage.NewJobStore(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	// Workers are never started: submitted jobs stay queued, which keeps
	// these tests deterministic.
	pool := queue.NewWorkerPool(1, idleProcessor{}, store)

	app := fiber.New()
	interviewHandler := NewInterviewHandler(pool, store)
	jobsHandler := NewJobsHandler(pool, store)
	app.Post("/process-interview", interviewHandler.Handle)
	app.Get("/jobs", jobsHandler.List)
	app.Get("/jobs/:id", jobsHandler.Get)
	app.Delete("/jobs/:id", jobsHandler.Cancel)

	return app, store, pool
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func validRequest() ProcessRequest {
	return ProcessRequest{
		InterviewID: "int-1",
		VideoURL:    "https://example.com/interview.mp4",
		Timestamps: []types.TimeRange{
			{QuestionID: "q1", Start: 0, End: 30000},
			{QuestionID: "q2", Start: 30000, End: 65000},
		},
		Questions:   map[string]string{"q1": "Tell me about yourself"},
		CallbackURL: "https://api.example.com/result",
	}
}

func TestProcessInterviewAccepted(t *testing.T) {
	app, store, _ := newTestApp(t)

	resp := postJSON(t, app, "/process-interview", validRequest())
	assert.Equal(t, 202, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "int-1", body["interviewId"])
	assert.Equal(t, "submitted", body["status"])
	assert.NotEmpty(t, body["submittedAt"])

	rec, err := store.GetJob("int-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusQueued, rec.Status)
	assert.Equal(t, 2, rec.ChunkCount)
}

func TestProcessInterviewValidation(t *testing.T) {
	app, _, _ := newTestApp(t)

	cases := []struct {
		name   string
		mutate func(*ProcessRequest)
	}{
		{"missing interview id", func(r *ProcessRequest) { r.InterviewID = "" }},
		{"missing video url", func(r *ProcessRequest) { r.VideoURL = "" }},
		{"no timestamps", func(r *ProcessRequest) { r.Timestamps = nil }},
		{"timestamp without question id", func(r *ProcessRequest) { r.Timestamps[0].QuestionID = "" }},
		{"end before start", func(r *ProcessRequest) {
			r.Timestamps[0].Start = 5000
			r.Timestamps[0].End = 4000
		}},
		{"zero-length range", func(r *ProcessRequest) {
			r.Timestamps[0].Start = 5000
			r.Timestamps[0].End = 5000
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			resp := postJSON(t, app, "/process-interview", req)
			assert.Equal(t, 400, resp.StatusCode)
		})
	}
}

func TestProcessInterviewBadBody(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/process-interview", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestJobsListAndGet(t *testing.T) {
	app, store, _ := newTestApp(t)

	require.NoError(t, store.SaveJob("int-7", "u", types.StatusQueued, 4))

	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var listBody struct {
		Jobs []storage.JobRecord `json:"jobs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listBody))
	require.Len(t, listBody.Jobs, 1)
	assert.Equal(t, "int-7", listBody.Jobs[0].InterviewID)

	req = httptest.NewRequest(http.MethodGet, "/jobs/int-7", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/jobs/unknown", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestCancelJob(t *testing.T) {
	app, _, _ := newTestApp(t)

	// Queued but never picked up, so it is still cancellable.
	resp := postJSON(t, app, "/process-interview", validRequest())
	require.Equal(t, 202, resp.StatusCode)

	req := httptest.NewRequest(http.MethodDelete, "/jobs/int-1", nil)
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "cancelling", body["status"])

	req = httptest.NewRequest(http.MethodDelete, "/jobs/never-seen", nil)
	res, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 404, res.StatusCode)
}
