package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/intervuave/interview-worker/internal/queue"
	"github.com/intervuave/interview-worker/internal/storage"
	"github.com/intervuave/interview-worker/internal/types"
)

// ProcessRequest is the intake body for one interview job.
type ProcessRequest struct {
	InterviewID             string            `json:"interviewId"`
	VideoURL                string            `json:"videoUrl"`
	Timestamps              []types.TimeRange `json:"timestamps"`
	Questions               map[string]string `json:"questions"`
	CallbackURL             string            `json:"callbackUrl"`
	StatusCallbackURL       string            `json:"statusCallbackUrl"`
	TaskStatusCallbackURL   string            `json:"taskStatusCallbackUrl"`
	WorkerStatusCallbackURL string            `json:"workerStatusCallbackUrl"`
}

// InterviewHandler accepts interview processing requests.
type InterviewHandler struct {
	workerPool *queue.WorkerPool
	store      *storage.JobStore
}

// NewInterviewHandler creates the intake handler. The store may be nil.
func NewInterviewHandler(workerPool *queue.WorkerPool, store *storage.JobStore) *InterviewHandler {
	return &InterviewHandler{
		workerPool: workerPool,
		store:      store,
	}
}

// Handle validates the request and enqueues the job. Processing is
// asynchronous; the response only acknowledges acceptance.
func (h *InterviewHandler) Handle(c *fiber.Ctx) error {
	var req ProcessRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_BAD_BODY",
		})
	}

	if req.InterviewID == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "interviewId is required",
			"code":  "ERR_MISSING_INTERVIEW_ID",
		})
	}
	if req.VideoURL == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "videoUrl is required",
			"code":  "ERR_MISSING_VIDEO_URL",
		})
	}
	if len(req.Timestamps) == 0 {
		return c.Status(400).JSON(fiber.Map{
			"error": "timestamps must not be empty",
			"code":  "ERR_NO_TIMESTAMPS",
		})
	}
	for _, tr := range req.Timestamps {
		if tr.QuestionID == "" {
			return c.Status(400).JSON(fiber.Map{
				"error": "every timestamp needs a questionId",
				"code":  "ERR_BAD_TIMESTAMP",
			})
		}
		if tr.End <= tr.Start {
			return c.Status(400).JSON(fiber.Map{
				"error": "timestamp end must be after start",
				"code":  "ERR_BAD_TIMESTAMP",
			})
		}
	}

	job := queue.NewJob(&types.InterviewJob{
		ID:                      req.InterviewID,
		VideoURL:                req.VideoURL,
		Timestamps:              req.Timestamps,
		Questions:               req.Questions,
		CallbackURL:             req.CallbackURL,
		StatusCallbackURL:       req.StatusCallbackURL,
		TaskStatusCallbackURL:   req.TaskStatusCallbackURL,
		WorkerStatusCallbackURL: req.WorkerStatusCallbackURL,
	})

	if err := h.workerPool.Enqueue(job); err != nil {
		return c.Status(503).JSON(fiber.Map{
			"error": "Server busy, try again later",
			"code":  "ERR_QUEUE_FULL",
		})
	}

	if h.store != nil {
		// Best effort; the queue is the source of truth for processing.
		_ = h.store.SaveJob(req.InterviewID, req.VideoURL, types.StatusQueued, len(req.Timestamps))
	}

	return c.Status(202).JSON(fiber.Map{
		"interviewId": req.InterviewID,
		"status":      "submitted",
		"submittedAt": time.Now().UTC().Format(time.RFC3339),
	})
}
