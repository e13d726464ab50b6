package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/intervuave/interview-worker/internal/queue"
	"github.com/intervuave/interview-worker/internal/storage"
)

// JobsHandler serves the job inspection and cancellation endpoints.
type JobsHandler struct {
	workerPool *queue.WorkerPool
	store      *storage.JobStore
}

// NewJobsHandler creates the jobs handler.
func NewJobsHandler(workerPool *queue.WorkerPool, store *storage.JobStore) *JobsHandler {
	return &JobsHandler{
		workerPool: workerPool,
		store:      store,
	}
}

// List returns the most recent jobs.
func (h *JobsHandler) List(c *fiber.Ctx) error {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	records, err := h.store.ListJobs(limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if records == nil {
		records = []*storage.JobRecord{}
	}
	return c.JSON(fiber.Map{"jobs": records})
}

// Get returns one job by interview id.
func (h *JobsHandler) Get(c *fiber.Ctx) error {
	record, err := h.store.GetJob(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Job not found"})
	}
	return c.JSON(record)
}

// Cancel aborts a queued or running job.
func (h *JobsHandler) Cancel(c *fiber.Ctx) error {
	interviewID := c.Params("id")
	if !h.workerPool.Cancel(interviewID) {
		return c.Status(404).JSON(fiber.Map{
			"error": "No active job with that id",
			"code":  "ERR_NOT_ACTIVE",
		})
	}
	return c.JSON(fiber.Map{
		"interviewId": interviewID,
		"status":      "cancelling",
	})
}
