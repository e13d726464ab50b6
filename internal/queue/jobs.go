package queue

import (
	"sync"
	"time"

	"github.com/intervuave/interview-worker/internal/types"
)

// Job wraps one interview job with its queue-side state. Status here is the
// local view used by the inspection endpoints; the callback protocol carries
// its own status transitions.
type Job struct {
	Interview *types.InterviewJob

	mu     sync.Mutex
	status string
	errMsg string
}

// NewJob creates a queued job for an accepted interview request.
func NewJob(interview *types.InterviewJob) *Job {
	interview.CreatedAt = time.Now()
	return &Job{
		Interview: interview,
		status:    types.StatusQueued,
	}
}

// Status returns the job's current local status.
func (j *Job) Status() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Error returns the job-level error message, if any.
func (j *Job) Error() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.errMsg
}

func (j *Job) setStatus(status string) {
	j.mu.Lock()
	j.status = status
	j.mu.Unlock()
}

func (j *Job) setFailed(msg string) {
	j.mu.Lock()
	j.status = types.StatusFailedProcessing
	j.errMsg = msg
	j.mu.Unlock()
}
