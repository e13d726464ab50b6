package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeRangeDuration(t *testing.T) {
	tr := TimeRange{QuestionID: "q1", Start: 5250, End: 35500}
	assert.Equal(t, int64(30250), tr.DurationMillis())
}

func TestChunkResultPayloadUnion(t *testing.T) {
	ok := ChunkResult{QuestionID: "q1", Response: &Response{QuestionID: "q1"}}
	assert.False(t, ok.Failed())
	_, isResponse := ok.Payload().(*Response)
	assert.True(t, isResponse)

	failed := ChunkResult{QuestionID: "q2", Reason: "ffmpeg exit 1"}
	assert.True(t, failed.Failed())
	failure, isFailure := failed.Payload().(ChunkFailure)
	require.True(t, isFailure)
	assert.Equal(t, "q2", failure.QuestionID)
	assert.Equal(t, "ffmpeg exit 1", failure.Error)
	assert.True(t, failure.Partial)
}

func TestJobResultPayload(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := &JobResult{
		InterviewID: "int-1",
		Responses: []ChunkResult{
			{QuestionID: "q1", Response: &Response{QuestionID: "q1"}},
			{QuestionID: "q2", Reason: "bad chunk"},
		},
		Errors:         []string{"Error processing question q2: bad chunk"},
		ProcessingTime: 17.25,
		ProcessedAt:    at,
	}

	p := r.Payload()

	assert.Equal(t, "int-1", p["interviewId"])
	assert.Equal(t, 17.25, p["processingTime"])
	assert.Equal(t, "2025-06-01T12:00:00Z", p["processedAt"])

	responses := p["responses"].([]any)
	require.Len(t, responses, 2)

	errs := p["errors"].([]string)
	assert.Len(t, errs, 1)
}

func TestJobResultPayloadEmptyErrors(t *testing.T) {
	r := &JobResult{InterviewID: "int-1", ProcessedAt: time.Now()}
	p := r.Payload()

	// errors must serialize as [] rather than null.
	errs, ok := p["errors"].([]string)
	require.True(t, ok)
	assert.NotNil(t, errs)
	assert.Empty(t, errs)

	responses, ok := p["responses"].([]any)
	require.True(t, ok)
	assert.Empty(t, responses)
}
