package notify

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intervuave/interview-worker/internal/types"
)

func TestSanitizeReplacesNonFiniteFloats(t *testing.T) {
	in := map[string]any{
		"nan":    math.NaN(),
		"posInf": math.Inf(1),
		"negInf": math.Inf(-1),
		"ok":     1.25,
	}

	out := Sanitize(in).(map[string]any)

	assert.Equal(t, 0.0, out["nan"])
	assert.Equal(t, 0.0, out["posInf"])
	assert.Equal(t, 0.0, out["negInf"])
	assert.Equal(t, 1.25, out["ok"])
}

func TestSanitizeNestedStructures(t *testing.T) {
	in := map[string]any{
		"list": []any{math.NaN(), 2.0, map[string]any{"deep": math.Inf(1)}},
		"resp": &types.Response{
			QuestionID: "q1",
			EyeGaze:    math.NaN(),
			Movement:   0.4,
		},
	}

	out := Sanitize(in).(map[string]any)

	list := out["list"].([]any)
	assert.Equal(t, 0.0, list[0])
	assert.Equal(t, 2.0, list[1])
	assert.Equal(t, 0.0, list[2].(map[string]any)["deep"])

	resp := out["resp"].(map[string]any)
	assert.Equal(t, "q1", resp["questionId"])
	assert.Equal(t, 0.0, resp["eyeGaze"])
	assert.Equal(t, 0.4, resp["movement"])
}

func TestSanitizeUsesJSONTags(t *testing.T) {
	resp := types.ChunkFailure{QuestionID: "q7", Error: "boom", Partial: true}

	out := Sanitize(resp).(map[string]any)

	assert.Equal(t, "q7", out["questionId"])
	assert.Equal(t, "boom", out["error"])
	assert.Equal(t, true, out["partial"])
}

func TestSanitizeTimeValues(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	out := Sanitize(map[string]any{"at": ts}).(map[string]any)

	assert.Equal(t, "2025-03-14T09:26:53Z", out["at"])
}

func TestSanitizeNil(t *testing.T) {
	assert.Nil(t, Sanitize(nil))

	var resp *types.Response
	assert.Nil(t, Sanitize(resp))
}

func TestSanitizeIdempotent(t *testing.T) {
	in := map[string]any{
		"a": math.NaN(),
		"b": []any{math.Inf(-1), "x"},
		"c": map[string]any{"d": 3.5},
	}

	once := Sanitize(in)
	twice := Sanitize(once)

	assert.Equal(t, once, twice)
}

func TestSanitizedResultMarshals(t *testing.T) {
	result := &types.JobResult{
		InterviewID: "int-1",
		Responses: []types.ChunkResult{
			{QuestionID: "q1", Response: &types.Response{QuestionID: "q1", EyeGaze: math.NaN()}},
			{QuestionID: "q2", Reason: "ffmpeg exit 1"},
		},
		ProcessingTime: 12.5,
		ProcessedAt:    time.Now(),
	}

	// Raw payload contains NaN and would fail to marshal; the sanitized
	// tree must not.
	_, err := json.Marshal(result.Payload())
	require.Error(t, err)

	data, err := json.Marshal(Sanitize(result.Payload()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"interviewId":"int-1"`)
	assert.Contains(t, string(data), `"partial":true`)
}
