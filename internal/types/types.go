package types

import (
	"fmt"
	"time"
)

// Task status constants, as reported to the task-status callback
const (
	StatusQueued           = "QUEUED"
	StatusProcessing       = "PROCESSING"
	StatusProcessed        = "PROCESSED"
	StatusFailedProcessing = "FAILED_PROCESSING"
)

// Worker status constants, as reported to the worker-status callback
const (
	WorkerBusy      = "BUSY"
	WorkerAvailable = "AVAILABLE"
)

// ProcessingVersion tags every assembled response so downstream consumers
// can tell which pipeline revision produced it.
const ProcessingVersion = "v1.1"

// TimeRange is one question's interval within the source video, in milliseconds.
type TimeRange struct {
	QuestionID string `json:"questionId"`
	Start      int64  `json:"start"`
	End        int64  `json:"end"`
}

// DurationMillis returns end-start. This value is carried into the response
// verbatim, never recomputed from the sliced artifact.
func (t TimeRange) DurationMillis() int64 {
	return t.End - t.Start
}

// InterviewJob is one interview-processing request. Immutable once created;
// owned by the orchestrator for the job's lifetime.
type InterviewJob struct {
	ID                      string
	VideoURL                string
	Timestamps              []TimeRange
	Questions               map[string]string
	CallbackURL             string
	StatusCallbackURL       string
	TaskStatusCallbackURL   string
	WorkerStatusCallbackURL string
	CreatedAt               time.Time
}

// WordTiming is one transcribed word with start/end offsets in seconds.
type WordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Disfluency is one detected filler word occurrence.
type Disfluency struct {
	Word      string  `json:"word"`
	Timestamp float64 `json:"timestamp"`
}

// AudioAnalysis is the transcript adapter's output for one chunk.
type AudioAnalysis struct {
	Text            string         `json:"text"`
	Confidence      float64        `json:"confidence"`
	WordsPerMinute  float64        `json:"words_per_minute"`
	SpeechRate      float64        `json:"speech_rate"`
	PauseCount      int            `json:"pause_count"`
	PauseLocations  []float64      `json:"pauseLocations"`
	VolumeVariation float64        `json:"volume_variation"`
	FillerWords     map[string]int `json:"filler_words"`
	Disfluencies    []Disfluency   `json:"disfluencies"`
	WordTimings     []WordTiming   `json:"word_timings"`
}

// EmotionSample is one point of the per-second emotion timeline.
type EmotionSample struct {
	Timestamp float64 `json:"timestamp"`
	Emotion   string  `json:"emotion"`
}

// EmotionAnalysis is the emotion adapter's output for one chunk.
// TopEmotions maps label to an averaged score; the values sum to roughly 100.
// An empty map is a valid result (no face detected in any sampled frame).
type EmotionAnalysis struct {
	DominantEmotion string             `json:"dominant_emotion"`
	TopEmotions     map[string]float64 `json:"top_emotions"`
	Timeline        []EmotionSample    `json:"timeline"`
}

// PostureSample is one point of the body-language timeline.
type PostureSample struct {
	Timestamp float64 `json:"timestamp"`
	EyeGaze   float64 `json:"eyeGaze"`
	Posture   float64 `json:"posture"`
	Gesture   string  `json:"gesture"`
}

// GazeSample is one point of the eye-gaze timeline.
type GazeSample struct {
	Timestamp float64 `json:"timestamp"`
	EyeGaze   float64 `json:"eyeGaze"`
}

// ExpressivenessSample is one point of the expressiveness score series.
type ExpressivenessSample struct {
	Timestamp float64 `json:"timestamp"`
	Score     float64 `json:"score"`
}

// PostureAnalysis is the posture adapter's output for one chunk.
type PostureAnalysis struct {
	EyeGaze                float64                `json:"eyeGaze"`
	Posture                float64                `json:"posture"`
	GestureCount           int                    `json:"gesture_count"`
	MovementEnergy         float64                `json:"movement_energy"`
	DetectionConfidence    float64                `json:"detection_confidence"`
	Timeline               []PostureSample        `json:"timeline"`
	GazeTimeline           []GazeSample           `json:"gaze_timeline"`
	ExpressivenessTimeline []ExpressivenessSample `json:"expressiveness_timeline"`
}

// SpeechFeatures is the per-chunk speech summary embedded in a response.
type SpeechFeatures struct {
	Rate            float64        `json:"rate"`
	VolumeVariation float64        `json:"volumeVariation"`
	PauseCount      int            `json:"pauseCount"`
	FillerWords     map[string]int `json:"fillerWords"`
}

// MetricBundle holds the five behavioral scores (or their confidences).
// All values are clamped to [0,1].
type MetricBundle struct {
	SpeechClarity float64 `json:"speechClarity"`
	Confidence    float64 `json:"confidence"`
	EmotionalTone float64 `json:"emotionalTone"`
	Engagement    float64 `json:"engagement"`
	BodyLanguage  float64 `json:"bodyLanguage"`
}

// Response is the full per-question success payload.
type Response struct {
	QuestionID             string                 `json:"questionId"`
	Transcript             string                 `json:"transcript"`
	Start                  int64                  `json:"start"`
	End                    int64                  `json:"end"`
	Duration               int64                  `json:"duration"`
	WordTimings            []WordTiming           `json:"wordTimings"`
	EmotionTimeline        []EmotionSample        `json:"emotionTimeline"`
	PostureTimeline        []PostureSample        `json:"postureTimeline"`
	GazeTimeline           []GazeSample           `json:"gazeTimeline"`
	PauseLocations         []float64              `json:"pauseLocations"`
	Disfluencies           []Disfluency           `json:"disfluencies"`
	ExpressivenessTimeline []ExpressivenessSample `json:"expressivenessTimeline"`
	Expressiveness         float64                `json:"expressiveness"`
	Emotion                string                 `json:"emotion"`
	EyeGaze                float64                `json:"eyeGaze"`
	Posture                float64                `json:"posture"`
	Gestures               int                    `json:"gestures"`
	Movement               float64                `json:"movement"`
	SpeechFeatures         SpeechFeatures         `json:"speechFeatures"`
	Metrics                MetricBundle           `json:"metrics"`
	MetricsConfidence      MetricBundle           `json:"metricsConfidence"`
	ProcessingVersion      string                 `json:"processingVersion"`
	QualityFlag            string                 `json:"qualityFlag"`
}

// ChunkFailure is the wire shape for a chunk that could not be processed.
type ChunkFailure struct {
	QuestionID string `json:"questionId"`
	Error      string `json:"error"`
	Partial    bool   `json:"partial"`
}

// ChunkResult is the outcome of one TimeRange: either a Response or a
// failure reason. Exactly one of Response/Reason is set.
type ChunkResult struct {
	QuestionID string
	Response   *Response
	Reason     string
}

// Failed reports whether this chunk ended in the failed state.
func (c ChunkResult) Failed() bool {
	return c.Response == nil
}

// Payload returns the wire representation of this chunk result.
func (c ChunkResult) Payload() any {
	if c.Response != nil {
		return c.Response
	}
	return ChunkFailure{QuestionID: c.QuestionID, Error: c.Reason, Partial: true}
}

// JobResult is the finalized outcome of one interview job. Built once by the
// orchestrator, delivered once, then immutable.
type JobResult struct {
	InterviewID    string
	Responses      []ChunkResult
	Errors         []string
	ProcessingTime float64
	ProcessedAt    time.Time
}

// Payload flattens the result into the shape posted to the result callback.
func (r *JobResult) Payload() map[string]any {
	responses := make([]any, 0, len(r.Responses))
	for _, cr := range r.Responses {
		responses = append(responses, cr.Payload())
	}
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return map[string]any{
		"interviewId":    r.InterviewID,
		"responses":      responses,
		"errors":         errs,
		"processingTime": r.ProcessingTime,
		"processedAt":    r.ProcessedAt.Format(time.RFC3339),
	}
}

// JobError is the job-level error shape produced when acquisition or full
// audio extraction fails and no chunk was processed.
type JobError struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	InterviewID string `json:"interviewId"`
	Cause       error  `json:"-"`
}

// NewJobError builds the error result for a failed job.
func NewJobError(interviewID string, cause error) *JobError {
	return &JobError{
		Status:      "error",
		Message:     cause.Error(),
		InterviewID: interviewID,
		Cause:       cause,
	}
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job %s failed: %s", e.InterviewID, e.Message)
}

func (e *JobError) Unwrap() error { return e.Cause }
