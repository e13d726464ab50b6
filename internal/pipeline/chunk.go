package pipeline

import (
	"context"
	"math"

	"github.com/intervuave/interview-worker/internal/events"
	"github.com/intervuave/interview-worker/internal/media"
	"github.com/intervuave/interview-worker/internal/scoring"
	"github.com/intervuave/interview-worker/internal/types"
)

// Chunk pipeline stages, published to the event hub as each chunk advances.
const (
	StageSegmenting = "segmenting"
	StageAnalyzing  = "analyzing"
	StageScoring    = "scoring"
	StageAssembled  = "assembled"
	StageFailed     = "failed"
)

// Segmenter cuts per-question chunks out of the canonical video and the
// extracted full audio track.
type Segmenter interface {
	ExtractAudio(ctx context.Context, videoPath string, reg media.Registrar) (string, error)
	SliceVideo(ctx context.Context, videoPath, interviewID string, tr types.TimeRange, reg media.Registrar) (string, error)
	SliceAudio(ctx context.Context, audioPath, interviewID string, tr types.TimeRange, reg media.Registrar) (string, error)
}

// TranscriptAnalyzer produces the transcript and speech features of a chunk.
type TranscriptAnalyzer interface {
	Analyze(ctx context.Context, audioPath string) (*types.AudioAnalysis, error)
}

// EmotionAnalyzer produces the facial-emotion distribution of a chunk.
type EmotionAnalyzer interface {
	Analyze(ctx context.Context, videoPath string) (*types.EmotionAnalysis, error)
}

// PostureAnalyzer produces the body-language signals of a chunk.
type PostureAnalyzer interface {
	Analyze(ctx context.Context, videoPath string) (*types.PostureAnalysis, error)
}

// ChunkPipeline sequences segmentation, analysis, scoring, and assembly for
// one TimeRange. Every failure is absorbed into a ChunkResult so sibling
// chunks are never affected.
type ChunkPipeline struct {
	segmenter  Segmenter
	transcript TranscriptAnalyzer
	emotion    EmotionAnalyzer
	posture    PostureAnalyzer
	hub        *events.Hub
}

// NewChunkPipeline wires the per-chunk controller.
func NewChunkPipeline(seg Segmenter, transcript TranscriptAnalyzer, emotion EmotionAnalyzer, posture PostureAnalyzer, hub *events.Hub) *ChunkPipeline {
	return &ChunkPipeline{
		segmenter:  seg,
		transcript: transcript,
		emotion:    emotion,
		posture:    posture,
		hub:        hub,
	}
}

// Process runs one TimeRange to completion and always returns a ChunkResult,
// never an error. Chunk-scoped artifacts are released before returning.
func (p *ChunkPipeline) Process(ctx context.Context, job *types.InterviewJob, videoPath, audioPath string, tr types.TimeRange, reaper *Reaper) types.ChunkResult {
	defer reaper.ReleaseChunk(tr.QuestionID)

	p.stage(job.ID, tr.QuestionID, StageSegmenting)
	reg := reaper.ChunkScope(tr.QuestionID)

	chunkVideo, err := p.segmenter.SliceVideo(ctx, videoPath, job.ID, tr, reg)
	if err != nil {
		return p.fail(job.ID, tr.QuestionID, err)
	}
	chunkAudio, err := p.segmenter.SliceAudio(ctx, audioPath, job.ID, tr, reg)
	if err != nil {
		return p.fail(job.ID, tr.QuestionID, err)
	}

	p.stage(job.ID, tr.QuestionID, StageAnalyzing)
	audio, err := p.transcript.Analyze(ctx, chunkAudio)
	if err != nil {
		return p.fail(job.ID, tr.QuestionID, err)
	}
	emotions, err := p.emotion.Analyze(ctx, chunkVideo)
	if err != nil {
		return p.fail(job.ID, tr.QuestionID, err)
	}
	posture, err := p.posture.Analyze(ctx, chunkVideo)
	if err != nil {
		return p.fail(job.ID, tr.QuestionID, err)
	}

	p.stage(job.ID, tr.QuestionID, StageScoring)
	engagement := scoring.Engagement(posture, audio)
	emotionalTone := scoring.EmotionalTone(emotions)
	speechClarity := scoring.SpeechClarity(audio)
	confidence := scoring.ConfidenceEstimate(posture, audio)

	response := &types.Response{
		QuestionID:             tr.QuestionID,
		Transcript:             audio.Text,
		Start:                  tr.Start,
		End:                    tr.End,
		Duration:               tr.DurationMillis(),
		WordTimings:            audio.WordTimings,
		EmotionTimeline:        emotions.Timeline,
		PostureTimeline:        posture.Timeline,
		GazeTimeline:           posture.GazeTimeline,
		PauseLocations:         audio.PauseLocations,
		Disfluencies:           audio.Disfluencies,
		ExpressivenessTimeline: posture.ExpressivenessTimeline,
		Expressiveness:         meanExpressiveness(posture.ExpressivenessTimeline),
		Emotion:                emotions.DominantEmotion,
		EyeGaze:                posture.EyeGaze,
		Posture:                posture.Posture,
		Gestures:               posture.GestureCount,
		Movement:               posture.MovementEnergy,
		SpeechFeatures: types.SpeechFeatures{
			Rate:            audio.WordsPerMinute,
			VolumeVariation: audio.VolumeVariation,
			PauseCount:      audio.PauseCount,
			FillerWords:     audio.FillerWords,
		},
		Metrics: types.MetricBundle{
			SpeechClarity: speechClarity.Score,
			Confidence:    confidence.Score,
			EmotionalTone: emotionalTone.Score,
			Engagement:    engagement.Score,
			BodyLanguage:  posture.Posture,
		},
		MetricsConfidence: types.MetricBundle{
			SpeechClarity: speechClarity.Confidence,
			Confidence:    confidence.Confidence,
			EmotionalTone: emotionalTone.Confidence,
			Engagement:    engagement.Confidence,
			BodyLanguage:  posture.DetectionConfidence,
		},
		ProcessingVersion: types.ProcessingVersion,
		QualityFlag:       "good",
	}

	p.stage(job.ID, tr.QuestionID, StageAssembled)
	return types.ChunkResult{QuestionID: tr.QuestionID, Response: response}
}

func (p *ChunkPipeline) fail(interviewID, questionID string, err error) types.ChunkResult {
	if p.hub != nil {
		p.hub.Publish(events.Event{
			InterviewID: interviewID,
			QuestionID:  questionID,
			Stage:       StageFailed,
			Detail:      err.Error(),
		})
	}
	return types.ChunkResult{QuestionID: questionID, Reason: err.Error()}
}

func (p *ChunkPipeline) stage(interviewID, questionID, stage string) {
	if p.hub != nil {
		p.hub.Publish(events.Event{InterviewID: interviewID, QuestionID: questionID, Stage: stage})
	}
}

// meanExpressiveness averages the expressiveness series; an empty series
// scores zero.
func meanExpressiveness(samples []types.ExpressivenessSample) float64 {
	if len(samples) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.Score
	}
	return math.Round(sum/float64(len(samples))*100) / 100
}
