// Package scoring turns analyzer outputs into bounded behavioral scores.
// All functions are pure: no I/O, no mutable state. Internally each metric
// computes a (Score, error) pair; the exported functions apply the
// neutral-default policy at this single boundary, so callers (and tests)
// can distinguish a computed 0.5 from a defaulted 0.5.
package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/intervuave/interview-worker/internal/logging"
	"github.com/intervuave/interview-worker/internal/types"
)

// Score is one metric value with its confidence, both in [0,1].
type Score struct {
	Score      float64
	Confidence float64
}

// Neutral is returned whenever a metric cannot be computed. Degrading to a
// neutral score instead of failing the chunk is deliberate policy.
var Neutral = Score{Score: 0.5, Confidence: 0.0}

// ScoringError wraps an internal computation failure for one metric.
type ScoringError struct {
	Metric string
	Err    error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("scoring %s: %v", e.Metric, e.Err)
}

func (e *ScoringError) Unwrap() error { return e.Err }

var errNonFinite = errors.New("non-finite intermediate value")

var scoreLog = logging.WithComponent("scoring")

// Engagement scores attentiveness from gaze, movement, gestures, speech
// rate, and volume variation.
func Engagement(posture *types.PostureAnalysis, audio *types.AudioAnalysis) Score {
	s, err := computeEngagement(posture, audio)
	return orNeutral("engagement", s, err)
}

// EmotionalTone scores positivity of the facial-emotion distribution.
func EmotionalTone(emotions *types.EmotionAnalysis) Score {
	s, err := computeEmotionalTone(emotions)
	return orNeutral("emotional_tone", s, err)
}

// SpeechClarity scores intelligibility from transcription confidence,
// speaking rate, and pause frequency.
func SpeechClarity(audio *types.AudioAnalysis) Score {
	s, err := computeSpeechClarity(audio)
	return orNeutral("speech_clarity", s, err)
}

// ConfidenceEstimate scores how confident the candidate appears, from
// posture, movement, speaking rate, and fluency.
func ConfidenceEstimate(posture *types.PostureAnalysis, audio *types.AudioAnalysis) Score {
	s, err := computeConfidenceEstimate(posture, audio)
	return orNeutral("confidence", s, err)
}

// orNeutral is the single boundary where computation failures become the
// neutral default.
func orNeutral(metric string, s Score, err error) Score {
	if err != nil {
		scoreLog.Error().Err(&ScoringError{Metric: metric, Err: err}).Msg("metric degraded to neutral")
		return Neutral
	}
	return s
}

func computeEngagement(posture *types.PostureAnalysis, audio *types.AudioAnalysis) (Score, error) {
	if posture == nil || audio == nil {
		return Score{}, errors.New("missing analyzer output")
	}

	gazeFactor := posture.EyeGaze * 0.30
	movementFactor := math.Min(1.0, posture.MovementEnergy*5) * 0.20
	gestureFactor := math.Min(1.0, float64(posture.GestureCount)/10) * 0.20
	speechRateFactor := math.Min(1.0, audio.WordsPerMinute/150) * 0.15
	volumeFactor := math.Min(1.0, audio.VolumeVariation*10) * 0.15

	score := gazeFactor + movementFactor + gestureFactor + speechRateFactor + volumeFactor
	if !finite(score) {
		return Score{}, errNonFinite
	}
	score = clamp01(score)

	confidence := 0.0
	if posture.DetectionConfidence > 0.5 {
		confidence += 0.4
	}
	if audio.WordsPerMinute > 50 {
		confidence += 0.3
	}
	if posture.GestureCount > 0 {
		confidence += 0.3
	}

	return Score{Score: round2(score), Confidence: round2(confidence)}, nil
}

// emotionWeights maps emotion labels to positivity weights. Unlisted labels
// get 0.5.
var emotionWeights = map[string]float64{
	"happy":    1.0,
	"surprise": 0.7,
	"neutral":  0.5,
	"sad":      0.3,
	"angry":    0.2,
	"fear":     0.2,
	"disgust":  0.2,
}

func computeEmotionalTone(emotions *types.EmotionAnalysis) (Score, error) {
	if emotions == nil || len(emotions.TopEmotions) == 0 {
		// No emotion data is a legitimate outcome, not a failure.
		return Score{Score: 0.5, Confidence: 0.0}, nil
	}

	total := 0.0
	for _, v := range emotions.TopEmotions {
		total += v
	}
	if !finite(total) {
		return Score{}, errNonFinite
	}
	if total == 0 {
		total = 1.0
	}

	score := 0.0
	for emotion, value := range emotions.TopEmotions {
		weight, ok := emotionWeights[emotion]
		if !ok {
			weight = 0.5
		}
		score += weight * (value / total)
	}
	if !finite(score) {
		return Score{}, errNonFinite
	}

	confidence := math.Min(1.0, round2(total/100))
	return Score{Score: round2(score), Confidence: confidence}, nil
}

func computeSpeechClarity(audio *types.AudioAnalysis) (Score, error) {
	if audio == nil {
		return Score{}, errors.New("missing analyzer output")
	}

	transcriptionConfidence := audio.Confidence * 0.6

	wpm := audio.WordsPerMinute
	rateFactor := 0.2
	if wpm < 100 || wpm > 160 {
		rateFactor = 0.2 * (1.0 - math.Min(1.0, math.Abs(wpm-130)/70))
	}

	pauseFactor := 0.2 * (1.0 - math.Min(1.0, float64(audio.PauseCount)/15))

	score := transcriptionConfidence + rateFactor + pauseFactor
	if !finite(score) {
		return Score{}, errNonFinite
	}

	return Score{Score: round2(clamp01(score)), Confidence: round2(clamp01(audio.Confidence))}, nil
}

func computeConfidenceEstimate(posture *types.PostureAnalysis, audio *types.AudioAnalysis) (Score, error) {
	if posture == nil || audio == nil {
		return Score{}, errors.New("missing analyzer output")
	}

	postureFactor := posture.Posture * 0.3
	movementFactor := math.Min(1.0, posture.MovementEnergy*3) * 0.2

	rate := audio.WordsPerMinute
	rateFactor := 0.2
	if rate < 120 || rate > 180 {
		rateFactor = 0.2 * (1.0 - math.Min(1.0, math.Abs(rate-150)/60))
	}

	fillerCount := 0
	for _, n := range audio.FillerWords {
		fillerCount += n
	}
	fluencyFactor := 0.3 * (1.0 - math.Min(1.0, float64(audio.PauseCount+fillerCount)/20))

	score := postureFactor + movementFactor + rateFactor + fluencyFactor
	if !finite(score) {
		return Score{}, errNonFinite
	}

	confidence := round2(0.5 + posture.DetectionConfidence/2)
	if !finite(confidence) {
		return Score{}, errNonFinite
	}

	return Score{Score: round2(clamp01(score)), Confidence: confidence}, nil
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
