package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/intervuave/interview-worker/internal/logging"
	"github.com/intervuave/interview-worker/internal/media"
	"github.com/intervuave/interview-worker/internal/types"
)

// fillerVocabulary is the fixed disfluency vocabulary counted per chunk.
var fillerVocabulary = []string{"um", "uh", "like", "you know"}

// TranscriptAnalyzer runs the external speech-to-text engine over a chunk's
// audio and derives speech features from its word-level output.
type TranscriptAnalyzer struct {
	command string
	model   string
	tempDir string
	runner  media.Runner
	log     zerolog.Logger
}

// NewTranscriptAnalyzer creates an adapter around the whisper CLI.
func NewTranscriptAnalyzer(command, model, tempDir string, runner media.Runner) *TranscriptAnalyzer {
	return &TranscriptAnalyzer{
		command: command,
		model:   model,
		tempDir: tempDir,
		runner:  runner,
		log:     logging.WithComponent("transcript"),
	}
}

// whisperOutput matches the engine's JSON output format.
type whisperOutput struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []whisperSegment `json:"segments"`
}

type whisperSegment struct {
	Start      float64       `json:"start"`
	End        float64       `json:"end"`
	Text       string        `json:"text"`
	AvgLogprob float64       `json:"avg_logprob"`
	Words      []whisperWord `json:"words"`
}

type whisperWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Analyze transcribes one audio chunk and computes the speech feature set:
// confidence, words per minute, speech rate, pauses, fillers, word timings,
// and volume variation.
func (a *TranscriptAnalyzer) Analyze(ctx context.Context, audioPath string) (*types.AudioAnalysis, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, &AnalysisError{Analyzer: "transcript", Err: err}
	}

	outDir := filepath.Join(a.tempDir, fmt.Sprintf("whisper_%s", uuid.New().String()))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, &AnalysisError{Analyzer: "transcript", Err: err}
	}
	defer os.RemoveAll(outDir)

	absAudioPath, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, &AnalysisError{Analyzer: "transcript", Err: err}
	}

	res, err := a.runner.Run(ctx, a.command,
		"-m", "whisper",
		absAudioPath,
		"--model", a.model,
		"--output_dir", outDir,
		"--output_format", "json",
		"--language", "en",
		"--word_timestamps", "True",
		"--fp16", "False",
	)
	if err != nil {
		return nil, &AnalysisError{
			Analyzer: "transcript",
			Err:      fmt.Errorf("whisper exit %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr)),
		}
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonData, err := os.ReadFile(filepath.Join(outDir, baseName+".json"))
	if err != nil {
		return nil, &AnalysisError{Analyzer: "transcript", Err: fmt.Errorf("read whisper output: %w", err)}
	}

	var out whisperOutput
	if err := json.Unmarshal(jsonData, &out); err != nil {
		return nil, &AnalysisError{Analyzer: "transcript", Err: fmt.Errorf("parse whisper output: %w", err)}
	}

	result := speechFeatures(out)

	vol, err := volumeVariation(audioPath)
	if err != nil {
		// Volume variation is supplementary; a malformed wav should not
		// fail the whole transcript analysis.
		a.log.Warn().Err(err).Str("audio", audioPath).Msg("volume analysis failed")
		vol = 0.0
	}
	result.VolumeVariation = round4(vol)

	a.log.Debug().
		Int("segments", len(out.Segments)).
		Int("words", len(result.WordTimings)).
		Msg("transcription completed")
	return result, nil
}

// speechFeatures derives the full feature set from the engine output.
func speechFeatures(out whisperOutput) *types.AudioAnalysis {
	var (
		textParts      []string
		logprobs       []float64
		wordTimings    []types.WordTiming
		disfluencies   []types.Disfluency
		pauseLocations = []float64{}
		totalWords     int
		totalDuration  float64
		lastEnd        float64
	)

	fillerCounts := make(map[string]int, len(fillerVocabulary))
	for _, fw := range fillerVocabulary {
		fillerCounts[fw] = 0
	}

	for _, seg := range out.Segments {
		textParts = append(textParts, strings.TrimSpace(seg.Text))
		logprobs = append(logprobs, seg.AvgLogprob)
		totalDuration += seg.End - seg.Start
		totalWords += len(strings.Fields(seg.Text))

		for i, w := range seg.Words {
			wordTimings = append(wordTimings, types.WordTiming{
				Word:  w.Word,
				Start: round2(w.Start),
				End:   round2(w.End),
			})

			token := normalizeToken(w.Word)
			switch {
			case token == "um" || token == "uh" || token == "like":
				fillerCounts[token]++
				disfluencies = append(disfluencies, types.Disfluency{Word: token, Timestamp: round2(w.Start)})
			case token == "you" && i+1 < len(seg.Words) && normalizeToken(seg.Words[i+1].Word) == "know":
				fillerCounts["you know"]++
				disfluencies = append(disfluencies, types.Disfluency{Word: "you know", Timestamp: round2(w.Start)})
			}
		}

		// Inter-segment gap of at least half a second counts as a pause.
		if lastEnd > 0 && seg.Start-lastEnd >= 0.5 {
			pauseLocations = append(pauseLocations, round2(lastEnd))
		}
		lastEnd = seg.End
	}

	avgLogprob := 0.0
	if len(logprobs) > 0 {
		sum := 0.0
		for _, lp := range logprobs {
			sum += lp
		}
		avgLogprob = sum / float64(len(logprobs))
	}
	confidence := 0.0
	if len(logprobs) > 0 {
		confidence = math.Exp(avgLogprob)
	}

	durationMinutes := totalDuration / 60
	if totalDuration <= 0 {
		durationMinutes = 1
	}
	wpm := float64(totalWords) / durationMinutes

	speechRate := 0.0
	if totalDuration > 0 {
		speechRate = float64(totalWords) / totalDuration
	}

	return &types.AudioAnalysis{
		Text:           strings.TrimSpace(strings.Join(textParts, " ")),
		Confidence:     round2(confidence),
		WordsPerMinute: round2(wpm),
		SpeechRate:     round2(speechRate),
		PauseCount:     len(pauseLocations),
		PauseLocations: pauseLocations,
		FillerWords:    fillerCounts,
		Disfluencies:   disfluencies,
		WordTimings:    wordTimings,
	}
}

// normalizeToken lowercases a word and strips surrounding punctuation.
func normalizeToken(w string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(w)), ".,!?;:\"'")
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
