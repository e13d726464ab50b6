package media

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/intervuave/interview-worker/internal/logging"
	"github.com/intervuave/interview-worker/internal/types"
)

// Segmenter extracts the full audio track and cuts per-question video and
// audio chunks. Chunk files are namespaced {interviewId}_{questionId} so
// concurrent chunks never collide.
type Segmenter struct {
	ffmpeg   string
	tempDir  string
	chunkDir string
	runner   Runner
	log      zerolog.Logger
}

// NewSegmenter creates a segmenter writing chunk files under chunkDir.
func NewSegmenter(ffmpegPath, tempDir, chunkDir string, runner Runner) *Segmenter {
	return &Segmenter{
		ffmpeg:   ffmpegPath,
		tempDir:  tempDir,
		chunkDir: chunkDir,
		runner:   runner,
		log:      logging.WithComponent("segmenter"),
	}
}

// ExtractAudio pulls the full-length audio track as 16kHz mono WAV. The
// output is job-scoped and registered before ffmpeg runs.
func (s *Segmenter) ExtractAudio(ctx context.Context, videoPath string, reg Registrar) (string, error) {
	audioPath := filepath.Join(s.tempDir, fmt.Sprintf("%s.wav", uuid.New().String()))
	reg.Register(audioPath)

	res, err := s.runner.Run(ctx, s.ffmpeg,
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		audioPath,
		"-y",
	)
	if err != nil {
		return "", &TranscodeError{
			Path: videoPath,
			Err:  fmt.Errorf("audio extraction failed, ffmpeg exit %d: %s", res.ExitCode, firstLine(res.Stderr)),
		}
	}
	return audioPath, nil
}

// SliceVideo cuts one question's video chunk. Start offsets are passed to
// ffmpeg with millisecond precision.
func (s *Segmenter) SliceVideo(ctx context.Context, videoPath, interviewID string, tr types.TimeRange, reg Registrar) (string, error) {
	outputPath := filepath.Join(s.chunkDir, fmt.Sprintf("%s_%s.mp4", interviewID, tr.QuestionID))
	reg.Register(outputPath)

	res, err := s.runner.Run(ctx, s.ffmpeg,
		"-ss", seconds(tr.Start),
		"-i", videoPath,
		"-t", seconds(tr.DurationMillis()),
		"-c:v", "libx264",
		"-c:a", "aac",
		"-preset", "veryfast",
		outputPath,
		"-y",
	)
	if err != nil {
		return "", &SegmentationError{
			QuestionID: tr.QuestionID,
			Err:        fmt.Errorf("video slice failed, ffmpeg exit %d: %s", res.ExitCode, firstLine(res.Stderr)),
		}
	}

	s.log.Debug().Str("questionId", tr.QuestionID).Str("path", outputPath).Msg("sliced video chunk")
	return outputPath, nil
}

// SliceAudio cuts one question's audio chunk from the full extracted track.
func (s *Segmenter) SliceAudio(ctx context.Context, audioPath, interviewID string, tr types.TimeRange, reg Registrar) (string, error) {
	outputPath := filepath.Join(s.chunkDir, fmt.Sprintf("%s_%s.wav", interviewID, tr.QuestionID))
	reg.Register(outputPath)

	res, err := s.runner.Run(ctx, s.ffmpeg,
		"-i", audioPath,
		"-ss", seconds(tr.Start),
		"-to", seconds(tr.End),
		"-c:a", "copy",
		outputPath,
		"-y",
	)
	if err != nil {
		return "", &SegmentationError{
			QuestionID: tr.QuestionID,
			Err:        fmt.Errorf("audio slice failed, ffmpeg exit %d: %s", res.ExitCode, firstLine(res.Stderr)),
		}
	}
	return outputPath, nil
}

// seconds renders milliseconds as fractional seconds for ffmpeg arguments.
func seconds(ms int64) string {
	return strconv.FormatFloat(float64(ms)/1000.0, 'f', 3, 64)
}
