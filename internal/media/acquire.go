package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/intervuave/interview-worker/internal/logging"
)

// Acquirer resolves a job's source reference to a local mp4 file.
type Acquirer struct {
	ffmpeg  string
	tempDir string
	client  *http.Client
	runner  Runner
	log     zerolog.Logger
}

// NewAcquirer creates an acquirer. The HTTP client carries no timeout of its
// own; downloads are bounded by the job context.
func NewAcquirer(ffmpegPath, tempDir string, runner Runner) *Acquirer {
	return &Acquirer{
		ffmpeg:  ffmpegPath,
		tempDir: tempDir,
		client:  &http.Client{},
		runner:  runner,
		log:     logging.WithComponent("acquirer"),
	}
}

// Acquire returns the path of a local mp4 for the given reference. A local
// existing path is used in place (no copy); anything else is treated as a
// download URL. Every file created here is registered with reg before it is
// touched further, so a failure mid-acquisition still cleans up.
func (a *Acquirer) Acquire(ctx context.Context, reference string, reg Registrar) (string, error) {
	if info, err := os.Stat(reference); err == nil && !info.IsDir() {
		if strings.EqualFold(filepath.Ext(reference), ".webm") {
			return a.convertToMP4(ctx, reference, reg)
		}
		abs, err := filepath.Abs(reference)
		if err != nil {
			return "", &AcquisitionError{Reference: reference, Err: err}
		}
		return abs, nil
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(urlPath(reference)), "."))
	if ext != "mp4" && ext != "webm" {
		return "", &AcquisitionError{
			Reference: reference,
			Err:       fmt.Errorf("unsupported video format %q", ext),
		}
	}

	downloaded, err := a.download(ctx, reference, ext, reg)
	if err != nil {
		return "", err
	}

	if ext == "webm" {
		return a.convertToMP4(ctx, downloaded, reg)
	}
	return downloaded, nil
}

// download fetches the URL into a temp file. The file is registered right
// after creation, before the body is streamed into it.
func (a *Acquirer) download(ctx context.Context, url, ext string, reg Registrar) (string, error) {
	a.log.Info().Str("url", url).Msg("downloading source video")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &AcquisitionError{Reference: url, Err: err}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &AcquisitionError{Reference: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &AcquisitionError{
			Reference: url,
			Err:       fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	path := filepath.Join(a.tempDir, fmt.Sprintf("%s.%s", uuid.New().String(), ext))
	out, err := os.Create(path)
	if err != nil {
		return "", &AcquisitionError{Reference: url, Err: err}
	}
	reg.Register(path)

	_, err = io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err != nil {
		return "", &AcquisitionError{Reference: url, Err: err}
	}
	if closeErr != nil {
		return "", &AcquisitionError{Reference: url, Err: closeErr}
	}
	return path, nil
}

// convertToMP4 transcodes a webm file to the canonical mp4 container.
func (a *Acquirer) convertToMP4(ctx context.Context, inputPath string, reg Registrar) (string, error) {
	outputPath := filepath.Join(a.tempDir, fmt.Sprintf("%s.mp4", uuid.New().String()))
	reg.Register(outputPath)

	res, err := a.runner.Run(ctx, a.ffmpeg,
		"-i", inputPath,
		"-r", "25",
		"-c:v", "libx264",
		"-preset", "fast",
		outputPath,
		"-y",
	)
	if err != nil {
		return "", &TranscodeError{
			Path: inputPath,
			Err:  fmt.Errorf("ffmpeg exit %d: %s", res.ExitCode, firstLine(res.Stderr)),
		}
	}

	a.log.Info().Str("output", outputPath).Msg("converted webm to mp4")
	return outputPath, nil
}

// urlPath strips query and fragment so extension sniffing works on signed URLs.
func urlPath(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i]
	}
	return ref
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
