// Package analysis wraps the three external analyzers (transcript, emotion,
// posture) behind uniform adapters. Adapters report success or a typed
// failure; isolation of failures happens one layer up, in the chunk pipeline.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// AnalysisError is a typed failure from one analyzer adapter.
type AnalysisError struct {
	Analyzer string
	Err      error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s analysis failed: %v", e.Analyzer, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// httpClient is shared by the HTTP-backed adapters.
type httpClient struct {
	c *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{c: &http.Client{Timeout: timeout}}
}

// postFile uploads a media file as multipart form data and decodes the JSON
// response into out.
func (h *httpClient) postFile(ctx context.Context, url, mediaPath string, withTimeline bool, out any) error {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", filepath.Base(mediaPath))
	if err != nil {
		return err
	}
	fd, err := os.Open(mediaPath)
	if err != nil {
		return err
	}
	defer fd.Close()

	if _, err = io.Copy(fw, fd); err != nil {
		return err
	}
	if withTimeline {
		if err := w.WriteField("with_timeline", "true"); err != nil {
			return err
		}
	}
	if err = w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &b)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := h.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
