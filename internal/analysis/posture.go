package analysis

import (
	"context"
	"time"

	"github.com/intervuave/interview-worker/internal/types"
)

// PostureAnalyzer calls the pose/gesture estimator service with a chunk
// video and returns body-language signals plus timelines.
type PostureAnalyzer struct {
	url  string
	http *httpClient
}

// NewPostureAnalyzer creates an adapter for the posture service.
func NewPostureAnalyzer(url string, timeout time.Duration) *PostureAnalyzer {
	return &PostureAnalyzer{url: url, http: newHTTPClient(timeout)}
}

// Analyze uploads the chunk video and returns posture signals.
func (a *PostureAnalyzer) Analyze(ctx context.Context, videoPath string) (*types.PostureAnalysis, error) {
	var out types.PostureAnalysis
	if err := a.http.postFile(ctx, a.url+"/analyze", videoPath, true, &out); err != nil {
		return nil, &AnalysisError{Analyzer: "posture", Err: err}
	}
	return &out, nil
}
