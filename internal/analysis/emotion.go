package analysis

import (
	"context"
	"time"

	"github.com/intervuave/interview-worker/internal/types"
)

// EmotionAnalyzer calls the facial-emotion classifier service with a chunk
// video and returns the averaged emotion distribution plus timeline.
type EmotionAnalyzer struct {
	url  string
	http *httpClient
}

// NewEmotionAnalyzer creates an adapter for the emotion service.
func NewEmotionAnalyzer(url string, timeout time.Duration) *EmotionAnalyzer {
	return &EmotionAnalyzer{url: url, http: newHTTPClient(timeout)}
}

// Analyze uploads the chunk video and returns the emotion distribution. An
// empty TopEmotions map is a valid result, not an error.
func (a *EmotionAnalyzer) Analyze(ctx context.Context, videoPath string) (*types.EmotionAnalysis, error) {
	var out types.EmotionAnalysis
	if err := a.http.postFile(ctx, a.url+"/analyze", videoPath, true, &out); err != nil {
		return nil, &AnalysisError{Analyzer: "emotion", Err: err}
	}
	if out.TopEmotions == nil {
		out.TopEmotions = map[string]float64{}
	}
	return &out, nil
}
