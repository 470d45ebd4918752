// Package detect is the HTTP client for the AI-content detection backend
// (RADAR-style). It sends submission text and receives a risk assessment.
package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Analysis is the detector's verdict for one submission.
type Analysis struct {
	DetectionResults map[string]any `json:"ai_detection_results"`
	RiskAssessment   string         `json:"risk_assessment"`
	Recommendations  []string       `json:"recommendations"`
	SubmissionStats  map[string]any `json:"submission_stats"`
}

// Detector analyses text for machine-generated content.
type Detector interface {
	Analyze(ctx context.Context, text string) (Analysis, error)
}

// BackendError is a non-2xx answer from the detection backend. Detail
// carries the backend's own message so handlers can surface it verbatim.
type BackendError struct {
	StatusCode int
	Detail     string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("detection backend returned %d: %s", e.StatusCode, e.Detail)
}

// Client talks to the detection backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// New builds a detection client.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "detect_client").Logger(),
	}
}

// Analyze posts the submission text and decodes the verdict.
func (c *Client) Analyze(ctx context.Context, text string) (Analysis, error) {
	payload, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return Analysis{}, fmt.Errorf("build detection request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return Analysis{}, fmt.Errorf("build detection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Analysis{}, fmt.Errorf("call detection backend: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Analysis{}, fmt.Errorf("read detection response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Detail string `json:"detail"`
		}
		detail := "detection failed"
		if err := json.Unmarshal(body, &e); err == nil && e.Detail != "" {
			detail = e.Detail
		}
		return Analysis{}, &BackendError{StatusCode: resp.StatusCode, Detail: detail}
	}

	var analysis Analysis
	if err := json.Unmarshal(body, &analysis); err != nil {
		return Analysis{}, fmt.Errorf("decode detection response: %w", err)
	}

	c.logger.Debug().Str("risk", analysis.RiskAssessment).Msg("ai detection finished")
	return analysis, nil
}
