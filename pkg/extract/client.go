// Package extract is the HTTP client for the OCR/text-extraction backend.
// The backend receives raw submission bytes and answers with the extracted
// text, the method used and a confidence figure.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Result is the extraction backend's answer for one file.
type Result struct {
	Status        string  `json:"status"`
	ExtractedText string  `json:"extracted_text"`
	Method        string  `json:"extraction_method"`
	Confidence    float64 `json:"confidence"`
	ErrorMessage  string  `json:"error_message"`
}

// Succeeded reports whether extraction produced usable text.
func (r Result) Succeeded() bool {
	return r.Status == "success"
}

// BackendError is a non-2xx answer from the extraction backend. Detail
// carries the backend's own message so handlers can surface it verbatim.
type BackendError struct {
	StatusCode int
	Detail     string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("extraction backend returned %d: %s", e.StatusCode, e.Detail)
}

// Extractor turns submission bytes into text.
type Extractor interface {
	Extract(ctx context.Context, filename string, content []byte) (Result, error)
}

// Client talks to the extraction backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// New builds an extraction client. Timeouts live here, at the transport
// boundary; callers only see eventual success or failure.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "extract_client").Logger(),
	}
}

// Extract posts the file to the backend and decodes the result.
func (c *Client) Extract(ctx context.Context, filename string, content []byte) (Result, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return Result{}, fmt.Errorf("build extraction request: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return Result{}, fmt.Errorf("build extraction request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("build extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", body)
	if err != nil {
		return Result{}, fmt.Errorf("build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call extraction backend: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return Result{}, fmt.Errorf("read extraction response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Result{}, &BackendError{StatusCode: resp.StatusCode, Detail: detailFrom(payload)}
	}

	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return Result{}, fmt.Errorf("decode extraction response: %w", err)
	}

	c.logger.Debug().Str("file", filename).Str("method", result.Method).Float64("confidence", result.Confidence).Msg("extraction finished")
	return result, nil
}

func detailFrom(payload []byte) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	return "extraction failed"
}
