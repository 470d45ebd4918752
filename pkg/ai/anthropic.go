package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	anthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion  = "2023-06-01"
)

// AnthropicConfig defines configuration for the Anthropic-backed generator
// and evaluator.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	BaseURL   string
	Timeout   time.Duration
	Logger    zerolog.Logger
}

// AnthropicClient implements Generator and Evaluator against the Anthropic
// messages API. The vendor ships no Go SDK, so this talks HTTP directly.
type AnthropicClient struct {
	cfg    AnthropicConfig
	http   *http.Client
	logger zerolog.Logger
}

// NewAnthropicClient builds a client using the provided configuration.
func NewAnthropicClient(cfg AnthropicConfig) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "claude-3-5-sonnet-latest"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = anthropicEndpoint
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &AnthropicClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: cfg.Logger.With().Str("component", "anthropic_client").Logger(),
	}, nil
}

// GenerateAssignment produces one situational assignment variant.
func (c *AnthropicClient) GenerateAssignment(ctx context.Context, req AssignmentRequest) (GeneratedAssignment, error) {
	content, err := c.complete(ctx, "generate_assignment", assignmentSystemPrompt(), buildAssignmentPrompt(req))
	if err != nil {
		return GeneratedAssignment{}, err
	}

	return GeneratedAssignment{
		Title:       extractTitle(content),
		Description: content,
	}, nil
}

// GenerateRubric produces a rubric document for the given assignment text.
func (c *AnthropicClient) GenerateRubric(ctx context.Context, req RubricRequest) (RubricDraft, error) {
	content, err := c.complete(ctx, "generate_rubric", rubricSystemPrompt(), buildRubricPrompt(req))
	if err != nil {
		return RubricDraft{}, err
	}

	var draft RubricDraft
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &draft); err != nil {
		return RubricDraft{}, fmt.Errorf("parse rubric json: %w", err)
	}
	if len(draft.Categories) == 0 {
		return RubricDraft{}, fmt.Errorf("rubric draft contains no categories")
	}
	if draft.DocType == "" {
		draft.DocType = req.DocType
	}
	return draft, nil
}

// Evaluate scores a submission against every rubric question.
func (c *AnthropicClient) Evaluate(ctx context.Context, input EvaluationInput) (EvaluationOutput, error) {
	content, err := c.complete(ctx, "evaluate", evaluatorSystemPrompt(), buildEvaluationPrompt(input))
	if err != nil {
		return EvaluationOutput{}, err
	}

	var output EvaluationOutput
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &output); err != nil {
		return EvaluationOutput{}, fmt.Errorf("parse evaluation json: %w", err)
	}
	if len(output.Dimensions) == 0 {
		return EvaluationOutput{}, fmt.Errorf("evaluation contains no dimensions")
	}
	return output, nil
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *AnthropicClient) complete(ctx context.Context, operation, system, user string) (string, error) {
	payload, err := json.Marshal(anthropicRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		System:    system,
		Messages:  []anthropicMessage{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", fmt.Errorf("encode anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := c.http.Do(req)
	aiDuration.WithLabelValues(c.cfg.Model, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(c.cfg.Model, operation).Inc()
		return "", fmt.Errorf("anthropic %s: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		aiFailures.WithLabelValues(c.cfg.Model, operation).Inc()
		return "", fmt.Errorf("read anthropic response: %w", err)
	}

	var decoded anthropicResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		aiFailures.WithLabelValues(c.cfg.Model, operation).Inc()
		return "", fmt.Errorf("parse anthropic response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		aiFailures.WithLabelValues(c.cfg.Model, operation).Inc()
		if decoded.Error != nil {
			return "", fmt.Errorf("anthropic %s: %s: %s", operation, decoded.Error.Type, decoded.Error.Message)
		}
		return "", fmt.Errorf("anthropic %s: unexpected status %d", operation, resp.StatusCode)
	}

	builder := strings.Builder{}
	for _, block := range decoded.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(builder.String())
	if text == "" {
		aiFailures.WithLabelValues(c.cfg.Model, operation).Inc()
		return "", fmt.Errorf("anthropic %s: empty completion", operation)
	}

	return text, nil
}

// stripCodeFence removes a surrounding markdown fence when the model wraps
// its JSON answer in one.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
