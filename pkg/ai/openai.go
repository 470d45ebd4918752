package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sitlearn",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Duration of AI backend requests",
	}, []string{"model", "operation"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sitlearn",
		Subsystem: "ai",
		Name:      "request_failures_total",
		Help:      "Number of AI backend request failures",
	}, []string{"model", "operation"})
)

// OpenAIConfig defines configuration for the OpenAI-backed generator and
// evaluator.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIClient implements Generator and Evaluator against the OpenAI chat
// completion API.
type OpenAIClient struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIClient builds a client using the provided configuration.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	tracer := otel.Tracer("github.com/Rithvik985/situated-learning-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIClient{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// GenerateAssignment produces one situational assignment variant.
func (c *OpenAIClient) GenerateAssignment(parent context.Context, req AssignmentRequest) (GeneratedAssignment, error) {
	content, err := c.complete(parent, "generate_assignment", assignmentSystemPrompt(), buildAssignmentPrompt(req), false)
	if err != nil {
		return GeneratedAssignment{}, err
	}

	return GeneratedAssignment{
		Title:       extractTitle(content),
		Description: content,
	}, nil
}

// GenerateRubric produces a rubric document for the given assignment text.
func (c *OpenAIClient) GenerateRubric(parent context.Context, req RubricRequest) (RubricDraft, error) {
	content, err := c.complete(parent, "generate_rubric", rubricSystemPrompt(), buildRubricPrompt(req), true)
	if err != nil {
		return RubricDraft{}, err
	}

	var draft RubricDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
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
func (c *OpenAIClient) Evaluate(parent context.Context, input EvaluationInput) (EvaluationOutput, error) {
	content, err := c.complete(parent, "evaluate", evaluatorSystemPrompt(), buildEvaluationPrompt(input), true)
	if err != nil {
		return EvaluationOutput{}, err
	}

	var output EvaluationOutput
	if err := json.Unmarshal([]byte(content), &output); err != nil {
		return EvaluationOutput{}, fmt.Errorf("parse evaluation json: %w", err)
	}
	if len(output.Dimensions) == 0 {
		return EvaluationOutput{}, fmt.Errorf("evaluation contains no dimensions")
	}
	return output, nil
}

func (c *OpenAIClient) complete(parent context.Context, operation, system, user string, jsonMode bool) (string, error) {
	ctx, span := c.tracer.Start(parent, "openai."+operation, trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if jsonMode {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(c.cfg.Model, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(c.cfg.Model, operation).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("openai %s: %w", operation, err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(c.cfg.Model, operation).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func assignmentSystemPrompt() string {
	return "You are an experienced university instructor designing situated-learning assignments: open-ended, " +
		"industry-grounded problem statements that working professionals solve using their own workplace context. " +
		"Write a complete assignment with a problem statement, numbered tasks, and submission requirements."
}

func buildAssignmentPrompt(req AssignmentRequest) string {
	builder := strings.Builder{}
	builder.WriteString("# Course\n")
	builder.WriteString(req.CourseName)
	builder.WriteString("\n\n## Topics\n")
	builder.WriteString(strings.Join(req.Topics, ", "))
	builder.WriteString("\n\n## Industry Domains\n")
	builder.WriteString(strings.Join(req.Domains, ", "))
	builder.WriteString("\n\n## Difficulty\n")
	builder.WriteString(req.DifficultyLevel)
	if req.CustomInstructions != "" {
		builder.WriteString("\n\n## Additional Instructions\n")
		builder.WriteString(req.CustomInstructions)
	}
	if len(req.FewShotExamples) > 0 {
		builder.WriteString("\n\n## Reference Examples\n")
		builder.WriteString(strings.Join(req.FewShotExamples, "\n\n"))
	}
	builder.WriteString("\n\nProduce one assignment at the stated difficulty.")
	return builder.String()
}

func rubricSystemPrompt() string {
	return "You are an assessment designer. Respond with a JSON object in the form " +
		`{"rubric_name": str, "doc_type": str, "rubrics": [{"category": str, "questions": [str]}]}. ` +
		"Produce exactly 4 categories with 5 evaluation questions each; each question targets a distinct " +
		"aspect and is answerable on a 1-4 scale."
}

func buildRubricPrompt(req RubricRequest) string {
	builder := strings.Builder{}
	builder.WriteString("# Document Type\n")
	builder.WriteString(req.DocType)
	builder.WriteString("\n\n# Assignment Content\n")
	builder.WriteString(req.Text)
	builder.WriteString("\n\nReturn JSON.")
	return builder.String()
}

func evaluatorSystemPrompt() string {
	return "You are an automated assignment evaluator. Score the submission against every rubric question on a " +
		"1-4 scale (1 = inadequate, 4 = excellent) and respond with a JSON object in the form " +
		`{"dimensions": [{"category": str, "feedback": str, "criteria": [{"question": str, "score": number, "reasoning": str}]}], ` +
		`"overall_feedback": str}. ` +
		"Keep the rubric's category and question order. Base every score on evidence from the submission."
}

func buildEvaluationPrompt(input EvaluationInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Assignment\n")
	builder.WriteString(input.AssignmentTitle)
	builder.WriteString("\n\n")
	builder.WriteString(input.AssignmentDescription)
	builder.WriteString("\n\n# Rubric\n")
	for _, category := range input.Rubric {
		builder.WriteString("\n## ")
		builder.WriteString(category.Category)
		builder.WriteString("\n")
		for _, question := range category.Questions {
			builder.WriteString("- ")
			builder.WriteString(question)
			builder.WriteString("\n")
		}
	}
	builder.WriteString("\n# Submission\n")
	builder.WriteString(input.SubmissionText)
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func extractTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		title := strings.TrimSpace(strings.ReplaceAll(line, "*", ""))
		if len(title) > 200 {
			return title[:200]
		}
		return title
	}
	return "Generated Assignment"
}
