package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Rithvik985/situated-learning-api/internal/dto"
	"github.com/Rithvik985/situated-learning-api/internal/models"
	"github.com/Rithvik985/situated-learning-api/internal/observability"
	"github.com/Rithvik985/situated-learning-api/internal/repository"
	"github.com/Rithvik985/situated-learning-api/internal/scoring"
	"github.com/Rithvik985/situated-learning-api/pkg/ai"
)

// ErrEvaluationNotFound indicates no evaluation exists for the requested id.
var ErrEvaluationNotFound = errors.New("evaluation not found")

// ErrNoProcessedSubmissions indicates every requested submission lacks
// extracted text.
var ErrNoProcessedSubmissions = errors.New("no processed submissions to evaluate")

// EvaluationService scores processed submissions against a rubric.
type EvaluationService interface {
	Evaluate(ctx context.Context, payload dto.EvaluateRequest) ([]dto.EvaluationResponse, error)
	Get(ctx context.Context, id string) (dto.EvaluationResponse, error)
	GetBySubmission(ctx context.Context, submissionID string) (dto.EvaluationResponse, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]dto.EvaluationResponse, error)
}

type evaluationService struct {
	evaluations repository.EvaluationRepository
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	rubrics     repository.RubricRepository
	evaluator   ai.Evaluator
	engine      string
	events      Publisher
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEvaluationService builds the evaluation service.
func NewEvaluationService(evaluations repository.EvaluationRepository, submissions repository.SubmissionRepository, assignments repository.AssignmentRepository, rubrics repository.RubricRepository, evaluator ai.Evaluator, engine string, events Publisher, validate *validator.Validate, logger zerolog.Logger) EvaluationService {
	return &evaluationService{
		evaluations: evaluations,
		submissions: submissions,
		assignments: assignments,
		rubrics:     rubrics,
		evaluator:   evaluator,
		engine:      engine,
		events:      events,
		validator:   validate,
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
		now:         time.Now,
	}
}

// Evaluate scores each processed submission in the request. Raw model output
// is normalized before persistence: criterion scores clamped to the rubric
// scale, dimension sums and percentages recomputed, overall recomputed from
// the dimensions.
func (s *evaluationService) Evaluate(ctx context.Context, payload dto.EvaluateRequest) ([]dto.EvaluationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	assignment, err := s.assignments.GetByID(ctx, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	rubricModel, err := s.rubrics.GetByID(ctx, payload.RubricID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRubricNotFound
		}
		return nil, err
	}

	submissions, err := s.submissions.GetByIDs(ctx, payload.SubmissionIDs)
	if err != nil {
		return nil, err
	}
	if len(submissions) == 0 {
		return nil, ErrSubmissionNotFound
	}

	rubricCategories := make([]ai.RubricCategory, 0, len(rubricModel.CategoryList()))
	for _, category := range rubricModel.CategoryList() {
		rubricCategories = append(rubricCategories, ai.RubricCategory{
			Category:  category.Name,
			Questions: category.Questions,
		})
	}

	responses := make([]dto.EvaluationResponse, 0, len(submissions))
	evaluated := 0
	for _, submission := range submissions {
		if !submission.IsProcessed() || submission.ExtractedText == "" {
			s.logger.Warn().Str("submission_id", submission.ID).Msg("skipping unprocessed submission")
			continue
		}

		evaluation, err := s.evaluateOne(ctx, assignment, rubricModel, submission, rubricCategories)
		if err != nil {
			observability.Evaluations().WithLabelValues("failed").Inc()
			return nil, err
		}

		observability.Evaluations().WithLabelValues("completed").Inc()
		evaluated++
		responses = append(responses, dto.NewEvaluationResponse(evaluation))
		s.events.Publish(SubjectEvaluationCompleted, dto.NewEvaluationResponse(evaluation))
	}

	if evaluated == 0 {
		return nil, ErrNoProcessedSubmissions
	}

	s.logger.Info().Str("assignment_id", assignment.ID).Int("count", evaluated).Msg("evaluation round completed")
	return responses, nil
}

func (s *evaluationService) evaluateOne(ctx context.Context, assignment models.Assignment, rubricModel models.Rubric, submission models.Submission, categories []ai.RubricCategory) (models.Evaluation, error) {
	started := s.now()

	output, err := s.evaluator.Evaluate(ctx, ai.EvaluationInput{
		AssignmentTitle:       assignment.Title,
		AssignmentDescription: assignment.Description,
		SubmissionText:        submission.ExtractedText,
		Rubric:                categories,
	})
	if err != nil {
		return models.Evaluation{}, err
	}

	dimensions := make([]models.DimensionResult, 0, len(output.Dimensions))
	for _, dimension := range output.Dimensions {
		criteria := make([]models.CriterionResult, 0, len(dimension.Criteria))
		for _, criterion := range dimension.Criteria {
			criteria = append(criteria, models.CriterionResult{
				Question:  criterion.Question,
				Score:     criterion.Score,
				Reasoning: criterion.Reasoning,
			})
		}
		dimensions = append(dimensions, models.DimensionResult{
			Category: dimension.Category,
			Feedback: dimension.Feedback,
			Criteria: criteria,
		})
	}

	normalized, overall := scoring.Normalize(dimensions)

	evaluation := models.Evaluation{
		ID:                uuid.NewString(),
		SubmissionID:      submission.ID,
		AssignmentID:      assignment.ID,
		RubricID:          rubricModel.ID,
		OverallScore:      overall,
		OverallFeedback:   output.OverallFeedback,
		EvaluationEngine:  s.engine,
		ProcessingSeconds: s.now().Sub(started).Seconds(),
	}
	evaluation.SetDimensions(normalized)

	if err := s.evaluations.Create(ctx, &evaluation); err != nil {
		return models.Evaluation{}, err
	}

	return evaluation, nil
}

func (s *evaluationService) Get(ctx context.Context, id string) (dto.EvaluationResponse, error) {
	evaluation, err := s.evaluations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrEvaluationNotFound
		}
		return dto.EvaluationResponse{}, err
	}

	return dto.NewEvaluationResponse(evaluation), nil
}

func (s *evaluationService) GetBySubmission(ctx context.Context, submissionID string) (dto.EvaluationResponse, error) {
	evaluation, err := s.evaluations.GetBySubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrEvaluationNotFound
		}
		return dto.EvaluationResponse{}, err
	}

	return dto.NewEvaluationResponse(evaluation), nil
}

func (s *evaluationService) ListByAssignment(ctx context.Context, assignmentID string) ([]dto.EvaluationResponse, error) {
	evaluations, err := s.evaluations.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewEvaluationResponseSlice(evaluations), nil
}
