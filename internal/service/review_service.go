package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Rithvik985/situated-learning-api/internal/dto"
	"github.com/Rithvik985/situated-learning-api/internal/observability"
	"github.com/Rithvik985/situated-learning-api/internal/repository"
	"github.com/Rithvik985/situated-learning-api/internal/scoring"
)

// Review-phase errors surfaced to handlers.
var (
	// ErrEvaluationFinalized indicates a write attempt on a frozen record.
	ErrEvaluationFinalized = scoring.ErrFinalized
	// ErrReviewReasonRequired indicates score adjustments without a
	// justification.
	ErrReviewReasonRequired = errors.New("a reason is required when adjusting scores")
)

// ReviewService is the two-phase faculty review controller: save-review
// adjusts and annotates, finalize freezes them.
type ReviewService interface {
	SaveReview(ctx context.Context, submissionID string, payload dto.ReviewRequest) (dto.EvaluationResponse, error)
	Finalize(ctx context.Context, payload dto.FinalizeRequest) (dto.EvaluationResponse, error)
	Report(ctx context.Context, assignmentID string) (string, []byte, error)
}

type reviewService struct {
	evaluations repository.EvaluationRepository
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	events      Publisher
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewReviewService builds the review service.
func NewReviewService(evaluations repository.EvaluationRepository, submissions repository.SubmissionRepository, assignments repository.AssignmentRepository, events Publisher, validate *validator.Validate, logger zerolog.Logger) ReviewService {
	return &reviewService{
		evaluations: evaluations,
		submissions: submissions,
		assignments: assignments,
		events:      events,
		validator:   validate,
		logger:      logger.With().Str("component", "review_service").Logger(),
		now:         time.Now,
	}
}

// SaveReview applies faculty score adjustments and feedback to a submission's
// evaluation. Adjustments demand a non-blank reason, and nothing is persisted
// unless the whole batch of adjustments is valid. Finalized records are
// rejected before anything is touched.
func (s *reviewService) SaveReview(ctx context.Context, submissionID string, payload dto.ReviewRequest) (dto.EvaluationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EvaluationResponse{}, err
	}

	evaluation, err := s.evaluations.GetBySubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrEvaluationNotFound
		}
		return dto.EvaluationResponse{}, err
	}

	if evaluation.IsFinalized {
		return dto.EvaluationResponse{}, ErrEvaluationFinalized
	}

	if len(payload.AdjustedScores) > 0 && strings.TrimSpace(payload.ReasonForAdjustment) == "" {
		return dto.EvaluationResponse{}, ErrReviewReasonRequired
	}

	previousOverall := evaluation.OverallScore
	for _, adjustment := range payload.AdjustedScores {
		if err := scoring.Adjust(&evaluation, adjustment.DimensionIndex, adjustment.CriterionIndex, adjustment.Delta); err != nil {
			return dto.EvaluationResponse{}, err
		}
	}

	evaluation.FacultyReviewed = true
	evaluation.FacultyFeedback = payload.FacultyFeedback
	evaluation.FacultyReason = strings.TrimSpace(payload.ReasonForAdjustment)
	evaluation.ScoreAdjustment = evaluation.OverallScore - previousOverall

	if err := s.evaluations.Update(ctx, &evaluation); err != nil {
		return dto.EvaluationResponse{}, err
	}

	s.logger.Info().
		Str("submission_id", submissionID).
		Float64("adjustment", evaluation.ScoreAdjustment).
		Msg("faculty review saved")

	return dto.NewEvaluationResponse(evaluation), nil
}

// Finalize freezes a submission's evaluation. The final mark is clamped to
// the rubric's score range; once set, the record rejects every further write.
func (s *reviewService) Finalize(ctx context.Context, payload dto.FinalizeRequest) (dto.EvaluationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EvaluationResponse{}, err
	}

	evaluation, err := s.evaluations.GetBySubmission(ctx, payload.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrEvaluationNotFound
		}
		return dto.EvaluationResponse{}, err
	}

	if evaluation.IsFinalized {
		return dto.EvaluationResponse{}, ErrEvaluationFinalized
	}

	final := payload.FinalMarks
	if max := evaluation.MaxScore(); final > max {
		final = max
	}
	if final < 0 {
		final = 0
	}

	evaluation.IsFinalized = true
	evaluation.FinalScore = &final
	evaluation.FinalFeedback = payload.FinalFeedback

	if err := s.evaluations.Update(ctx, &evaluation); err != nil {
		return dto.EvaluationResponse{}, err
	}

	observability.Evaluations().WithLabelValues("finalized").Inc()
	s.events.Publish(SubjectEvaluationFinalized, dto.NewEvaluationResponse(evaluation))
	s.logger.Info().Str("submission_id", payload.SubmissionID).Float64("final_score", final).Msg("evaluation finalized")

	return dto.NewEvaluationResponse(evaluation), nil
}

// Report renders a plain-text evaluation report for an assignment and
// returns the suggested download filename with the content.
func (s *reviewService) Report(ctx context.Context, assignmentID string) (string, []byte, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrAssignmentNotFound
		}
		return "", nil, err
	}

	evaluations, err := s.evaluations.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return "", nil, err
	}

	var report strings.Builder
	fmt.Fprintf(&report, "Evaluation Report\n")
	fmt.Fprintf(&report, "Assignment: %s\n", assignment.Title)
	fmt.Fprintf(&report, "Generated: %s\n", s.now().Format(time.RFC3339))
	fmt.Fprintf(&report, "Submissions evaluated: %d\n\n", len(evaluations))

	for i, evaluation := range evaluations {
		submission, err := s.submissions.GetByID(ctx, evaluation.SubmissionID)
		name := evaluation.SubmissionID
		if err == nil {
			name = submission.FileName
		}

		fmt.Fprintf(&report, "%d. %s\n", i+1, name)
		fmt.Fprintf(&report, "   Overall: %.2f / %.2f\n", evaluation.OverallScore, evaluation.MaxScore())
		for _, dimension := range evaluation.DimensionList() {
			fmt.Fprintf(&report, "   - %s: %.2f / %.2f (%.2f%%)\n", dimension.Category, dimension.Score, dimension.MaxScore, dimension.Percentage)
		}
		if evaluation.FacultyReviewed {
			fmt.Fprintf(&report, "   Faculty reviewed: yes (adjustment %+.2f)\n", evaluation.ScoreAdjustment)
		}
		if evaluation.IsFinalized && evaluation.FinalScore != nil {
			fmt.Fprintf(&report, "   Final score: %.2f\n", *evaluation.FinalScore)
		}
		report.WriteString("\n")
	}

	name := assignment.AssignmentName
	if name == "" {
		name = assignment.Title
	}
	filename := fmt.Sprintf("evaluation_report_%s_%s.txt", sanitizeFilename(name), s.now().Format("2006-01-02"))

	return filename, []byte(report.String()), nil
}

func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", "\"", "", "'", "")
	cleaned := replacer.Replace(strings.TrimSpace(name))
	if len(cleaned) > 64 {
		cleaned = cleaned[:64]
	}
	return cleaned
}
