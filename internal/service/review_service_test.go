package service

import (
	"context"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Rithvik985/situated-learning-api/internal/dto"
	"github.com/Rithvik985/situated-learning-api/internal/models"
)

func seedEvaluation(t *testing.T, f *evaluationFixture) models.Evaluation {
	t.Helper()
	evaluation := models.Evaluation{
		ID:           "ffffffff-1111-2222-3333-444444444444",
		SubmissionID: f.submission.ID,
		AssignmentID: f.assignment.ID,
		RubricID:     f.rubric.ID,
		OverallScore: 8.5,
	}
	evaluation.SetDimensions([]models.DimensionResult{
		{
			Category:   "Correctness",
			Score:      7.5,
			MaxScore:   8,
			Percentage: 93.75,
			Criteria: []models.CriterionResult{
				{Question: "Does it handle failures?", Score: 3.5},
				{Question: "Is ordering preserved?", Score: 4.0},
			},
		},
		{
			Category:   "Clarity",
			Score:      1.0,
			MaxScore:   4,
			Percentage: 25,
			Criteria: []models.CriterionResult{
				{Question: "Is the design explained?", Score: 1.0},
			},
		},
	})
	require.NoError(t, f.evaluations.Create(context.Background(), &evaluation))
	return evaluation
}

func newReviewServiceForTest(f *evaluationFixture, events Publisher) ReviewService {
	return NewReviewService(f.evaluations, f.submissions, f.assignments, events, validator.New(), zerolog.Nop())
}

func TestSaveReviewAdjustsScores(t *testing.T) {
	f := newEvaluationFixture(t)
	seedEvaluation(t, f)
	svc := newReviewServiceForTest(f, NewNoopPublisher())

	updated, err := svc.SaveReview(context.Background(), f.submission.ID, dto.ReviewRequest{
		AdjustedScores: []dto.ScoreAdjustmentPayload{
			{DimensionIndex: 1, CriterionIndex: 0, Delta: 0.5},
		},
		FacultyFeedback:     "Raised clarity after re-reading.",
		ReasonForAdjustment: "the explanation section was clearer than the model credited",
	})
	require.NoError(t, err)
	require.True(t, updated.FacultyReviewed)
	require.Equal(t, 1.5, updated.Dimensions[1].Score)
	require.Equal(t, 9.0, updated.OverallScore)
	require.Equal(t, 0.5, updated.ScoreAdjustment)
	require.False(t, updated.IsFinalized)
}

func TestSaveReviewRequiresReasonForAdjustments(t *testing.T) {
	f := newEvaluationFixture(t)
	seedEvaluation(t, f)
	svc := newReviewServiceForTest(f, NewNoopPublisher())

	_, err := svc.SaveReview(context.Background(), f.submission.ID, dto.ReviewRequest{
		AdjustedScores: []dto.ScoreAdjustmentPayload{{DimensionIndex: 0, CriterionIndex: 0, Delta: 0.25}},
	})
	require.ErrorIs(t, err, ErrReviewReasonRequired)

	_, err = svc.SaveReview(context.Background(), f.submission.ID, dto.ReviewRequest{
		AdjustedScores:      []dto.ScoreAdjustmentPayload{{DimensionIndex: 0, CriterionIndex: 0, Delta: 0.25}},
		ReasonForAdjustment: "   ",
	})
	require.ErrorIs(t, err, ErrReviewReasonRequired)

	stored, getErr := f.evaluations.GetBySubmission(context.Background(), f.submission.ID)
	require.NoError(t, getErr)
	require.False(t, stored.FacultyReviewed, "rejected review must not persist anything")
}

func TestSaveReviewFeedbackOnlyNeedsNoReason(t *testing.T) {
	f := newEvaluationFixture(t)
	seedEvaluation(t, f)
	svc := newReviewServiceForTest(f, NewNoopPublisher())

	updated, err := svc.SaveReview(context.Background(), f.submission.ID, dto.ReviewRequest{
		FacultyFeedback: "Well structured work.",
	})
	require.NoError(t, err)
	require.True(t, updated.FacultyReviewed)
	require.Equal(t, 0.0, updated.ScoreAdjustment)
}

func TestFinalizeClampsAndFreezes(t *testing.T) {
	f := newEvaluationFixture(t)
	seedEvaluation(t, f)
	events := &recordingPublisher{}
	svc := newReviewServiceForTest(f, events)

	finalized, err := svc.Finalize(context.Background(), dto.FinalizeRequest{
		SubmissionID:  f.submission.ID,
		FinalMarks:    99,
		FinalFeedback: "Capped at the rubric maximum.",
	})
	require.NoError(t, err)
	require.True(t, finalized.IsFinalized)
	require.NotNil(t, finalized.FinalScore)
	require.Equal(t, 12.0, *finalized.FinalScore, "final mark clamps to rubric range")
	require.Equal(t, 1, events.published(SubjectEvaluationFinalized))
}

func TestFinalizedRecordRejectsFurtherWrites(t *testing.T) {
	f := newEvaluationFixture(t)
	seedEvaluation(t, f)
	svc := newReviewServiceForTest(f, NewNoopPublisher())

	_, err := svc.Finalize(context.Background(), dto.FinalizeRequest{SubmissionID: f.submission.ID, FinalMarks: 9})
	require.NoError(t, err)

	_, err = svc.Finalize(context.Background(), dto.FinalizeRequest{SubmissionID: f.submission.ID, FinalMarks: 10})
	require.ErrorIs(t, err, ErrEvaluationFinalized)

	_, err = svc.SaveReview(context.Background(), f.submission.ID, dto.ReviewRequest{
		AdjustedScores:      []dto.ScoreAdjustmentPayload{{DimensionIndex: 0, CriterionIndex: 0, Delta: 0.25}},
		ReasonForAdjustment: "too late",
	})
	require.ErrorIs(t, err, ErrEvaluationFinalized)
}

func TestReportListsEvaluations(t *testing.T) {
	f := newEvaluationFixture(t)
	seedEvaluation(t, f)
	svc := newReviewServiceForTest(f, NewNoopPublisher())

	_, err := svc.Finalize(context.Background(), dto.FinalizeRequest{SubmissionID: f.submission.ID, FinalMarks: 9})
	require.NoError(t, err)

	filename, content, err := svc.Report(context.Background(), f.assignment.ID)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(filename, "evaluation_report_"))
	require.True(t, strings.HasSuffix(filename, ".txt"))

	report := string(content)
	require.Contains(t, report, f.assignment.Title)
	require.Contains(t, report, f.submission.FileName)
	require.Contains(t, report, "Final score: 9.00")
	require.Contains(t, report, "Correctness")
}

func TestReportUnknownAssignment(t *testing.T) {
	f := newEvaluationFixture(t)
	svc := newReviewServiceForTest(f, NewNoopPublisher())

	_, _, err := svc.Report(context.Background(), "missing")
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}
