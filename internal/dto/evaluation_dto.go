package dto

import (
	"time"

	"github.com/Rithvik985/situated-learning-api/internal/models"
)

// EvaluateRequest scores a set of processed submissions against a rubric.
type EvaluateRequest struct {
	AssignmentID  string   `json:"assignment_id" validate:"required,uuid"`
	RubricID      string   `json:"rubric_id" validate:"required,uuid"`
	SubmissionIDs []string `json:"submission_ids" validate:"required,min=1,dive,uuid"`
}

// CriterionResultResponse serializes one scored rubric question.
type CriterionResultResponse struct {
	Question  string  `json:"question"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// DimensionResultResponse serializes one scored rubric category.
type DimensionResultResponse struct {
	Category   string                    `json:"category"`
	Score      float64                   `json:"score"`
	MaxScore   float64                   `json:"max_score"`
	Percentage float64                   `json:"percentage"`
	Feedback   string                    `json:"feedback"`
	Criteria   []CriterionResultResponse `json:"criteria"`
}

// EvaluationResponse is the serialized evaluation returned to API clients.
type EvaluationResponse struct {
	ID                string                    `json:"id"`
	SubmissionID      string                    `json:"submission_id"`
	AssignmentID      string                    `json:"assignment_id"`
	RubricID          string                    `json:"rubric_id"`
	OverallScore      float64                   `json:"overall_score"`
	MaxScore          float64                   `json:"max_score"`
	OverallFeedback   string                    `json:"overall_feedback"`
	Dimensions        []DimensionResultResponse `json:"dimensions"`
	FacultyReviewed   bool                      `json:"faculty_reviewed"`
	FacultyFeedback   string                    `json:"faculty_feedback"`
	ScoreAdjustment   float64                   `json:"score_adjustment"`
	IsFinalized       bool                      `json:"is_finalized"`
	FinalScore        *float64                  `json:"final_score"`
	FinalFeedback     string                    `json:"final_feedback"`
	EvaluationEngine  string                    `json:"evaluation_engine"`
	ProcessingSeconds float64                   `json:"processing_seconds"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// NewEvaluationResponse converts a model into a DTO.
func NewEvaluationResponse(model models.Evaluation) EvaluationResponse {
	dimensions := model.DimensionList()
	payload := make([]DimensionResultResponse, 0, len(dimensions))
	for _, dimension := range dimensions {
		criteria := make([]CriterionResultResponse, 0, len(dimension.Criteria))
		for _, criterion := range dimension.Criteria {
			criteria = append(criteria, CriterionResultResponse{
				Question:  criterion.Question,
				Score:     criterion.Score,
				Reasoning: criterion.Reasoning,
			})
		}
		payload = append(payload, DimensionResultResponse{
			Category:   dimension.Category,
			Score:      dimension.Score,
			MaxScore:   dimension.MaxScore,
			Percentage: dimension.Percentage,
			Feedback:   dimension.Feedback,
			Criteria:   criteria,
		})
	}

	return EvaluationResponse{
		ID:                model.ID,
		SubmissionID:      model.SubmissionID,
		AssignmentID:      model.AssignmentID,
		RubricID:          model.RubricID,
		OverallScore:      model.OverallScore,
		MaxScore:          model.MaxScore(),
		OverallFeedback:   model.OverallFeedback,
		Dimensions:        payload,
		FacultyReviewed:   model.FacultyReviewed,
		FacultyFeedback:   model.FacultyFeedback,
		ScoreAdjustment:   model.ScoreAdjustment,
		IsFinalized:       model.IsFinalized,
		FinalScore:        model.FinalScore,
		FinalFeedback:     model.FinalFeedback,
		EvaluationEngine:  model.EvaluationEngine,
		ProcessingSeconds: model.ProcessingSeconds,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}

// NewEvaluationResponseSlice converts a slice of models into DTOs.
func NewEvaluationResponseSlice(evaluations []models.Evaluation) []EvaluationResponse {
	responses := make([]EvaluationResponse, 0, len(evaluations))
	for _, evaluation := range evaluations {
		responses = append(responses, NewEvaluationResponse(evaluation))
	}

	return responses
}

// ScoreAdjustmentPayload nudges one criterion score by a signed delta.
type ScoreAdjustmentPayload struct {
	DimensionIndex int     `json:"dimension_index" validate:"gte=0"`
	CriterionIndex int     `json:"criterion_index" validate:"gte=0"`
	Delta          float64 `json:"delta" validate:"required"`
}

// ReviewRequest is the phase-one faculty review payload for one submission.
type ReviewRequest struct {
	AdjustedScores      []ScoreAdjustmentPayload `json:"adjusted_scores" validate:"omitempty,dive"`
	FacultyFeedback     string                   `json:"faculty_feedback" validate:"omitempty"`
	ReasonForAdjustment string                   `json:"reason_for_adjustment" validate:"omitempty"`
}

// FinalizeRequest is the phase-two payload that freezes an evaluation.
type FinalizeRequest struct {
	SubmissionID  string  `json:"submission_id" validate:"required,uuid"`
	FinalMarks    float64 `json:"final_marks" validate:"gte=0"`
	FinalFeedback string  `json:"final_feedback" validate:"omitempty"`
}

// DetectionResponse relays the AI-content analysis for one submission.
type DetectionResponse struct {
	SubmissionID       string      `json:"submission_id"`
	AIDetectionResults interface{} `json:"ai_detection_results"`
	RiskAssessment     interface{} `json:"risk_assessment"`
	Recommendations    interface{} `json:"recommendations"`
	SubmissionStats    interface{} `json:"submission_stats"`
}
