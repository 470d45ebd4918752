package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Criterion scoring bounds. Every rubric question is scored on the same
// 1-4 scale; a dimension's maximum is its question count times 4.
const (
	CriterionMinScore = 1.0
	CriterionMaxScore = 4.0
)

// CriterionResult is the smallest scored unit: one rubric question with its
// awarded score and the evaluator's reasoning.
type CriterionResult struct {
	Question  string  `json:"question"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// DimensionResult aggregates the criterion results of one rubric category.
// Score is always the sum of the criterion scores and MaxScore is
// criterion count x 4; the aggregator keeps both in step on every adjustment.
type DimensionResult struct {
	Category   string            `json:"category"`
	Score      float64           `json:"score"`
	MaxScore   float64           `json:"max_score"`
	Percentage float64           `json:"percentage"`
	Feedback   string            `json:"feedback"`
	Criteria   []CriterionResult `json:"criteria"`
}

// Evaluation is the stored outcome of scoring one submission against a
// rubric, including any faculty review and the finalized mark. Once
// IsFinalized is set the record is frozen.
type Evaluation struct {
	ID                string         `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID      string         `gorm:"type:uuid;not null;index" json:"submission_id"`
	AssignmentID      string         `gorm:"type:uuid;not null;index" json:"assignment_id"`
	RubricID          string         `gorm:"type:uuid;not null" json:"rubric_id"`
	OverallScore      float64        `gorm:"not null" json:"overall_score"`
	OverallFeedback   string         `gorm:"type:text" json:"overall_feedback"`
	Dimensions        datatypes.JSON `json:"dimensions"`
	FacultyReviewed   bool           `gorm:"not null;default:false" json:"faculty_reviewed"`
	FacultyFeedback   string         `gorm:"type:text" json:"faculty_feedback"`
	FacultyReason     string         `gorm:"type:text" json:"faculty_reason"`
	ScoreAdjustment   float64        `json:"score_adjustment"`
	IsFinalized       bool           `gorm:"not null;default:false" json:"is_finalized"`
	FinalScore        *float64       `json:"final_score"`
	FinalFeedback     string         `gorm:"type:text" json:"final_feedback"`
	EvaluationEngine  string         `gorm:"size:64" json:"evaluation_engine"`
	ProcessingSeconds float64        `json:"processing_seconds"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	Submission        Submission     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// DimensionList decodes the stored dimension results, preserving order.
func (e Evaluation) DimensionList() []DimensionResult {
	if len(e.Dimensions) == 0 {
		return nil
	}
	var dimensions []DimensionResult
	if err := json.Unmarshal(e.Dimensions, &dimensions); err != nil {
		return nil
	}
	return dimensions
}

// SetDimensions replaces the stored dimension results.
func (e *Evaluation) SetDimensions(dimensions []DimensionResult) {
	if dimensions == nil {
		dimensions = []DimensionResult{}
	}
	raw, _ := json.Marshal(dimensions)
	e.Dimensions = datatypes.JSON(raw)
}

// MaxScore is the maximum achievable overall score given the stored
// dimensions.
func (e Evaluation) MaxScore() float64 {
	total := 0.0
	for _, dimension := range e.DimensionList() {
		total += dimension.MaxScore
	}
	return total
}
