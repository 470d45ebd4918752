package ai

import (
	"context"
	"encoding/json"
)

// AssignmentRequest describes one assignment variant to generate.
type AssignmentRequest struct {
	CourseName         string
	Topics             []string
	Domains            []string
	DifficultyLevel    string
	CustomInstructions string
	FewShotExamples    []string
}

// GeneratedAssignment is the raw assignment produced by the model.
type GeneratedAssignment struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// RubricRequest asks for a rubric covering the given assignment text.
type RubricRequest struct {
	Text    string
	DocType string
}

// RubricCategory is one rubric dimension with its evaluation questions.
type RubricCategory struct {
	Category  string   `json:"category"`
	Questions []string `json:"questions"`
}

// RubricDraft is the rubric document proposed by the model.
type RubricDraft struct {
	Name       string           `json:"rubric_name"`
	DocType    string           `json:"doc_type"`
	Categories []RubricCategory `json:"rubrics"`
}

// Generator produces assignment and rubric content.
type Generator interface {
	GenerateAssignment(ctx context.Context, req AssignmentRequest) (GeneratedAssignment, error)
	GenerateRubric(ctx context.Context, req RubricRequest) (RubricDraft, error)
}

// EvaluationInput carries the artefacts needed to score one submission
// against a rubric.
type EvaluationInput struct {
	AssignmentTitle       string
	AssignmentDescription string
	SubmissionText        string
	Rubric                []RubricCategory
}

// CriterionScore is one rubric question scored on the 1-4 scale.
type CriterionScore struct {
	Question  string  `json:"question"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// DimensionScore groups the criterion scores of one rubric category.
// Backends are inconsistent about field names (score vs dimension_score,
// feedback vs dimension_feedback, category vs name), so decoding normalizes
// the aliases here and the ambiguity never leaves this package.
type DimensionScore struct {
	Category string           `json:"category"`
	Feedback string           `json:"feedback"`
	Criteria []CriterionScore `json:"criteria"`
}

// EvaluationOutput is the structured scoring returned by the model. Sums and
// percentages are recomputed by the caller; only raw criterion scores,
// feedback and ordering are trusted from here.
type EvaluationOutput struct {
	Dimensions      []DimensionScore `json:"dimensions"`
	OverallFeedback string           `json:"overall_feedback"`
}

// Evaluator scores submissions against rubrics.
type Evaluator interface {
	Evaluate(ctx context.Context, input EvaluationInput) (EvaluationOutput, error)
}

// UnmarshalJSON accepts the alias field names used by older backends.
func (d *DimensionScore) UnmarshalJSON(data []byte) error {
	var raw struct {
		Category          string           `json:"category"`
		Name              string           `json:"name"`
		Feedback          string           `json:"feedback"`
		DimensionFeedback string           `json:"dimension_feedback"`
		Criteria          []CriterionScore `json:"criteria"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.Category = raw.Category
	if d.Category == "" {
		d.Category = raw.Name
	}
	d.Feedback = raw.Feedback
	if d.Feedback == "" {
		d.Feedback = raw.DimensionFeedback
	}
	d.Criteria = raw.Criteria
	return nil
}

// UnmarshalJSON accepts question/name and score/dimension_score aliases.
func (c *CriterionScore) UnmarshalJSON(data []byte) error {
	var raw struct {
		Question       string   `json:"question"`
		Name           string   `json:"name"`
		Score          *float64 `json:"score"`
		DimensionScore *float64 `json:"dimension_score"`
		Reasoning      string   `json:"reasoning"`
		Feedback       string   `json:"feedback"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Question = raw.Question
	if c.Question == "" {
		c.Question = raw.Name
	}
	switch {
	case raw.Score != nil:
		c.Score = *raw.Score
	case raw.DimensionScore != nil:
		c.Score = *raw.DimensionScore
	}
	c.Reasoning = raw.Reasoning
	if c.Reasoning == "" {
		c.Reasoning = raw.Feedback
	}
	return nil
}
