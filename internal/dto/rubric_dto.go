package dto

import (
	"time"

	"github.com/Rithvik985/situated-learning-api/internal/models"
)

// RubricCategoryPayload carries one rubric category over the wire. The JSON
// field names follow the stored rubric document.
type RubricCategoryPayload struct {
	Category  string   `json:"category" validate:"required,min=2"`
	Questions []string `json:"questions" validate:"required,min=1,dive,min=3"`
}

// RubricGenerateRequest asks for an AI-drafted rubric covering the given
// assignments.
type RubricGenerateRequest struct {
	AssignmentIDs []string `json:"assignment_ids" validate:"required,min=1,dive,uuid"`
	DocType       string   `json:"doc_type" validate:"omitempty,min=2"`
}

// RubricUpdateRequest carries an edited rubric. Structural edits require a
// reason; name-only changes set the flag and leave the content untouched
// server-side.
type RubricUpdateRequest struct {
	RubricName     string                  `json:"rubric_name" validate:"required,min=2"`
	DocType        string                  `json:"doc_type" validate:"omitempty"`
	Criteria       []RubricCategoryPayload `json:"rubrics" validate:"required,min=1,dive"`
	ReasonForEdit  string                  `json:"reason_for_edit" validate:"omitempty"`
	NameOnlyChange bool                    `json:"name_only_change"`
}

// Categories converts the payload into the model category representation.
func (r RubricUpdateRequest) Categories() []models.RubricCategory {
	categories := make([]models.RubricCategory, 0, len(r.Criteria))
	for _, payload := range r.Criteria {
		categories = append(categories, models.RubricCategory{
			Name:      payload.Category,
			Questions: payload.Questions,
		})
	}
	return categories
}

// RubricResponse is the serialized rubric returned to API clients.
type RubricResponse struct {
	ID            string                  `json:"id"`
	AssignmentIDs []string                `json:"assignment_ids"`
	RubricName    string                  `json:"rubric_name"`
	DocType       string                  `json:"doc_type"`
	Criteria      []RubricCategoryPayload `json:"rubrics"`
	IsEdited      bool                    `json:"is_edited"`
	ReasonForEdit string                  `json:"reason_for_edit"`
	Version       int                     `json:"version"`
	MaxScore      float64                 `json:"max_score"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// NewRubricResponse converts a model into a DTO.
func NewRubricResponse(model models.Rubric) RubricResponse {
	categories := model.CategoryList()
	criteria := make([]RubricCategoryPayload, 0, len(categories))
	for _, category := range categories {
		criteria = append(criteria, RubricCategoryPayload{
			Category:  category.Name,
			Questions: category.Questions,
		})
	}

	return RubricResponse{
		ID:            model.ID,
		AssignmentIDs: model.AssignmentIDList(),
		RubricName:    model.Name,
		DocType:       model.DocType,
		Criteria:      criteria,
		IsEdited:      model.IsEdited,
		ReasonForEdit: model.ReasonForEdit,
		Version:       model.Version,
		MaxScore:      model.MaxScore(),
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewRubricResponseSlice converts a slice of models into DTOs.
func NewRubricResponseSlice(rubrics []models.Rubric) []RubricResponse {
	responses := make([]RubricResponse, 0, len(rubrics))
	for _, rubric := range rubrics {
		responses = append(responses, NewRubricResponse(rubric))
	}

	return responses
}
