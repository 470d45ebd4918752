package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// RubricCategory is one scored dimension of a rubric: a name plus an ordered
// list of evaluation questions. Each question is scored 1-4 during evaluation.
type RubricCategory struct {
	Name      string   `json:"category"`
	Questions []string `json:"questions"`
}

// Rubric is an evaluation rubric attached to one or more assignments. The
// ordered category sequence is the structural content; name and doc type are
// metadata only.
type Rubric struct {
	ID            string         `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentIDs datatypes.JSON `json:"assignment_ids"`
	Name          string         `gorm:"size:255;not null" json:"rubric_name"`
	DocType       string         `gorm:"size:128" json:"doc_type"`
	Categories    datatypes.JSON `json:"categories"`
	IsEdited      bool           `gorm:"not null;default:false" json:"is_edited"`
	ReasonForEdit string         `gorm:"type:text" json:"reason_for_edit"`
	Version       int            `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// CategoryList decodes the stored category sequence, preserving order.
func (r Rubric) CategoryList() []RubricCategory {
	if len(r.Categories) == 0 {
		return nil
	}
	var categories []RubricCategory
	if err := json.Unmarshal(r.Categories, &categories); err != nil {
		return nil
	}
	return categories
}

// SetCategories replaces the stored category sequence.
func (r *Rubric) SetCategories(categories []RubricCategory) {
	if categories == nil {
		categories = []RubricCategory{}
	}
	raw, _ := json.Marshal(categories)
	r.Categories = datatypes.JSON(raw)
}

// AssignmentIDList decodes the linked assignment ids.
func (r Rubric) AssignmentIDList() []string {
	return decodeStringSlice(r.AssignmentIDs)
}

// CriterionCount is the total number of questions across all categories.
func (r Rubric) CriterionCount() int {
	count := 0
	for _, category := range r.CategoryList() {
		count += len(category.Questions)
	}
	return count
}

// MaxScore is the maximum achievable overall score for this rubric. The scale
// is derived from the rubric itself (questions x 4) rather than a fixed bound.
func (r Rubric) MaxScore() float64 {
	return float64(r.CriterionCount()) * CriterionMaxScore
}
