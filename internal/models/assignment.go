package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Assignment tags applied by the generation and edit flows.
const (
	AssignmentTagGenerated = "AI-Generated"
	AssignmentTagModified  = "Modified"
)

// Assignment is a generated assignment variant. Assignments are never
// deleted; edits bump the version counter and supersede the previous text.
type Assignment struct {
	ID              string         `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID        string         `gorm:"type:uuid;not null;index" json:"course_id"`
	AssignmentName  string         `gorm:"size:255" json:"assignment_name"`
	Title           string         `gorm:"size:512;not null" json:"title"`
	Description     string         `gorm:"type:text" json:"description"`
	DifficultyLevel string         `gorm:"size:32;not null" json:"difficulty_level"`
	Topics          datatypes.JSON `json:"topics"`
	Domains         datatypes.JSON `json:"domains"`
	Tags            datatypes.JSON `json:"tags"`
	Version         int            `gorm:"not null;default:1" json:"version"`
	IsSelected      bool           `gorm:"not null;default:false" json:"is_selected"`
	ReasonForChange string         `gorm:"type:text" json:"reason_for_change"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Course          Course         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// TagList decodes the stored tag set.
func (a Assignment) TagList() []string {
	return decodeStringSlice(a.Tags)
}

// TopicList decodes the stored topics.
func (a Assignment) TopicList() []string {
	return decodeStringSlice(a.Topics)
}

// DomainList decodes the stored domains.
func (a Assignment) DomainList() []string {
	return decodeStringSlice(a.Domains)
}

// MarkModified swaps the generated tag for the modified tag and bumps the
// version. Called on every edit-with-reason.
func (a *Assignment) MarkModified(reason string) {
	tags := a.TagList()
	next := make([]string, 0, len(tags)+1)
	for _, tag := range tags {
		if tag != AssignmentTagGenerated {
			next = append(next, tag)
		}
	}

	seen := false
	for _, tag := range next {
		if tag == AssignmentTagModified {
			seen = true
			break
		}
	}
	if !seen {
		next = append(next, AssignmentTagModified)
	}

	a.Tags = EncodeStringSlice(next)
	a.ReasonForChange = reason
	a.Version++
}

// EncodeStringSlice marshals a string slice into a JSON column value.
func EncodeStringSlice(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	raw, _ := json.Marshal(values)
	return datatypes.JSON(raw)
}

func decodeStringSlice(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	return values
}
