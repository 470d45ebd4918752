// Package rubric decides whether a rubric edit may be persisted and what
// payload to attach. Structural edits (any change to the ordered
// category/question content) demand a justification; name and doc-type
// changes are cosmetic metadata and do not mark the document as edited.
package rubric

import (
	"errors"
	"strings"

	"github.com/Rithvik985/situated-learning-api/internal/models"
)

// EditKind classifies the difference between a rubric and its edited copy.
type EditKind int

const (
	// EditNone means nothing differs; the edit is not submittable.
	EditNone EditKind = iota
	// EditCosmetic means only the name or doc type changed.
	EditCosmetic
	// EditStructural means the category/question content changed.
	EditStructural
)

func (k EditKind) String() string {
	switch k {
	case EditCosmetic:
		return "cosmetic"
	case EditStructural:
		return "structural"
	default:
		return "none"
	}
}

var (
	// ErrNoChanges indicates the edited copy is identical to the original.
	ErrNoChanges = errors.New("rubric has no changes to save")
	// ErrJustificationRequired indicates a structural edit without a reason.
	ErrJustificationRequired = errors.New("a justification is required for structural rubric changes")
)

// UpdatePayload is the versioned update sent to the persistence layer. The
// version itself is advanced there, never computed here.
type UpdatePayload struct {
	RubricName     string                  `json:"rubric_name"`
	DocType        string                  `json:"doc_type"`
	Categories     []models.RubricCategory `json:"rubrics"`
	ReasonForEdit  string                  `json:"reason_for_edit"`
	NameOnlyChange bool                    `json:"name_only_change"`
}

// Classify compares an original rubric against its edited copy.
func Classify(original, edited models.Rubric) EditKind {
	if !equalCategories(original.CategoryList(), edited.CategoryList()) {
		return EditStructural
	}
	if original.Name != edited.Name || original.DocType != edited.DocType {
		return EditCosmetic
	}
	return EditNone
}

// PrepareUpdate validates the edit and builds the update payload. The
// justification is mandatory for structural edits and optional otherwise;
// blank reasons are rejected here so no persistence call is ever attempted
// for them.
func PrepareUpdate(original, edited models.Rubric, reason string) (UpdatePayload, error) {
	kind := Classify(original, edited)
	if kind == EditNone {
		return UpdatePayload{}, ErrNoChanges
	}

	reason = strings.TrimSpace(reason)
	if kind == EditStructural && reason == "" {
		return UpdatePayload{}, ErrJustificationRequired
	}

	return UpdatePayload{
		RubricName:     edited.Name,
		DocType:        edited.DocType,
		Categories:     edited.CategoryList(),
		ReasonForEdit:  reason,
		NameOnlyChange: kind == EditCosmetic,
	}, nil
}

func equalCategories(a, b []models.RubricCategory) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			return false
		}
		if len(a[i].Questions) != len(b[i].Questions) {
			return false
		}
		for j := range a[i].Questions {
			if a[i].Questions[j] != b[i].Questions[j] {
				return false
			}
		}
	}
	return true
}
