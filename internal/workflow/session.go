// Package workflow implements the evaluation workflow core: the step-gate
// state machine over a session aggregate, the submission intake queue, and
// the command set that is the only way to mutate a session. The package does
// no I/O; services feed it commands and persist the resulting aggregate.
package workflow

import (
	"errors"

	"github.com/google/uuid"
)

// Workflow steps, in strict linear dependency order. Step k is reachable only
// while step k-1 is in the completed set.
const (
	StepCourse     = 1
	StepAssignment = 2
	StepRubric     = 3
	StepUpload     = 4
	StepEvaluate   = 5
	StepReview     = 6
	StepReport     = 7

	StepCount = 7
)

var (
	// ErrStepOutOfRange indicates a step number outside 1..StepCount.
	ErrStepOutOfRange = errors.New("workflow step out of range")
	// ErrStaleResult indicates an async result arrived for a superseded
	// operation. Callers discard it silently and log.
	ErrStaleResult = errors.New("stale result for superseded operation")
)

// PendingEdit is a staged copy of an entity's editable fields plus the
// justification attached to it. It exists only between start-edit and
// save/cancel and is never persisted directly.
type PendingEdit struct {
	EntityID      string            `json:"entity_id"`
	EntityKind    string            `json:"entity_kind"`
	Fields        map[string]string `json:"fields"`
	Justification string            `json:"justification"`
}

// Session is the explicit workflow-state aggregate: current step, completed
// set, upstream selections, the intake queue and downstream result
// references. It is passed and returned, never mutated ambiently.
type Session struct {
	ID          string `json:"id"`
	CurrentStep int    `json:"current_step"`
	Completed map[int]bool `json:"completed"`

	CourseID     string `json:"course_id"`
	AssignmentID string `json:"assignment_id"`
	RubricID     string `json:"rubric_id"`

	Files          []QueuedFile           `json:"files"`
	EvaluationIDs  []string               `json:"evaluation_ids"`
	PendingEdits   map[string]PendingEdit `json:"pending_edits"`
	Justifications map[string]string      `json:"justifications"`

	// Epochs guard against stale async responses: each generation or
	// evaluation round increments its counter, and a result is applied only
	// if it still carries the current value.
	GenerationEpoch int `json:"generation_epoch"`
	EvaluationEpoch int `json:"evaluation_epoch"`
}

// NewSession creates a fresh session positioned at step 1.
func NewSession() *Session {
	return &Session{
		ID:             uuid.NewString(),
		CurrentStep:    StepCourse,
		Completed:      make(map[int]bool),
		PendingEdits:   make(map[string]PendingEdit),
		Justifications: make(map[string]string),
	}
}

// Reachable reports whether the given step may become the current step.
func (s *Session) Reachable(step int) bool {
	if step < 1 || step > StepCount {
		return false
	}
	if step == 1 {
		return true
	}
	return s.Completed[step-1]
}

// Complete marks a step done. Completion only ever adds to the set.
func (s *Session) Complete(step int) error {
	if step < 1 || step > StepCount {
		return ErrStepOutOfRange
	}
	s.Completed[step] = true
	return nil
}

// GoTo changes the active step. Navigating to a step whose predecessor is
// incomplete is a no-op, not an error; callers check Reachable first when
// they need to distinguish. Changing the active step never touches data.
func (s *Session) GoTo(step int) {
	if !s.Reachable(step) {
		return
	}
	s.CurrentStep = step
}

// Invalidate removes every step >= from out of the completed set and clears
// the collections that depend on the invalidated steps, so stale results are
// never presented against a changed input. Epochs of the affected concerns
// advance, which turns any round still in flight into a stale one.
func (s *Session) Invalidate(from int) {
	for step := from; step <= StepCount; step++ {
		delete(s.Completed, step)
	}
	if from <= StepAssignment {
		s.GenerationEpoch++
	}
	if from <= StepEvaluate {
		s.EvaluationIDs = nil
		s.Justifications = make(map[string]string)
		s.PendingEdits = make(map[string]PendingEdit)
		s.EvaluationEpoch++
	}
	if s.CurrentStep >= from && from > 1 {
		s.CurrentStep = from - 1
	}
}

// SelectCourse records the course choice, completes step 1 and invalidates
// everything downstream of it. An empty ID clears the selection instead and
// leaves the step incomplete.
func (s *Session) SelectCourse(courseID string) {
	if s.CourseID == courseID {
		return
	}
	s.CourseID = courseID
	s.AssignmentID = ""
	s.RubricID = ""
	s.Files = nil
	s.Invalidate(StepAssignment)
	if courseID == "" {
		delete(s.Completed, StepCourse)
		return
	}
	s.Completed[StepCourse] = true
}

// SelectAssignment records the assignment choice and invalidates the rubric
// and everything after it. An empty ID clears the selection instead.
func (s *Session) SelectAssignment(assignmentID string) {
	if s.AssignmentID == assignmentID {
		return
	}
	s.AssignmentID = assignmentID
	s.RubricID = ""
	s.Files = nil
	s.Invalidate(StepRubric)
	if assignmentID == "" {
		delete(s.Completed, StepAssignment)
		return
	}
	s.Completed[StepAssignment] = true
}

// SelectRubric records the rubric choice and invalidates upload onwards. An
// empty ID clears the selection instead.
func (s *Session) SelectRubric(rubricID string) {
	if s.RubricID == rubricID {
		return
	}
	s.RubricID = rubricID
	s.Invalidate(StepUpload)
	if rubricID == "" {
		delete(s.Completed, StepRubric)
		return
	}
	s.Completed[StepRubric] = true
}

// BeginEvaluation opens a new evaluation round and returns its epoch. Any
// in-flight result from an earlier round becomes stale.
func (s *Session) BeginEvaluation() int {
	s.EvaluationEpoch++
	return s.EvaluationEpoch
}

// RecordEvaluations applies the results of an evaluation round. A result
// from a superseded round is refused with ErrStaleResult and must be
// discarded by the caller.
func (s *Session) RecordEvaluations(epoch int, evaluationIDs []string) error {
	if epoch != s.EvaluationEpoch {
		return ErrStaleResult
	}
	s.EvaluationIDs = append([]string(nil), evaluationIDs...)
	s.Completed[StepEvaluate] = true
	return nil
}

// BeginGeneration opens a new generation round and returns its epoch.
func (s *Session) BeginGeneration() int {
	s.GenerationEpoch++
	return s.GenerationEpoch
}

// GenerationCurrent reports whether the given epoch is still the active one.
func (s *Session) GenerationCurrent(epoch int) bool {
	return epoch == s.GenerationEpoch
}

// StartEdit stages a pending edit for an entity.
func (s *Session) StartEdit(edit PendingEdit) {
	if s.PendingEdits == nil {
		s.PendingEdits = make(map[string]PendingEdit)
	}
	s.PendingEdits[edit.EntityID] = edit
}

// FinishEdit drops the staged edit for an entity, on save or cancel alike.
func (s *Session) FinishEdit(entityID string) {
	delete(s.PendingEdits, entityID)
}

// RecordJustification stores the review justification for a submission.
func (s *Session) RecordJustification(submissionID, reason string) {
	if s.Justifications == nil {
		s.Justifications = make(map[string]string)
	}
	s.Justifications[submissionID] = reason
}
