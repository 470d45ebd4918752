package workflow

import "fmt"

// Command is the tagged union of session mutations. Every mutation path
// funnels through Session.Apply, decoupling the state machine from whatever
// delivered the action.
type Command interface {
	commandName() string
}

// GoToStep changes the active step; a no-op when unreachable.
type GoToStep struct {
	Step int `json:"step"`
}

// SelectCourse chooses the course for the session.
type SelectCourse struct {
	CourseID string `json:"course_id"`
}

// SelectAssignment chooses the assignment under evaluation.
type SelectAssignment struct {
	AssignmentID string `json:"assignment_id"`
}

// SelectRubric chooses the rubric used for scoring.
type SelectRubric struct {
	RubricID string `json:"rubric_id"`
}

// AddFiles queues a batch of submission files.
type AddFiles struct {
	Files []FileMeta `json:"files"`
}

// RemoveFile drops a queued file.
type RemoveFile struct {
	FileID string `json:"file_id"`
}

// SubmitFiles transitions queued files to uploading.
type SubmitFiles struct{}

// ApplyUploads re-keys submitted files to server identities.
type ApplyUploads struct {
	Outcomes []UploadOutcome `json:"outcomes"`
}

// BeginGenerationRound opens a new generation round; any earlier round still
// in flight becomes stale.
type BeginGenerationRound struct{}

// BeginEvaluationRound opens a new evaluation round; any earlier round still
// in flight becomes stale. The session's evaluation epoch after this command
// is the value a later RecordEvaluations must carry.
type BeginEvaluationRound struct{}

// RecordEvaluations attaches the evaluation results of a round; refused when
// the round has been superseded.
type RecordEvaluations struct {
	Epoch         int      `json:"epoch"`
	EvaluationIDs []string `json:"evaluation_ids"`
}

// StartEdit stages a pending edit.
type StartEdit struct {
	Edit PendingEdit `json:"edit"`
}

// CancelEdit discards a staged edit.
type CancelEdit struct {
	EntityID string `json:"entity_id"`
}

// RecordReview stores a submission's review justification and marks the
// review step complete.
type RecordReview struct {
	SubmissionID  string `json:"submission_id"`
	Justification string `json:"justification"`
}

// CompleteStep marks a step as done.
type CompleteStep struct {
	Step int `json:"step"`
}

func (GoToStep) commandName() string             { return "go_to_step" }
func (SelectCourse) commandName() string         { return "select_course" }
func (SelectAssignment) commandName() string     { return "select_assignment" }
func (SelectRubric) commandName() string         { return "select_rubric" }
func (AddFiles) commandName() string             { return "add_files" }
func (RemoveFile) commandName() string           { return "remove_file" }
func (SubmitFiles) commandName() string          { return "submit_files" }
func (ApplyUploads) commandName() string         { return "apply_uploads" }
func (BeginGenerationRound) commandName() string { return "begin_generation" }
func (BeginEvaluationRound) commandName() string { return "begin_evaluation" }
func (RecordEvaluations) commandName() string    { return "record_evaluations" }
func (StartEdit) commandName() string            { return "start_edit" }
func (CancelEdit) commandName() string           { return "cancel_edit" }
func (RecordReview) commandName() string         { return "record_review" }
func (CompleteStep) commandName() string         { return "complete_step" }

// Apply executes one command against the session.
func (s *Session) Apply(cmd Command) error {
	switch c := cmd.(type) {
	case GoToStep:
		s.GoTo(c.Step)
		return nil
	case SelectCourse:
		s.SelectCourse(c.CourseID)
		return nil
	case SelectAssignment:
		s.SelectAssignment(c.AssignmentID)
		return nil
	case SelectRubric:
		s.SelectRubric(c.RubricID)
		return nil
	case AddFiles:
		_, err := s.AddFiles(c.Files)
		return err
	case RemoveFile:
		return s.RemoveFile(c.FileID)
	case SubmitFiles:
		s.MarkUploading()
		return nil
	case ApplyUploads:
		s.ApplyUploadOutcomes(c.Outcomes)
		return nil
	case BeginGenerationRound:
		s.BeginGeneration()
		return nil
	case BeginEvaluationRound:
		s.BeginEvaluation()
		return nil
	case RecordEvaluations:
		return s.RecordEvaluations(c.Epoch, c.EvaluationIDs)
	case StartEdit:
		s.StartEdit(c.Edit)
		return nil
	case CancelEdit:
		s.FinishEdit(c.EntityID)
		return nil
	case RecordReview:
		s.RecordJustification(c.SubmissionID, c.Justification)
		return nil
	case CompleteStep:
		return s.Complete(c.Step)
	default:
		return fmt.Errorf("unknown workflow command %T", cmd)
	}
}
