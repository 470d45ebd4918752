package dto

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Rithvik985/situated-learning-api/internal/workflow"
)

// CommandRequest is the tagged wire form of a workflow command: a type
// discriminator plus the command's own fields as the payload.
type CommandRequest struct {
	Type    string          `json:"type" validate:"required"`
	Payload json.RawMessage `json:"payload"`
}

// Decode converts the wire form into a typed workflow command.
func (r CommandRequest) Decode() (workflow.Command, error) {
	payload := r.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	switch r.Type {
	case "go_to_step":
		var cmd workflow.GoToStep
		return cmd, json.Unmarshal(payload, &cmd)
	case "select_course":
		var cmd workflow.SelectCourse
		return cmd, json.Unmarshal(payload, &cmd)
	case "select_assignment":
		var cmd workflow.SelectAssignment
		return cmd, json.Unmarshal(payload, &cmd)
	case "select_rubric":
		var cmd workflow.SelectRubric
		return cmd, json.Unmarshal(payload, &cmd)
	case "add_files":
		var cmd workflow.AddFiles
		return cmd, json.Unmarshal(payload, &cmd)
	case "remove_file":
		var cmd workflow.RemoveFile
		return cmd, json.Unmarshal(payload, &cmd)
	case "submit_files":
		return workflow.SubmitFiles{}, nil
	case "apply_uploads":
		var cmd workflow.ApplyUploads
		return cmd, json.Unmarshal(payload, &cmd)
	case "begin_generation":
		return workflow.BeginGenerationRound{}, nil
	case "begin_evaluation":
		return workflow.BeginEvaluationRound{}, nil
	case "record_evaluations":
		var cmd workflow.RecordEvaluations
		return cmd, json.Unmarshal(payload, &cmd)
	case "start_edit":
		var cmd workflow.StartEdit
		return cmd, json.Unmarshal(payload, &cmd)
	case "cancel_edit":
		var cmd workflow.CancelEdit
		return cmd, json.Unmarshal(payload, &cmd)
	case "record_review":
		var cmd workflow.RecordReview
		return cmd, json.Unmarshal(payload, &cmd)
	case "complete_step":
		var cmd workflow.CompleteStep
		return cmd, json.Unmarshal(payload, &cmd)
	default:
		return nil, fmt.Errorf("unknown command type %q", r.Type)
	}
}

// QueuedFileResponse serializes one queued submission file.
type QueuedFileResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SizeBytes      int64  `json:"size_bytes"`
	MimeCategory   string `json:"mime_category"`
	Status         string `json:"status"`
	ServerAssigned bool   `json:"server_assigned"`
}

// SessionResponse exposes the workflow session state to API clients.
type SessionResponse struct {
	ID             string               `json:"id"`
	CurrentStep    int                  `json:"current_step"`
	CompletedSteps []int                `json:"completed_steps"`
	CourseID       string               `json:"course_id"`
	AssignmentID   string               `json:"assignment_id"`
	RubricID       string               `json:"rubric_id"`
	Files          []QueuedFileResponse `json:"files"`
	EvaluationIDs  []string             `json:"evaluation_ids"`

	// Round counters. A client starting an evaluation round attaches the
	// current evaluation epoch to its record_evaluations command; results
	// from a superseded round are discarded.
	GenerationEpoch int `json:"generation_epoch"`
	EvaluationEpoch int `json:"evaluation_epoch"`
}

// NewSessionResponse converts a session into its wire form.
func NewSessionResponse(session *workflow.Session) SessionResponse {
	completed := make([]int, 0, len(session.Completed))
	for step, done := range session.Completed {
		if done {
			completed = append(completed, step)
		}
	}
	sort.Ints(completed)

	files := make([]QueuedFileResponse, 0, len(session.Files))
	for _, file := range session.Files {
		files = append(files, QueuedFileResponse{
			ID:             file.ID,
			Name:           file.Name,
			SizeBytes:      file.SizeBytes,
			MimeCategory:   file.MimeCategory,
			Status:         file.Status,
			ServerAssigned: file.ServerAssigned,
		})
	}

	return SessionResponse{
		ID:              session.ID,
		CurrentStep:     session.CurrentStep,
		CompletedSteps:  completed,
		CourseID:        session.CourseID,
		AssignmentID:    session.AssignmentID,
		RubricID:        session.RubricID,
		Files:           files,
		EvaluationIDs:   session.EvaluationIDs,
		GenerationEpoch: session.GenerationEpoch,
		EvaluationEpoch: session.EvaluationEpoch,
	}
}
