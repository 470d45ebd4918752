package dto

import (
	"time"

	"github.com/Rithvik985/situated-learning-api/internal/models"
)

// GenerateAssignmentsRequest describes the payload that starts a progressive
// generation run.
type GenerateAssignmentsRequest struct {
	CourseName   string   `json:"course_name" validate:"required,min=3"`
	CourseCode   string   `json:"course_code" validate:"required,min=2"`
	AcademicYear string   `json:"academic_year" validate:"required"`
	Semester     int      `json:"semester" validate:"required,gte=1,lte=8"`
	Topics       []string `json:"topics" validate:"required,min=1,dive,min=2"`
	Domains      []string `json:"domains" validate:"required,min=1,dive,min=2"`
	Description  string   `json:"description" validate:"omitempty"`
}

// AssignmentEditRequest updates a generated assignment's text. A reason is
// required; the edit swaps the AI-Generated tag for Modified and bumps the
// version.
type AssignmentEditRequest struct {
	Title           string `json:"title" validate:"required,min=3"`
	Description     string `json:"description" validate:"required,min=10"`
	ReasonForChange string `json:"reason_for_change" validate:"required,min=3"`
}

// SaveAssignmentsRequest names a generated batch and marks one assignment as
// the working selection.
type SaveAssignmentsRequest struct {
	AssignmentName       string   `json:"assignment_name" validate:"required,min=3"`
	CourseID             string   `json:"course_id" validate:"required,uuid"`
	AssignmentIDs        []string `json:"assignment_ids" validate:"required,min=1,dive,uuid"`
	SelectedAssignmentID string   `json:"selected_assignment_id" validate:"required,uuid"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID              string    `json:"id"`
	CourseID        string    `json:"course_id"`
	AssignmentName  string    `json:"assignment_name"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DifficultyLevel string    `json:"difficulty_level"`
	Topics          []string  `json:"topics"`
	Domains         []string  `json:"domains"`
	Tags            []string  `json:"tags"`
	Version         int       `json:"version"`
	IsSelected      bool      `json:"is_selected"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:              model.ID,
		CourseID:        model.CourseID,
		AssignmentName:  model.AssignmentName,
		Title:           model.Title,
		Description:     model.Description,
		DifficultyLevel: model.DifficultyLevel,
		Topics:          model.TopicList(),
		Domains:         model.DomainList(),
		Tags:            model.TagList(),
		Version:         model.Version,
		IsSelected:      model.IsSelected,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}

// CourseResponse summarizes a course for the step-one listing.
type CourseResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CourseCode   string    `json:"course_code"`
	AcademicYear string    `json:"academic_year"`
	Semester     int       `json:"semester"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewCourseResponse converts a model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	return CourseResponse{
		ID:           model.ID,
		Title:        model.Title,
		CourseCode:   model.CourseCode,
		AcademicYear: model.AcademicYear,
		Semester:     model.Semester,
		CreatedAt:    model.CreatedAt,
	}
}

// NewCourseResponseSlice converts a slice of models into DTOs.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}

	return responses
}
