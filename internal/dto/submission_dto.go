package dto

import (
	"time"

	"github.com/Rithvik985/situated-learning-api/internal/models"
)

// Extracted text previews are truncated to keep upload responses small; the
// full text stays server-side for evaluation.
const extractedTextPreviewLimit = 500

// SubmissionResponse describes one uploaded file and its extraction outcome.
type SubmissionResponse struct {
	ID               string    `json:"id"`
	AssignmentID     string    `json:"assignment_id"`
	FileName         string    `json:"file_name"`
	FilePath         string    `json:"file_path"`
	FileType         string    `json:"file_type"`
	SizeBytes        int64     `json:"size_bytes"`
	ProcessingStatus string    `json:"processing_status"`
	ExtractionMethod string    `json:"extraction_method"`
	OCRConfidence    float64   `json:"ocr_confidence"`
	ExtractedText    string    `json:"extracted_text"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewSubmissionResponse converts a model into a DTO, truncating the extracted
// text to a preview.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	preview := model.ExtractedText
	if len(preview) > extractedTextPreviewLimit {
		preview = preview[:extractedTextPreviewLimit] + "..."
	}

	return SubmissionResponse{
		ID:               model.ID,
		AssignmentID:     model.AssignmentID,
		FileName:         model.FileName,
		FilePath:         model.FilePath,
		FileType:         model.FileType,
		SizeBytes:        model.SizeBytes,
		ProcessingStatus: model.Status,
		ExtractionMethod: model.ExtractionMethod,
		OCRConfidence:    model.OCRConfidence,
		ExtractedText:    preview,
		CreatedAt:        model.CreatedAt,
	}
}

// NewSubmissionResponseSlice converts a slice of models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
