package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission lifecycle statuses. A file is queued client-side, uploading once
// submitted, then processed or failed depending on text extraction.
const (
	SubmissionStatusQueued    = "queued"
	SubmissionStatusUploading = "uploading"
	SubmissionStatusProcessed = "processed"
	SubmissionStatusFailed    = "failed"
)

// Submission is an uploaded student submission file together with its
// extraction outcome. The server-assigned id is authoritative once created;
// the client-local id used before upload never reaches this table.
type Submission struct {
	ID               string         `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID     string         `gorm:"type:uuid;not null;index" json:"assignment_id"`
	FileName         string         `gorm:"size:512;not null" json:"file_name"`
	FilePath         string         `gorm:"size:1024" json:"file_path"`
	FileType         string         `gorm:"size:16" json:"file_type"`
	SizeBytes        int64          `json:"size_bytes"`
	Status           string         `gorm:"size:32;not null" json:"status"`
	ExtractionMethod string         `gorm:"size:64" json:"extraction_method"`
	OCRConfidence    float64        `json:"ocr_confidence"`
	ExtractedText    string         `gorm:"type:text" json:"extracted_text"`
	DetectionResults datatypes.JSON `json:"detection_results"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Assignment       Assignment     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsProcessed reports whether text extraction succeeded for this submission.
func (s Submission) IsProcessed() bool {
	return s.Status == SubmissionStatusProcessed
}
