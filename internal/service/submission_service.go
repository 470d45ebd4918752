package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Rithvik985/situated-learning-api/internal/dto"
	"github.com/Rithvik985/situated-learning-api/internal/models"
	"github.com/Rithvik985/situated-learning-api/internal/repository"
	"github.com/Rithvik985/situated-learning-api/internal/workflow"
	"github.com/Rithvik985/situated-learning-api/pkg/detect"
	"github.com/Rithvik985/situated-learning-api/pkg/extract"
	"github.com/Rithvik985/situated-learning-api/pkg/storage"
)

// Service-level submission errors surfaced to handlers.
var (
	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrSubmissionNotProcessed = errors.New("submission has no extracted text")
)

// UploadFile is one file received in an upload batch.
type UploadFile struct {
	Name    string
	Content []byte
}

// SubmissionService handles submission uploads, extraction and AI-content
// detection.
type SubmissionService interface {
	Upload(ctx context.Context, assignmentID string, files []UploadFile) ([]dto.SubmissionResponse, error)
	List(ctx context.Context, filter repository.SubmissionFilter) ([]dto.SubmissionResponse, error)
	DetectAI(ctx context.Context, submissionID string) (dto.DetectionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	files       storage.FileStorage
	extractor   extract.Extractor
	detector    detect.Detector
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewSubmissionService builds the submission service.
func NewSubmissionService(submissions repository.SubmissionRepository, assignments repository.AssignmentRepository, files storage.FileStorage, extractor extract.Extractor, detector detect.Detector, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		assignments: assignments,
		files:       files,
		extractor:   extractor,
		detector:    detector,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
	}
}

// Upload validates the whole batch before touching storage, then stores and
// extracts each file. Extraction failures mark the individual submission
// failed rather than aborting the batch.
func (s *submissionService) Upload(ctx context.Context, assignmentID string, files []UploadFile) ([]dto.SubmissionResponse, error) {
	if _, err := s.assignments.GetByID(ctx, assignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	if len(files) == 0 {
		return nil, errors.New("no files in upload batch")
	}
	if len(files) > workflow.MaxQueuedFiles {
		return nil, workflow.ErrTooManyFiles
	}

	categories := make([]string, len(files))
	for i, file := range files {
		category, err := workflow.DetectCategory(file.Content, file.Name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file.Name, err)
		}
		categories[i] = category
	}

	responses := make([]dto.SubmissionResponse, 0, len(files))
	for i, file := range files {
		submission, err := s.processFile(ctx, assignmentID, file, categories[i])
		if err != nil {
			return nil, err
		}
		responses = append(responses, dto.NewSubmissionResponse(submission))
	}

	s.logger.Info().Str("assignment_id", assignmentID).Int("count", len(responses)).Msg("submission batch uploaded")
	return responses, nil
}

func (s *submissionService) processFile(ctx context.Context, assignmentID string, file UploadFile, category string) (models.Submission, error) {
	id := uuid.NewString()
	storagePath := path.Join(assignmentID, id+"_"+file.Name)

	location, err := s.files.Upload(ctx, storagePath, bytes.NewReader(file.Content))
	if err != nil {
		return models.Submission{}, fmt.Errorf("store %s: %w", file.Name, err)
	}

	submission := models.Submission{
		ID:           id,
		AssignmentID: assignmentID,
		FileName:     file.Name,
		FilePath:     location,
		FileType:     category,
		SizeBytes:    int64(len(file.Content)),
		Status:       models.SubmissionStatusUploading,
	}

	result, err := s.extractor.Extract(ctx, file.Name, file.Content)
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Str("file", file.Name).Msg("text extraction failed")
		submission.Status = models.SubmissionStatusFailed
	case !result.Succeeded():
		s.logger.Warn().Str("file", file.Name).Str("detail", result.ErrorMessage).Msg("text extraction rejected file")
		submission.Status = models.SubmissionStatusFailed
	default:
		submission.Status = models.SubmissionStatusProcessed
		submission.ExtractionMethod = result.Method
		submission.OCRConfidence = result.Confidence
		submission.ExtractedText = strings.TrimSpace(s.sanitizer.Sanitize(result.ExtractedText))
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (s *submissionService) List(ctx context.Context, filter repository.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

// DetectAI runs AI-content analysis on a processed submission and stores the
// outcome alongside it.
func (s *submissionService) DetectAI(ctx context.Context, submissionID string) (dto.DetectionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DetectionResponse{}, ErrSubmissionNotFound
		}
		return dto.DetectionResponse{}, err
	}

	if !submission.IsProcessed() || submission.ExtractedText == "" {
		return dto.DetectionResponse{}, ErrSubmissionNotProcessed
	}

	analysis, err := s.detector.Analyze(ctx, submission.ExtractedText)
	if err != nil {
		return dto.DetectionResponse{}, err
	}

	if raw, err := json.Marshal(analysis); err == nil {
		submission.DetectionResults = datatypes.JSON(raw)
		if err := s.submissions.Update(ctx, &submission); err != nil {
			s.logger.Warn().Err(err).Str("submission_id", submissionID).Msg("failed to store detection results")
		}
	}

	return dto.DetectionResponse{
		SubmissionID:       submission.ID,
		AIDetectionResults: analysis.DetectionResults,
		RiskAssessment:     analysis.RiskAssessment,
		Recommendations:    analysis.Recommendations,
		SubmissionStats:    analysis.SubmissionStats,
	}, nil
}
