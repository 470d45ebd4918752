package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Rithvik985/situated-learning-api/internal/models"
	"github.com/Rithvik985/situated-learning-api/internal/workflow"
	"github.com/Rithvik985/situated-learning-api/pkg/detect"
	"github.com/Rithvik985/situated-learning-api/pkg/extract"
)

type submissionFixture struct {
	submissions *memorySubmissionRepo
	assignments *memoryAssignmentRepo
	storage     *stubStorage
	assignment  models.Assignment
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	f := &submissionFixture{
		submissions: newMemorySubmissionRepo(),
		assignments: newMemoryAssignmentRepo(),
		storage:     newStubStorage(),
	}
	f.assignment = models.Assignment{
		ID:       "aaaaaaaa-1111-2222-3333-444444444444",
		CourseID: "course-1",
		Title:    "Replicated log design",
	}
	require.NoError(t, f.assignments.Create(context.Background(), &f.assignment))
	return f
}

func (f *submissionFixture) service(extractor extract.Extractor, detector detect.Detector) SubmissionService {
	return NewSubmissionService(f.submissions, f.assignments, f.storage, extractor, detector, zerolog.Nop())
}

func TestUploadStoresAndExtracts(t *testing.T) {
	f := newSubmissionFixture(t)
	extractor := &stubExtractor{result: extract.Result{
		Status:        "success",
		ExtractedText: "<script>alert(1)</script>The design uses a quorum.",
		Method:        "pdfminer",
		Confidence:    0.97,
	}}
	svc := f.service(extractor, &stubDetector{})

	responses, err := svc.Upload(context.Background(), f.assignment.ID, []UploadFile{
		{Name: "report.pdf", Content: []byte("%PDF-1.7 content")},
	})
	require.NoError(t, err)
	require.Len(t, responses, 1)

	response := responses[0]
	require.Equal(t, models.SubmissionStatusProcessed, response.ProcessingStatus)
	require.Equal(t, "pdfminer", response.ExtractionMethod)
	require.Equal(t, 0.97, response.OCRConfidence)
	require.NotContains(t, response.ExtractedText, "<script>", "extracted text is sanitized")
	require.Contains(t, response.ExtractedText, "quorum")
	require.Len(t, f.storage.uploads, 1)
}

func TestUploadRejectsUnsupportedTypeBeforeStoring(t *testing.T) {
	f := newSubmissionFixture(t)
	svc := f.service(&stubExtractor{}, &stubDetector{})

	_, err := svc.Upload(context.Background(), f.assignment.ID, []UploadFile{
		{Name: "report.pdf", Content: []byte("%PDF-1.7 content")},
		{Name: "notes.txt", Content: []byte("plain text")},
	})
	require.ErrorIs(t, err, workflow.ErrUnsupportedFileType)
	require.Empty(t, f.storage.uploads, "a rejected batch must not touch storage")
}

func TestUploadRejectsOversizedBatch(t *testing.T) {
	f := newSubmissionFixture(t)
	svc := f.service(&stubExtractor{}, &stubDetector{})

	files := make([]UploadFile, 0, workflow.MaxQueuedFiles+1)
	for i := 0; i <= workflow.MaxQueuedFiles; i++ {
		files = append(files, UploadFile{Name: "report.pdf", Content: []byte("%PDF-1.7")})
	}

	_, err := svc.Upload(context.Background(), f.assignment.ID, files)
	require.ErrorIs(t, err, workflow.ErrTooManyFiles)
}

func TestUploadMarksFailedExtraction(t *testing.T) {
	f := newSubmissionFixture(t)
	extractor := &stubExtractor{err: errors.New("backend unreachable")}
	svc := f.service(extractor, &stubDetector{})

	responses, err := svc.Upload(context.Background(), f.assignment.ID, []UploadFile{
		{Name: "report.docx", Content: []byte("PK docx bytes")},
	})
	require.NoError(t, err)
	require.Len(t, responses, 1)
	require.Equal(t, models.SubmissionStatusFailed, responses[0].ProcessingStatus)
	require.Empty(t, responses[0].ExtractedText)
}

func TestUploadUnknownAssignment(t *testing.T) {
	f := newSubmissionFixture(t)
	svc := f.service(&stubExtractor{}, &stubDetector{})

	_, err := svc.Upload(context.Background(), "missing", []UploadFile{
		{Name: "report.pdf", Content: []byte("%PDF-1.7")},
	})
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestDetectAIRequiresProcessedSubmission(t *testing.T) {
	f := newSubmissionFixture(t)
	failed := models.Submission{
		ID:           "bbbbbbbb-1111-2222-3333-444444444444",
		AssignmentID: f.assignment.ID,
		FileName:     "broken.pdf",
		Status:       models.SubmissionStatusFailed,
	}
	require.NoError(t, f.submissions.Create(context.Background(), &failed))

	svc := f.service(&stubExtractor{}, &stubDetector{})

	_, err := svc.DetectAI(context.Background(), failed.ID)
	require.ErrorIs(t, err, ErrSubmissionNotProcessed)

	_, err = svc.DetectAI(context.Background(), "missing")
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestDetectAIStoresAnalysis(t *testing.T) {
	f := newSubmissionFixture(t)
	processed := models.Submission{
		ID:            "cccccccc-1111-2222-3333-444444444444",
		AssignmentID:  f.assignment.ID,
		FileName:      "report.pdf",
		Status:        models.SubmissionStatusProcessed,
		ExtractedText: "The design uses a quorum of replicas.",
	}
	require.NoError(t, f.submissions.Create(context.Background(), &processed))

	detector := &stubDetector{analysis: detect.Analysis{
		DetectionResults: map[string]any{"probability": 0.12},
		RiskAssessment:   "low",
		Recommendations:  []string{"no action needed"},
		SubmissionStats:  map[string]any{"words": 420},
	}}
	svc := f.service(&stubExtractor{}, detector)

	response, err := svc.DetectAI(context.Background(), processed.ID)
	require.NoError(t, err)
	require.Equal(t, processed.ID, response.SubmissionID)
	require.Equal(t, "low", response.RiskAssessment)

	stored, err := f.submissions.GetByID(context.Background(), processed.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.DetectionResults)
}
