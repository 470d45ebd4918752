package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/Rithvik985/situated-learning-api/internal/models"
)

// MaxQueuedFiles caps the number of files queued per session at once.
const MaxQueuedFiles = 5

// Accepted MIME categories for submissions.
const (
	FilePDF  = "pdf"
	FileDOCX = "docx"
)

var (
	// ErrTooManyFiles indicates the batch would push the queue past the cap.
	// Files already accepted stay queued.
	ErrTooManyFiles = fmt.Errorf("a maximum of %d submissions may be queued per evaluation", MaxQueuedFiles)
	// ErrUnsupportedFileType indicates a file that is neither PDF nor DOCX.
	ErrUnsupportedFileType = errors.New("only PDF and DOCX submissions are accepted")
	// ErrFileNotRemovable indicates a removal attempt on a non-queued file.
	ErrFileNotRemovable = errors.New("only queued files can be removed")
	// ErrFileNotFound indicates an unknown file identifier.
	ErrFileNotFound = errors.New("file not found in intake queue")
)

// QueuedFile tracks one submission file through the intake queue. The ID is
// client-local (assigned on accept, for immediate listing) until the upload
// re-keys the file to its server identity, which is authoritative from then
// on.
type QueuedFile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SizeBytes      int64  `json:"size_bytes"`
	MimeCategory   string `json:"mime_category"`
	Status         string `json:"status"`
	ServerAssigned bool   `json:"server_assigned"`
}

// FileMeta describes a candidate file offered to the queue.
type FileMeta struct {
	Name         string
	SizeBytes    int64
	MimeCategory string
}

// UploadOutcome is the server's answer for one submitted file, used to
// re-key the queue entry.
type UploadOutcome struct {
	ClientID string
	ServerID string
	Status   string
}

// DetectCategory sniffs the accepted MIME category from content where bytes
// are available, falling back to the file extension. Anything that is not a
// PDF or DOCX is rejected before queueing.
func DetectCategory(data []byte, filename string) (string, error) {
	if len(data) > 0 {
		kind := mimetype.Detect(data)
		switch {
		case kind.Is("application/pdf"):
			return FilePDF, nil
		case kind.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
			return FileDOCX, nil
		}
	}

	switch strings.ToLower(extension(filename)) {
	case "pdf":
		return FilePDF, nil
	case "docx":
		return FileDOCX, nil
	}
	return "", ErrUnsupportedFileType
}

// AddFiles accepts a batch into the queue. The whole batch is validated
// before any file is queued, so a rejected batch leaves the queue untouched.
// Accepting a new batch invalidates the upload step and everything after it:
// results computed against the previous file set are stale.
func (s *Session) AddFiles(batch []FileMeta) ([]QueuedFile, error) {
	if len(s.Files)+len(batch) > MaxQueuedFiles {
		return nil, ErrTooManyFiles
	}
	for _, meta := range batch {
		if meta.MimeCategory != FilePDF && meta.MimeCategory != FileDOCX {
			return nil, ErrUnsupportedFileType
		}
	}

	accepted := make([]QueuedFile, 0, len(batch))
	for _, meta := range batch {
		file := QueuedFile{
			ID:           uuid.NewString(),
			Name:         meta.Name,
			SizeBytes:    meta.SizeBytes,
			MimeCategory: meta.MimeCategory,
			Status:       models.SubmissionStatusQueued,
		}
		s.Files = append(s.Files, file)
		accepted = append(accepted, file)
	}

	if len(accepted) > 0 {
		s.Invalidate(StepUpload)
	}
	return accepted, nil
}

// RemoveFile drops a file from the queue. In the common flow only queued
// files are removable; removal from other states is a caller decision taken
// elsewhere.
func (s *Session) RemoveFile(id string) error {
	for i, file := range s.Files {
		if file.ID != id {
			continue
		}
		if file.Status != models.SubmissionStatusQueued {
			return ErrFileNotRemovable
		}
		s.Files = append(s.Files[:i], s.Files[i+1:]...)
		return nil
	}
	return ErrFileNotFound
}

// MarkUploading transitions every queued file to uploading and returns their
// client ids in queue order.
func (s *Session) MarkUploading() []string {
	ids := make([]string, 0, len(s.Files))
	for i := range s.Files {
		if s.Files[i].Status == models.SubmissionStatusQueued {
			s.Files[i].Status = models.SubmissionStatusUploading
			ids = append(ids, s.Files[i].ID)
		}
	}
	return ids
}

// ApplyUploadOutcomes re-keys submitted files to their server identities and
// records the processing status. All subsequent operations address files by
// the server id.
func (s *Session) ApplyUploadOutcomes(outcomes []UploadOutcome) {
	byClient := make(map[string]UploadOutcome, len(outcomes))
	for _, outcome := range outcomes {
		byClient[outcome.ClientID] = outcome
	}

	for i := range s.Files {
		outcome, ok := byClient[s.Files[i].ID]
		if !ok {
			continue
		}
		if outcome.ServerID != "" {
			s.Files[i].ID = outcome.ServerID
			s.Files[i].ServerAssigned = true
		}
		if outcome.Status != "" {
			s.Files[i].Status = outcome.Status
		}
	}
}

// ProcessedFileIDs lists the server ids of files that processed successfully.
func (s *Session) ProcessedFileIDs() []string {
	ids := make([]string, 0, len(s.Files))
	for _, file := range s.Files {
		if file.ServerAssigned && file.Status == models.SubmissionStatusProcessed {
			ids = append(ids, file.ID)
		}
	}
	return ids
}

func extension(filename string) string {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return filename[idx+1:]
}
