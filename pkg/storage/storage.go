// Package storage abstracts where submission files are kept. The evaluation
// flow only needs write-once blob semantics keyed by path.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, path string, reader io.Reader) (string, error)
}

// Local stores files under a base directory on disk.
type Local struct {
	baseDir string
	logger  zerolog.Logger
}

// NewLocal builds a disk-backed store rooted at baseDir.
func NewLocal(baseDir string, logger zerolog.Logger) (*Local, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("storage base directory must not be empty")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Local{
		baseDir: baseDir,
		logger:  logger.With().Str("component", "local_storage").Logger(),
	}, nil
}

// Upload writes the stream to baseDir/path and returns the stored path.
// Path traversal outside the base directory is refused.
func (l *Local) Upload(ctx context.Context, path string, reader io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := filepath.Clean(path)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage path %q", path)
	}

	target := filepath.Join(l.baseDir, clean)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create storage subdirectory: %w", err)
	}

	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create stored file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return "", fmt.Errorf("write stored file: %w", err)
	}

	l.logger.Debug().Str("path", clean).Msg("file stored")
	return clean, nil
}
