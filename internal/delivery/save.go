package delivery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrSaveDisabled    = errors.New("silent save is disabled")
	ErrInvalidFilename = errors.New("invalid filename")
)

// Saver persists a document without asking the user where.
type Saver interface {
	Save(ctx context.Context, filename string, data []byte) (string, error)
}

// SilentSaver writes documents into one fixed directory. Writes are atomic:
// a temp file in the same directory renamed over the destination.
type SilentSaver struct {
	dir     string
	enabled bool
}

var _ Saver = (*SilentSaver)(nil)

// NewSilentSaver saves under $HOME/subdir. An absolute subdir is used as is.
func NewSilentSaver(enabled bool, subdir string) (*SilentSaver, error) {
	if !enabled {
		return &SilentSaver{}, nil
	}
	if strings.TrimSpace(subdir) == "" {
		return nil, fmt.Errorf("save directory is required")
	}
	dir := subdir
	if !filepath.IsAbs(dir) {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dir = filepath.Join(home, subdir)
	}
	return &SilentSaver{dir: dir, enabled: true}, nil
}

func (s *SilentSaver) Enabled() bool {
	return s.enabled
}

func (s *SilentSaver) Dir() string {
	return s.dir
}

// Save writes data to dir/filename and returns the final path.
func (s *SilentSaver) Save(ctx context.Context, filename string, data []byte) (string, error) {
	if !s.enabled {
		return "", ErrSaveDisabled
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := filepath.Base(filepath.Clean(filename))
	if name == "." || name == ".." || name == string(filepath.Separator) || name != filename {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create save directory: %w", err)
	}

	dest := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to sync document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close document: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to set document permissions: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move document into place: %w", err)
	}
	return dest, nil
}
