package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MKhiriev/lambda-search/internal/logger"
	"github.com/google/uuid"
)

// localFileStorage is the disk-backed implementation of [FileStorage]. It
// keeps uploaded dump files inside a single configured directory. Stored
// names are prefixed with a UUID so that distinct uploads sharing a file
// name never collide; the original extension is preserved because the
// format registry dispatches on it.
type localFileStorage struct {
	dir    string
	logger *logger.Logger
}

// NewLocalFileStorage constructs a [FileStorage] rooted at dir, creating
// the directory if it does not exist.
func NewLocalFileStorage(dir string, logger *logger.Logger) (FileStorage, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		logger.Err(err).
			Str("func", "NewLocalFileStorage").
			Str("dir", dir).
			Msg("failed to create dump directory")
		return nil, fmt.Errorf("failed to create dump directory %q: %w", dir, err)
	}

	logger.Debug().Str("dir", dir).Msg("creating local file storage")

	return &localFileStorage{
		dir:    dir,
		logger: logger,
	}, nil
}

// Save writes src to a new file inside the dump directory and returns its
// full path. Only the base of name is used, so path components supplied by
// a client cannot escape the directory.
func (s *localFileStorage) Save(name string, src io.Reader) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "", fmt.Errorf("invalid upload file name %q", name)
	}

	path := filepath.Join(s.dir, uuid.NewString()+"_"+base)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		s.logger.Err(err).
			Str("func", "localFileStorage.Save").
			Str("path", path).
			Msg("failed to create dump file")
		return "", fmt.Errorf("failed to create dump file: %w", err)
	}

	if _, err = io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)

		s.logger.Err(err).
			Str("func", "localFileStorage.Save").
			Str("path", path).
			Msg("failed to write dump file")
		return "", fmt.Errorf("failed to write dump file: %w", err)
	}

	if err = dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close dump file: %w", err)
	}

	s.logger.Debug().
		Str("func", "localFileStorage.Save").
		Str("path", path).
		Msg("stored uploaded dump file")

	return path, nil
}

// Open returns a reader over a previously stored dump file.
func (s *localFileStorage) Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		s.logger.Err(err).
			Str("func", "localFileStorage.Open").
			Str("path", path).
			Msg("failed to open dump file")
		return nil, fmt.Errorf("failed to open dump file: %w", err)
	}

	return file, nil
}

// Exists reports whether path refers to a stored dump file.
func (s *localFileStorage) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Remove deletes a stored dump file. A missing file is not an error:
// deletion is idempotent.
func (s *localFileStorage) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Err(err).
			Str("func", "localFileStorage.Remove").
			Str("path", path).
			Msg("failed to remove dump file")
		return fmt.Errorf("failed to remove dump file: %w", err)
	}

	return nil
}
