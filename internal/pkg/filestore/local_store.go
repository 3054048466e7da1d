package filestore

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StoredFile describes a file written by LocalStore.
type StoredFile struct {
	Name string // generated file name
	Path string // baseDir joined with Name, as persisted on the recording
	Size int64
}

// LocalStore keeps uploads in a single directory on local disk.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates the base directory if missing.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

func (s *LocalStore) BaseDir() string {
	return s.baseDir
}

// GenerateName returns "<unix millis>-<random>" plus the original extension.
func GenerateName(originalName string, now time.Time) string {
	ext := filepath.Ext(filepath.Base(originalName))
	return fmt.Sprintf("%d-%d%s", now.UnixMilli(), rand.IntN(1_000_000_000), ext)
}

// Save streams r into a new uniquely named file. A partially written file
// is removed before returning an error.
func (s *LocalStore) Save(originalName string, r io.Reader) (*StoredFile, error) {
	var (
		name string
		out  *os.File
		err  error
	)
	for attempt := 0; attempt < 3; attempt++ {
		name = GenerateName(originalName, time.Now())
		out, err = os.OpenFile(filepath.Join(s.baseDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil || !errors.Is(err, os.ErrExist) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	path := filepath.Join(s.baseDir, name)
	size, err := io.Copy(out, r)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write file: %w", err)
	}

	return &StoredFile{Name: name, Path: path, Size: size}, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *LocalStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Stat reports the size of a stored file.
func (s *LocalStore) Stat(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	return info.Size(), nil
}
