// Package upload implements resume file intake and storage.
package upload

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// Intake errors. Both are user-fixable and reported with specifics at
// the HTTP boundary.
var (
	ErrUnsupportedType = errors.New("only PDF, DOC, and DOCX files are allowed")
	ErrPayloadTooLarge = errors.New("file exceeds the maximum allowed size")
	ErrEmptyFile       = errors.New("file is empty")
)

// MaxFileSize is the default upload ceiling (5 MiB).
const MaxFileSize = 5 * 1024 * 1024

// allowedTypes maps permitted extensions to the MIME types consistent
// with them. Both the extension and the declared MIME type must match.
var allowedTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
}

// Document is a handle to an accepted upload. The storage name is the
// stable on-disk reference; the original name is preserved for display.
type Document struct {
	StorageName  string
	OriginalName string
	MimeType     string
	Size         int64
}

// Store persists uploaded documents on disk under generated,
// collision-resistant names.
type Store struct {
	dir     string
	maxSize int64

	mkdirOnce sync.Once
	mkdirErr  error
}

// NewStore creates a Store rooted at dir. The directory is created lazily
// on the first accepted upload. maxSize <= 0 falls back to MaxFileSize.
func NewStore(dir string, maxSize int64) *Store {
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	return &Store{dir: dir, maxSize: maxSize}
}

// Accept validates and stores an incoming document, streaming it to disk.
// The size ceiling is enforced during the copy: a payload that exceeds it
// is rejected and its partial write removed, not buffered in full first.
func (s *Store) Accept(r io.Reader, originalName, mimeType string) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	mimes, ok := allowedTypes[ext]
	if !ok || !slices.Contains(mimes, mimeType) {
		return nil, ErrUnsupportedType
	}

	if err := s.ensureDir(); err != nil {
		return nil, err
	}

	name := s.generateStorageName(ext)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}

	// Copy at most maxSize+1 bytes; seeing the extra byte proves the
	// payload is over the ceiling without reading the rest.
	written, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("store upload: %w", err)
	}

	if written > s.maxSize {
		f.Close()
		os.Remove(path)
		return nil, ErrPayloadTooLarge
	}

	if written == 0 {
		f.Close()
		os.Remove(path)
		return nil, ErrEmptyFile
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close upload file: %w", err)
	}

	return &Document{
		StorageName:  name,
		OriginalName: originalName,
		MimeType:     mimeType,
		Size:         written,
	}, nil
}

// Read returns the stored bytes for a previously accepted document.
func (s *Store) Read(storageName string) ([]byte, error) {
	// Storage names are generated; anything with a path separator is not ours.
	if storageName != filepath.Base(storageName) {
		return nil, fmt.Errorf("invalid storage name %q", storageName)
	}
	return os.ReadFile(filepath.Join(s.dir, storageName))
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// ensureDir creates the storage directory exactly once.
func (s *Store) ensureDir() error {
	s.mkdirOnce.Do(func() {
		s.mkdirErr = os.MkdirAll(s.dir, 0o755)
	})
	if s.mkdirErr != nil {
		return fmt.Errorf("create upload dir: %w", s.mkdirErr)
	}
	return nil
}

// generateStorageName builds a collision-resistant file name from the
// current time and a random suffix, keeping the original extension.
func (s *Store) generateStorageName(ext string) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000_000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("resume-%d-%09d%s", time.Now().UnixNano(), suffix, ext)
}
