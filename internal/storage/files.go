// Package storage persists post attachments on local disk under a
// static-served uploads directory. Stored names get a timestamp prefix so
// repeated uploads of the same filename never collide; the public URL is
// always /static/uploads/<stored name>.
//
// File writes are not transactional with the database row that references
// them: a crash between the two can leave an orphaned file or a dangling
// reference. There is no compensation logic.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const urlPrefix = "/static/uploads/"

// StoredFile is the reference handed back to the post store after a
// successful upload.
type StoredFile struct {
	URL  string // public URL, e.g. /static/uploads/20260830120000_photo.jpg
	Name string // original client filename
}

// Store writes uploads into a single directory.
type Store struct {
	dir string
}

// New creates the uploads directory if needed and returns a Store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory files are written to, for static route setup.
func (s *Store) Dir() string { return s.dir }

// SaveMultipart stores an uploaded file and returns its reference. A nil
// header or an empty filename counts as "no upload" and returns nil, nil.
func (s *Store) SaveMultipart(fh *multipart.FileHeader) (*StoredFile, error) {
	if fh == nil || fh.Filename == "" {
		return nil, nil
	}
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	// Base() strips any path components a hostile client may send.
	original := filepath.Base(fh.Filename)
	stored := time.Now().Format("20060102150405_") + original

	dst, err := os.Create(filepath.Join(s.dir, stored))
	if err != nil {
		return nil, err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return nil, err
	}
	return &StoredFile{URL: urlPrefix + stored, Name: original}, nil
}

// Delete removes the file behind a previously returned URL. Callers treat
// failures as best-effort cleanup: log and move on.
func (s *Store) Delete(fileURL string) error {
	stored := strings.TrimPrefix(fileURL, urlPrefix)
	if stored == "" || stored == fileURL {
		return fmt.Errorf("not an upload url: %q", fileURL)
	}
	// The stored name never contains separators, so reject anything that
	// would escape the uploads directory.
	if strings.ContainsAny(stored, `/\`) {
		return fmt.Errorf("invalid stored name: %q", stored)
	}
	return os.Remove(filepath.Join(s.dir, stored))
}
