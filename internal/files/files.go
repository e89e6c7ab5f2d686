package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrOutsideStore = errors.New("path outside image store")

var allowedTypes = map[string]bool{
	"image/png":  true,
	"image/jpg":  true,
	"image/jpeg": true,
}

// Allowed reports whether an upload's content type passes the image filter.
// Anything else is silently dropped by the callers, mirroring a filter stage
// that attaches no file and raises no error.
func Allowed(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return allowedTypes[strings.TrimSpace(mediaType)]
}

// Store keeps uploaded post images on local disk under a single directory.
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	const op = "files.New"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Store{dir: dir}, nil
}

// Save writes the upload under a fresh name and returns the relative path
// that gets stored as the post's imageUrl.
func (s *Store) Save(src io.Reader, originalName string) (string, error) {
	const op = "files.Save"

	name := uuid.New().String() + filepath.Ext(filepath.Base(originalName))
	path := filepath.Join(s.dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return filepath.ToSlash(path), nil
}

// Remove deletes a stored image. The path must resolve inside the store
// directory; anything else is refused.
func (s *Store) Remove(path string) error {
	const op = "files.Remove"

	cleaned := filepath.Clean(filepath.FromSlash(path))
	if cleaned != filepath.Join(s.dir, filepath.Base(cleaned)) {
		return fmt.Errorf("%s: %w", op, ErrOutsideStore)
	}

	if err := os.Remove(cleaned); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
