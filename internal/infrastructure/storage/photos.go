package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kidpech/asso_api/internal/domain/member"
)

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = member.ErrPhotoTooLarge

// LocalPhotos keeps member photos on the local disk under dir.
type LocalPhotos struct {
	dir      string
	maxBytes int64
}

// NewLocalPhotos ensures dir exists.
func NewLocalPhotos(dir string, maxBytes int64) (*LocalPhotos, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalPhotos{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the storage root, used to serve files.
func (s *LocalPhotos) Dir() string {
	return s.dir
}

// Save writes r under a fresh uuid name with ext and returns that name.
func (s *LocalPhotos) Save(ctx context.Context, r io.Reader, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := uuid.NewString() + strings.ToLower(ext)
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxBytes > 0 && n > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return name, nil
}

// Remove deletes a stored photo; missing files are not an error.
func (s *LocalPhotos) Remove(name string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid photo name %q", name)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
