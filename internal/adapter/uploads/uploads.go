// Package uploads stores scenario images on the local filesystem.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/ifthen/internal/domain"
)

// URLPrefix is the public path uploaded files are served under.
const URLPrefix = "/uploads/"

const maxNameAttempts = 100

// DiskStore writes images into dir, naming each file after the upload time in
// milliseconds plus the original file extension.
type DiskStore struct {
	dir      string
	maxBytes int64
	clock    clockwork.Clock
}

var _ domain.ImageStore = (*DiskStore)(nil)

// NewDiskStore creates dir if needed.
func NewDiskStore(dir string, maxBytes int64, clock clockwork.Clock) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStore{dir: dir, maxBytes: maxBytes, clock: clock}, nil
}

// Dir is the directory files are written to.
func (s *DiskStore) Dir() string {
	return s.dir
}

// HealthCheck verifies that dir still accepts new files.
func (s *DiskStore) HealthCheck(_ context.Context) error {
	f, err := os.CreateTemp(s.dir, ".health-*")
	if err != nil {
		return fmt.Errorf("upload directory not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("failed to remove health probe file: %w", err)
	}
	return nil
}

func (s *DiskStore) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", domain.ErrImageTooLarge
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedImage, mt.String())
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if ext == "" {
		ext = mt.Extension()
	}

	name, err := s.write(data, ext)
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Image stored", "file", name, "mime", mt.String(), "bytes", len(data))
	return path.Join(URLPrefix, name), nil
}

func (s *DiskStore) write(data []byte, ext string) (string, error) {
	stamp := s.clock.Now().UnixMilli()

	for i := range maxNameAttempts {
		name := fmt.Sprintf("%d%s", stamp, ext)
		if i > 0 {
			name = fmt.Sprintf("%d-%d%s", stamp, i, ext)
		}

		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create image file: %w", err)
		}

		if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
			return "", fmt.Errorf("failed to write image file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close image file: %w", err)
		}
		return name, nil
	}
	return "", fmt.Errorf("no free file name for upload at %d", stamp)
}
