package domain

import (
	"context"
	"io"
)

// ImageStore persists uploaded scenario images.
type ImageStore interface {
	// Save stores the image and returns the public URL path it is served under.
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
}
