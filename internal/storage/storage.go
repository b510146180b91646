package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Service persists uploaded image binaries and disposes of replaced ones.
// Save returns the reference stored on the post and handed to clients.
type Service interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Remove(ctx context.Context, ref string) error
}

// storedName builds the on-disk/object name for an upload: a random
// prefix keeps concurrent uploads of the same filename apart.
func storedName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.ReplaceAll(base, " ", "_")
	if base == "" || base == "." {
		base = "upload"
	}
	return uuid.NewString() + "_" + base
}
