package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// localRefPrefix is the public path segment under which stored images are
// served back by the HTTP layer.
const localRefPrefix = "images"

// LocalService stores image files on the local filesystem beneath a single
// directory.
type LocalService struct {
	dir string
}

func NewLocalService(dir string) (*LocalService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}
	return &LocalService{dir: dir}, nil
}

// Dir exposes the backing directory so the HTTP layer can serve it
// statically.
func (s *LocalService) Dir() string {
	return s.dir
}

func (s *LocalService) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	name := storedName(filename)

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	_, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil {
		return "", fmt.Errorf("write image file: %w", copyErr)
	}
	if closeErr != nil {
		return "", fmt.Errorf("close image file: %w", closeErr)
	}

	return path.Join(localRefPrefix, name), nil
}

func (s *LocalService) Remove(ctx context.Context, ref string) error {
	name := strings.TrimPrefix(ref, localRefPrefix+"/")
	name = filepath.Base(name) // never escape the images dir
	if name == "" || name == "." {
		return fmt.Errorf("invalid image reference %q", ref)
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove image file: %w", err)
	}
	return nil
}
