package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local writes images below dir. A stored file "uploads/gallery/x.png" is served
// as "/uploads/gallery/x.png".
type Local struct {
	dir   string
	limit int64
}

func NewLocal(dir string, limit int64) (*Local, error) {
	const op = "uploads.NewLocal"

	if limit <= 0 {
		limit = MaxBytes
	}

	if err := os.MkdirAll(filepath.Join(dir, filepath.FromSlash(galleryPrefix)), 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Local{dir: dir, limit: limit}, nil
}

// Root is the directory that holds the "uploads" tree.
func (l *Local) Root() string {
	return filepath.Join(l.dir, "uploads")
}

func (l *Local) Save(_ context.Context, filename string, size int64, r io.Reader) (string, error) {
	const op = "uploads.Local.Save"

	ext, err := Check(filename, size, l.limit)
	if err != nil {
		return "", err
	}

	key := objectKey(ext)
	dst := filepath.Join(l.dir, filepath.FromSlash(key))

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	_, err = io.Copy(f, &limited{r: r, n: l.limit})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		if errors.Is(err, ErrTooLarge) {
			return "", ErrTooLarge
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return "/" + key, nil
}

// Delete removes a file previously returned by Save. URLs that do not point into the
// local uploads tree, and files that are already gone, are ignored.
func (l *Local) Delete(_ context.Context, url string) error {
	const op = "uploads.Local.Delete"

	if !strings.HasPrefix(url, "/"+galleryPrefix) {
		return nil
	}

	name := strings.TrimPrefix(url, "/"+galleryPrefix)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return nil
	}

	err := os.Remove(filepath.Join(l.dir, filepath.FromSlash(galleryPrefix), name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
