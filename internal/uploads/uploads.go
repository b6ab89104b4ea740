// Package uploads stores gallery images either on the local disk or in an S3 bucket.
package uploads

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// MaxBytes is the default upload limit.
const MaxBytes int64 = 10 << 20

const galleryPrefix = "uploads/gallery/"

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image too large")
)

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Store persists an image and returns the URL it is served from.
type Store interface {
	Save(ctx context.Context, filename string, size int64, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// Check validates the extension of filename and the declared size against limit.
// It returns the lowercased extension.
func Check(filename string, size, limit int64) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	if _, ok := contentTypes[ext]; !ok {
		return "", ErrUnsupportedType
	}

	if limit <= 0 {
		limit = MaxBytes
	}
	if size > limit {
		return "", ErrTooLarge
	}

	return ext, nil
}

// objectKey is the bucket-relative key of a new gallery image, e.g.
// "uploads/gallery/1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed.png".
func objectKey(ext string) string {
	return galleryPrefix + uuid.NewString() + ext
}

// limited fails with ErrTooLarge when more than n bytes come out of r, guarding
// against clients that lie about the part size.
type limited struct {
	r io.Reader
	n int64
}

func (l *limited) Read(p []byte) (int, error) {
	if l.n < 0 {
		return 0, ErrTooLarge
	}

	if int64(len(p)) > l.n+1 {
		p = p[:l.n+1]
	}

	n, err := l.r.Read(p)
	l.n -= int64(n)
	if l.n < 0 {
		return n, ErrTooLarge
	}

	return n, err
}
