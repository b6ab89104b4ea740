package uploads

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		wantExt  string
		wantErr  error
	}{
		{"jpeg upper", "photo.JPEG", 100, ".jpeg", nil},
		{"webp", "a.webp", MaxBytes, ".webp", nil},
		{"svg", "logo.svg", 10, "", ErrUnsupportedType},
		{"no ext", "README", 10, "", ErrUnsupportedType},
		{"too large", "big.png", MaxBytes + 1, "", ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := Check(tt.filename, tt.size, 0)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestLocal_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, 0)
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Save(ctx, "cat.PNG", 4, strings.NewReader("meow"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/gallery/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	onDisk := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(url, "/")))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "meow", string(data))

	require.NoError(t, store.Delete(ctx, url))
	_, err = os.Stat(onDisk)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	assert.NoError(t, store.Delete(ctx, url), "already gone")
	assert.NoError(t, store.Delete(ctx, "https://cdn.example.com/a.png"))
	assert.NoError(t, store.Delete(ctx, "/uploads/gallery/../../etc/passwd"))
}

func TestLocal_RejectsOversizedBody(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, 8)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "a.gif", 4, strings.NewReader("0123456789"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(dir, "uploads", "gallery"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type fakeObjects struct {
	puts    map[string][]byte
	deleted []string
	putErr  error
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3_SaveAndDelete(t *testing.T) {
	objects := &fakeObjects{puts: map[string][]byte{}}
	store := newS3(objects, "imba", "https://cdn.example.com/", 0)
	ctx := context.Background()

	url, err := store.Save(ctx, "x.jpg", 3, bytes.NewReader([]byte("abc")))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "https://cdn.example.com/uploads/gallery/"))

	key := strings.TrimPrefix(url, "https://cdn.example.com/")
	assert.Equal(t, []byte("abc"), objects.puts[key])

	require.NoError(t, store.Delete(ctx, url))
	assert.Equal(t, []string{key}, objects.deleted)

	require.NoError(t, store.Delete(ctx, "/uploads/gallery/local.png"))
	assert.Len(t, objects.deleted, 1)
}

func TestS3_Errors(t *testing.T) {
	objects := &fakeObjects{puts: map[string][]byte{}, putErr: errors.New("boom")}
	store := newS3(objects, "imba", "https://cdn.example.com", 0)

	_, err := store.Save(context.Background(), "x.bmp", 3, strings.NewReader("abc"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = store.Save(context.Background(), "x.png", 3, strings.NewReader("abc"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uploads.S3.Save")
}
