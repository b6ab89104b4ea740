package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/storage"
	"github.com/kysclient/IMBA/internal/uploads"
)

type fakeFiles struct {
	saved   []string
	deleted []string
	n       int
}

func (f *fakeFiles) Save(_ context.Context, filename string, size int64, _ io.Reader) (string, error) {
	if _, err := uploads.Check(filename, size, 0); err != nil {
		return "", err
	}
	f.n++
	url := fmt.Sprintf("/uploads/gallery/%d.png", f.n)
	f.saved = append(f.saved, url)
	return url, nil
}

func (f *fakeFiles) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

type fakeItems struct {
	rows map[int64]models.GalleryItem
	err  error
}

func (f *fakeItems) SaveGalleryItem(_ context.Context, g models.GalleryItem) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	g.ID = int64(len(f.rows) + 1)
	f.rows[g.ID] = g
	return g.ID, nil
}

func (f *fakeItems) UpdateGalleryItem(_ context.Context, g models.GalleryItem) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	old, ok := f.rows[g.ID]
	if !ok {
		return "", storage.ErrNotFound
	}
	if g.ImageURL == "" {
		g.ImageURL = old.ImageURL
	}
	f.rows[g.ID] = g
	return old.ImageURL, nil
}

func (f *fakeItems) DeleteGalleryItem(_ context.Context, id int64) (string, error) {
	old, ok := f.rows[id]
	if !ok {
		return "", storage.ErrNotFound
	}
	delete(f.rows, id)
	return old.ImageURL, nil
}

func newFixture() (*Service, *fakeItems, *fakeFiles) {
	items := &fakeItems{rows: map[int64]models.GalleryItem{}}
	files := &fakeFiles{}
	return New(sl.NewDiscardLogger(), items, files), items, files
}

func image(name string) *Image {
	return &Image{Filename: name, Size: 3, Body: strings.NewReader("img")}
}

func TestCreate(t *testing.T) {
	svc, items, files := newFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, models.GalleryItem{Title: "t", Category: "c"}, nil)
	assert.ErrorIs(t, err, ErrImageRequired)

	_, err = svc.Create(ctx, models.GalleryItem{Title: "t", Category: "c"}, image("a.svg"))
	assert.ErrorIs(t, err, uploads.ErrUnsupportedType)
	assert.Empty(t, items.rows)

	item, err := svc.Create(ctx, models.GalleryItem{Title: "t", Category: "c"}, image("a.png"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/gallery/1.png", item.ImageURL)
	assert.Equal(t, int64(1), item.ID)

	item, err = svc.Create(ctx, models.GalleryItem{Title: "u", Category: "c", ImageURL: "https://x/y.jpg"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://x/y.jpg", item.ImageURL)
	assert.Len(t, files.saved, 1)
}

func TestCreate_RemovesFileWhenInsertFails(t *testing.T) {
	svc, items, files := newFixture()
	items.err = errors.New("db down")

	_, err := svc.Create(context.Background(), models.GalleryItem{Title: "t", Category: "c"}, image("a.png"))
	require.Error(t, err)
	assert.Equal(t, files.saved, files.deleted)
}

func TestUpdate_ReplacesImage(t *testing.T) {
	svc, items, files := newFixture()
	ctx := context.Background()
	items.rows[7] = models.GalleryItem{ID: 7, Title: "old", ImageURL: "/uploads/gallery/old.png"}

	item, err := svc.Update(ctx, models.GalleryItem{ID: 7, Title: "new", Category: "c"}, image("b.webp"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/gallery/1.png", item.ImageURL)
	assert.Equal(t, "/uploads/gallery/1.png", items.rows[7].ImageURL)
	assert.Equal(t, []string{"/uploads/gallery/old.png"}, files.deleted)
}

func TestUpdate_KeepsImageWithoutUpload(t *testing.T) {
	svc, items, files := newFixture()
	items.rows[7] = models.GalleryItem{ID: 7, ImageURL: "/uploads/gallery/old.png"}

	item, err := svc.Update(context.Background(), models.GalleryItem{ID: 7, Title: "new"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/gallery/old.png", item.ImageURL)
	assert.Empty(t, files.deleted)
}

func TestUpdate_MissingRowRemovesNewFile(t *testing.T) {
	svc, _, files := newFixture()

	_, err := svc.Update(context.Background(), models.GalleryItem{ID: 99}, image("b.png"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, files.saved, files.deleted)
}

func TestDelete(t *testing.T) {
	svc, items, files := newFixture()
	items.rows[3] = models.GalleryItem{ID: 3, ImageURL: "/uploads/gallery/3.png"}

	require.NoError(t, svc.Delete(context.Background(), 3))
	assert.Equal(t, []string{"/uploads/gallery/3.png"}, files.deleted)

	assert.ErrorIs(t, svc.Delete(context.Background(), 3), storage.ErrNotFound)
}
