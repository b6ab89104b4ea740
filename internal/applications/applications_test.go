package applications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/storage"
)

// memSaver applies the duplicate window against an in-memory clock.
type memSaver struct {
	now  time.Time
	apps []models.Application
	err  error
}

func (m *memSaver) SaveApplication(_ context.Context, app models.Application, window time.Duration) (models.Application, error) {
	if m.err != nil {
		return models.Application{}, m.err
	}

	for _, a := range m.apps {
		if a.Email == app.Email && a.CourseType == app.CourseType && a.CreatedAt.After(m.now.Add(-window)) {
			return models.Application{}, storage.ErrDuplicateApplication
		}
	}

	app.ID = int64(len(m.apps) + 1)
	app.CreatedAt = m.now
	m.apps = append(m.apps, app)

	return app, nil
}

func TestSubmit_DuplicateWindow(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	saver := &memSaver{now: start}
	svc := New(sl.NewDiscardLogger(), saver)
	ctx := context.Background()

	first, err := svc.Submit(ctx, nil, "헤어", "김민지", "01012345678", "kim@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, first.Status)

	saver.now = start.Add(29 * 24 * time.Hour)
	_, err = svc.Submit(ctx, nil, "헤어", "김민지", "01012345678", "kim@example.com", "")
	assert.ErrorIs(t, err, storage.ErrDuplicateApplication)
	assert.Len(t, saver.apps, 1)

	_, err = svc.Submit(ctx, nil, "메이크업", "김민지", "01012345678", "kim@example.com", "")
	assert.NoError(t, err)

	saver.now = start.Add(31 * 24 * time.Hour)
	_, err = svc.Submit(ctx, nil, "헤어", "김민지", "01012345678", "kim@example.com", "")
	assert.NoError(t, err)
	assert.Len(t, saver.apps, 3)
}

func TestSubmit_TrimsAndKeepsUser(t *testing.T) {
	saver := &memSaver{now: time.Now()}
	svc := New(sl.NewDiscardLogger(), saver)

	uid := int64(42)
	app, err := svc.Submit(context.Background(), &uid, " 헤어 ", " 김 ", "010", " kim@example.com ", "열심히")
	require.NoError(t, err)

	assert.Equal(t, "헤어", app.CourseType)
	assert.Equal(t, "kim@example.com", app.Email)
	require.NotNil(t, app.UserID)
	assert.Equal(t, uid, *app.UserID)
}

func TestSubmit_WrapsStorageErrors(t *testing.T) {
	svc := New(sl.NewDiscardLogger(), &memSaver{err: errors.New("db down")})

	_, err := svc.Submit(context.Background(), nil, "헤어", "김", "010", "a@b.c", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrDuplicateApplication)
	assert.Contains(t, err.Error(), "applications.Submit")
}
