package applications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/storage"
)

// DuplicateWindow is how long an (email, course type) pair stays blocked after an
// application is submitted.
const DuplicateWindow = 30 * 24 * time.Hour

type ApplicationSaver interface {
	SaveApplication(ctx context.Context, app models.Application, window time.Duration) (models.Application, error)
}

type Service struct {
	log    *slog.Logger
	saver  ApplicationSaver
	window time.Duration
}

func New(log *slog.Logger, saver ApplicationSaver) *Service {
	return &Service{log: log, saver: saver, window: DuplicateWindow}
}

// Submit stores a new pending application. userID is nil for anonymous visitors.
// A repeat for the same email and course type inside the window fails with
// storage.ErrDuplicateApplication and writes nothing.
func (s *Service) Submit(
	ctx context.Context,
	userID *int64,
	courseType, name, phone, email, motivation string,
) (models.Application, error) {
	const op = "applications.Submit"

	log := s.log.With(slog.String("op", op))

	app := models.Application{
		UserID:     userID,
		CourseType: strings.TrimSpace(courseType),
		Name:       strings.TrimSpace(name),
		Phone:      strings.TrimSpace(phone),
		Email:      strings.TrimSpace(email),
		Motivation: motivation,
		Status:     models.StatusPending,
	}

	saved, err := s.saver.SaveApplication(ctx, app, s.window)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateApplication) {
			log.Info("duplicate application rejected", slog.String("course", app.CourseType))
			return models.Application{}, err
		}
		return models.Application{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("application received", slog.Int64("id", saved.ID))

	return saved, nil
}
