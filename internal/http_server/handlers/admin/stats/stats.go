package stats

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	resp "github.com/kysclient/IMBA/internal/lib/api/response"
	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/models"
)

type StatsProvider interface {
	Stats(ctx context.Context) (models.Stats, error)
}

func New(log *slog.Logger, provider StatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.stats.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		st, err := provider.Stats(ctx)
		if err != nil {
			log.Error("failed to load stats", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, resp.MsgInternal)
			return
		}

		render.JSON(w, r, st)
	}
}
