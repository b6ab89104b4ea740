// Package router assembles the HTTP API.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	adminapps "github.com/kysclient/IMBA/internal/http_server/handlers/admin/applications"
	admincourses "github.com/kysclient/IMBA/internal/http_server/handlers/admin/courses"
	admingallery "github.com/kysclient/IMBA/internal/http_server/handlers/admin/gallery"
	adminposts "github.com/kysclient/IMBA/internal/http_server/handlers/admin/posts"
	"github.com/kysclient/IMBA/internal/http_server/handlers/admin/stats"
	adminusers "github.com/kysclient/IMBA/internal/http_server/handlers/admin/users"
	"github.com/kysclient/IMBA/internal/http_server/handlers/applications"
	"github.com/kysclient/IMBA/internal/http_server/handlers/auth/login"
	"github.com/kysclient/IMBA/internal/http_server/handlers/auth/logout"
	"github.com/kysclient/IMBA/internal/http_server/handlers/auth/me"
	"github.com/kysclient/IMBA/internal/http_server/handlers/auth/password"
	"github.com/kysclient/IMBA/internal/http_server/handlers/auth/profile"
	"github.com/kysclient/IMBA/internal/http_server/handlers/auth/recovery"
	"github.com/kysclient/IMBA/internal/http_server/handlers/auth/signup"
	"github.com/kysclient/IMBA/internal/http_server/handlers/comments"
	"github.com/kysclient/IMBA/internal/http_server/handlers/courses"
	"github.com/kysclient/IMBA/internal/http_server/handlers/gallery"
	"github.com/kysclient/IMBA/internal/http_server/handlers/posts"
	"github.com/kysclient/IMBA/internal/middleware/identity"
	"github.com/kysclient/IMBA/internal/middleware/ratelimit"
)

type Sessions interface {
	identity.Resolver
	signup.CookieWriter
	logout.CookieRevoker
}

type Accounts interface {
	signup.UserRegistrar
	login.Authenticator
	profile.ProfileService
	password.PasswordChanger
	recovery.Recoverer
}

// Store is the part of the database the handlers read and write directly.
type Store interface {
	courses.CourseLister
	gallery.GalleryLister
	admingallery.GalleryLister
	stats.StatsProvider
	adminusers.UserAdmin
	adminapps.ApplicationAdmin
	admincourses.CourseAdmin
}

type Forum interface {
	posts.Forum
	comments.Commenter
	adminposts.PostAdmin
}

type Deps struct {
	Log          *slog.Logger
	Validate     *validator.Validate
	Sessions     Sessions
	Accounts     Accounts
	Applications applications.Submitter
	Forum        Forum
	Gallery      admingallery.GalleryEditor
	Store        Store

	// UploadsRoot is served under /uploads/ when set (local upload driver).
	UploadsRoot    string
	MaxUploadBytes int64
}

func New(d Deps) *chi.Mux {
	log, validate := d.Log, d.Validate

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(identity.Identify(d.Sessions))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	if d.UploadsRoot != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.UploadsRoot))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(ratelimit.Signup()).Post("/signup", signup.New(log, validate, d.Accounts, d.Sessions))
			r.With(ratelimit.Login()).Post("/login", login.New(log, validate, d.Accounts, d.Sessions))
			r.Post("/logout", logout.New(d.Sessions))

			r.Group(func(r chi.Router) {
				r.Use(ratelimit.Recovery())
				r.Post("/find-email", recovery.FindEmail(log, validate, d.Accounts))
				r.Post("/forgot-password", recovery.Forgot(log, validate, d.Accounts))
				r.Post("/reset-password", recovery.Reset(log, validate, d.Accounts))
			})

			r.Group(func(r chi.Router) {
				r.Use(identity.RequireMember)
				r.Get("/me", me.New())
				r.Get("/profile", profile.Get(log, d.Accounts))
				r.Put("/profile", profile.Update(log, validate, d.Accounts, d.Sessions))
				r.Put("/password", password.New(log, validate, d.Accounts))
			})
		})

		r.Get("/courses", courses.List(log, d.Store))
		r.Get("/gallery", gallery.List(log, d.Store))
		r.With(ratelimit.Applications()).Post("/applications", applications.Submit(log, validate, d.Applications))

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", posts.List(log, d.Forum, false))
			r.Get("/{id}", posts.Get(log, d.Forum))
			r.Get("/{id}/comments", comments.List(log, d.Forum))

			r.Group(func(r chi.Router) {
				r.Use(identity.RequireMember)
				r.Post("/", posts.Create(log, validate, d.Forum))
				r.Put("/{id}", posts.Update(log, validate, d.Forum))
				r.Delete("/{id}", posts.Delete(log, d.Forum))
				r.Post("/{id}/like", posts.Like(log, d.Forum))
				r.Post("/{id}/comments", comments.Create(log, d.Forum))
				r.Delete("/{id}/comments/{commentId}", comments.Delete(log, d.Forum))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(identity.RequireAdmin)

			r.Get("/stats", stats.New(log, d.Store))

			r.Get("/users", adminusers.List(log, d.Store))
			r.Put("/users/{id}", adminusers.Update(log, d.Store))
			r.Delete("/users/{id}", adminusers.Delete(log, d.Store))

			r.Get("/applications", adminapps.List(log, d.Store))
			r.Put("/applications/{id}", adminapps.Update(log, d.Store))
			r.Delete("/applications/{id}", adminapps.Delete(log, d.Store))

			r.Get("/courses", admincourses.List(log, d.Store))
			r.Post("/courses", admincourses.Create(log, validate, d.Store))
			r.Put("/courses/{id}", admincourses.Update(log, validate, d.Store))
			r.Delete("/courses/{id}", admincourses.Delete(log, d.Store))

			r.Get("/gallery", admingallery.List(log, d.Store))
			r.Post("/gallery", admingallery.Create(log, d.Gallery, d.MaxUploadBytes))
			r.Put("/gallery/{id}", admingallery.Update(log, d.Gallery, d.MaxUploadBytes))
			r.Delete("/gallery/{id}", admingallery.Delete(log, d.Gallery))

			r.Get("/posts", posts.List(log, d.Forum, true))
			r.Put("/posts/{id}", adminposts.Update(log, d.Forum))
			r.Delete("/posts/{id}", adminposts.Delete(log, d.Forum))
		})
	})

	return r
}
