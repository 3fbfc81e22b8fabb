package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/itchan-dev/msgboard/backend/internal/setup"
	mw "github.com/itchan-dev/msgboard/shared/middleware"
	"github.com/itchan-dev/msgboard/shared/middleware/metrics"
)

// New creates the chi router with all the routes.
func New(deps *setup.Dependencies) http.Handler {
	server := deps.Config.Public.Server
	h := deps.Handler

	r := chi.NewRouter()
	r.Use(mw.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	// JSON API only, nothing needs scripts or styles
	r.Use(mw.SecurityHeadersWithCSP(server.SecureCookies, mw.APIContentSecurityPolicy))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/about", h.About)

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", h.ListMessages)
			// posting is limited per client ip
			r.With(mw.RateLimit(deps.PostLimiter, mw.GetIP)).Post("/", h.CreateMessage)
			r.Delete("/", h.ClearMessages)

			r.Get("/{id}", h.GetMessage)
			r.Delete("/{id}", h.DeleteMessage)
			r.Get("/{id}/position", h.GetPosition)
			r.Get("/{id}/attachments.zip", h.DownloadZip)
		})
	})

	r.Get("/uploads/{messageId}/{subdir}/{filename}", h.ServeAttachment)

	return r
}
