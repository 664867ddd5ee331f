package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(withGZip)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Post("/api/user/register", h.register)
		r.Post("/api/user/login", h.login)
	})

	// everything else requires a valid bearer token
	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Post("/api/search", h.search)
		r.Get("/api/search/history", h.searchHistory)

		r.Route("/api/databases", func(r chi.Router) {
			r.Post("/", h.uploadDatabase)
			r.Get("/", h.listDatabases)
			r.Get("/{id}", h.getDatabase)
			r.Patch("/{id}", h.updateDatabase)
			r.Delete("/{id}", h.deleteDatabase)
			r.Post("/{id}/reingest", h.reingestDatabase)
			r.Get("/{id}/preview", h.previewDatabase)
		})

		r.Get("/api/progress/{jobID}", h.jobProgress)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
