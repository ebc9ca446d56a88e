package api

import (
	"github.com/go-chi/chi/v5"
)

// setupAPIRoutes sets up API v1 routes
func (s *RESTServer) setupAPIRoutes(r chi.Router) {
	// Health check
	r.Get("/health", s.HandleHealth)

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.HandleLogin)
		r.Post("/refresh", s.HandleRefresh)
	})

	// Public submission endpoint; anonymous respondents are rate limited
	r.Group(func(r chi.Router) {
		r.Use(s.rateLimitMiddleware)
		r.Use(s.optionalAuthMiddleware)
		r.Post("/forms/{id}/submissions", s.HandleCreateSubmission)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		// Users
		r.Route("/users", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.HandleListUsers)
			r.Post("/", s.HandleCreateUser)
			r.Get("/me", s.HandleGetCurrentUser)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetUser)
				r.Put("/", s.HandleUpdateUser)
				r.Delete("/", s.HandleDeleteUser)
			})
		})

		// Tenants
		r.Route("/tenants", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.HandleListTenants)
			r.Post("/", s.HandleCreateTenant)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetTenant)
				r.Put("/", s.HandleUpdateTenant)
				r.Delete("/", s.HandleDeleteTenant)
			})
		})

		// Forms
		r.Route("/forms", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.HandleListForms)
			r.Post("/", s.HandleCreateForm)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetForm)
				r.Put("/", s.HandleUpdateForm)
				r.Delete("/", s.HandleDeleteForm)
				r.Post("/publish", s.HandlePublishForm)
				r.Post("/unpublish", s.HandleUnpublishForm)
				r.Get("/submissions", s.HandleListFormSubmissions)
			})
		})

		// Submissions
		r.Route("/submissions", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.HandleListSubmissions)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.HandleGetSubmission)
				r.Put("/status", s.HandleReviewSubmission)
				r.Delete("/", s.HandleDeleteSubmission)
			})
		})

		// Stored files (signature images)
		r.Route("/files", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/{id}", s.HandleDownloadFile)
		})
	})
}
