package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/schemadesign/glassjournal-backend/internal/handlers"
)

// SetupRoutes registers all endpoints. requireUser wraps the routes that need
// an authenticated identity; ticketed uploads and media serving stand on
// their own tokens and references.
func SetupRoutes(r *chi.Mux, requireUser func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		// Main endpoint: remote state plus operation dispatch
		r.Get("/", handlers.TimelineState)
		r.Post("/", handlers.TimelineOperation)

		// Journal endpoints
		r.Get("/journal", handlers.ListJournal)
		r.Get("/journal.json", handlers.ListJournalJSON)
		r.Post("/journal", handlers.JournalOperation)
		r.Get("/journal/delete/{id}", handlers.DeleteJournal)

		// WebSocket endpoint for the live journal feed
		r.Get("/ws/journal", handlers.JournalFeedSocket)
	})

	// Upload pipeline: ticket issue plus multipart completion callback
	r.Get("/request-upload", handlers.RequestUpload)
	r.Post("/upload", handlers.CompleteUpload)

	// Media serving by opaque reference
	r.Get("/serve/{reference}", handlers.ServeMedia)
}
