package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/signup", apiHandler.SignupHandler)
		r.Post("/login", apiHandler.LoginHandler)
		r.Get("/health", apiHandler.HealthHandler)

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			r.Get("/models", apiHandler.ListModelsHandler)

			r.Post("/events", apiHandler.CreateEventHandler)
			r.Get("/events", apiHandler.ListEventsHandler)

			// Invitee-only routes
			r.Route("/events/{eventID}", func(r chi.Router) {
				r.Use(apiHandler.EventAccessMiddleware)

				r.Get("/", apiHandler.GetEventHandler)
				r.Post("/invitees", apiHandler.InviteHandler)
				r.Post("/comments", apiHandler.CreateCommentHandler)
				r.Get("/comments", apiHandler.ListCommentsHandler)
				r.Post("/comments/import", apiHandler.ImportCommentsHandler)
				r.Post("/summary", apiHandler.SummarizeEventHandler)

				r.Get("/chat", apiHandler.GetChatHandler)
				r.Post("/chat/queries", apiHandler.QueryHandler)
				r.Post("/chat/queries/last", apiHandler.RerunLastQueryHandler)
				r.Patch("/chat/config", apiHandler.UpdateConfigHandler)
				r.Post("/chat/summarize/toggle", apiHandler.ToggleSummarizeHandler)
				r.Delete("/chat/history", apiHandler.ClearHistoryHandler)
			})
		})
	})

	return r
}
