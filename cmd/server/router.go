package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zspirit/aihm-back/internal/api"
	apiMiddleware "github.com/zspirit/aihm-back/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. It accepts the application dependencies to create handlers
// and register routes. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware) // Add trace IDs for improved error handling

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.config.Auth.JWTSecret)

	candidateHandler := api.NewCandidateHandler(app.candidateService, app.logger)
	consentHandler := api.NewConsentHandler(app.consentService, app.logger)
	interviewHandler := api.NewInterviewHandler(app.interviewService, app.candidateService, app.logger)
	importHandler := api.NewImportHandler(app.importService, app.logger)
	callbackHandler := api.NewCallbackHandler(app.reconciler, app.logger)
	webhookHandler := api.NewWebhookHandler(app.subscriptionStore, app.logger)
	notificationHandler := api.NewNotificationHandler(app.notificationStore, app.logger)

	r.Route("/api", func(r chi.Router) {
		// Candidate-facing consent pages (public, token-addressed)
		r.Get("/consent/{token}", consentHandler.GetPage)
		r.Post("/consent/{token}", consentHandler.Grant)

		// Telephony provider callbacks (public, always 200)
		r.Post("/callbacks/telephony/status", callbackHandler.Status)
		r.Post("/callbacks/telephony/recording", callbackHandler.Recording)

		// Recruiter-facing routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/positions/{positionID}/candidates", candidateHandler.CreateCandidate)
			r.Get("/candidates/{id}", candidateHandler.GetCandidate)
			r.Post("/candidates/{id}/cv", candidateHandler.UploadCV)
			r.Get("/candidates/{id}/events", candidateHandler.Events)

			r.Post("/candidates/{id}/interviews", interviewHandler.ScheduleInterview)
			r.Get("/interviews/{id}", interviewHandler.GetInterview)

			r.Post("/positions/{positionID}/imports", importHandler.CreateImport)
			r.Get("/imports/{id}", importHandler.GetImport)
			r.Get("/positions/{positionID}/imports/{id}/events", importHandler.Events)

			r.Get("/webhooks", webhookHandler.List)
			r.Post("/webhooks", webhookHandler.Create)
			r.Get("/webhooks/events", webhookHandler.ListEvents)
			r.Delete("/webhooks/{id}", webhookHandler.Delete)
			r.Patch("/webhooks/{id}/toggle", webhookHandler.Toggle)

			r.Get("/notifications", notificationHandler.List)
			r.Patch("/notifications/{id}/read", notificationHandler.MarkRead)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
