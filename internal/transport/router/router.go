package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/WebRendHQ/MaclellanFamily.com/internal/transport/handler"
)

func NewRouter(h *handler.Handler) chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/dropbox/webhook", h.VerifyWebhook)
		r.Post("/dropbox/webhook", h.Webhook)
		r.Post("/sync", h.TriggerSync)
		r.Get("/assets", h.ListAssets)
	})

	r.Get("/health", h.Health)

	return r
}
