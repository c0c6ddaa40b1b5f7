// internal/app/features/chatbot/routes.go
package chatbot

import (
	"github.com/Saravanans7/PlaceMate/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/chatbot.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Post("/", h.Ask)
	return r
}
