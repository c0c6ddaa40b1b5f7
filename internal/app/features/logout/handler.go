// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/Saravanans7/PlaceMate/internal/app/system/auditlog"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auth"
	"github.com/Saravanans7/PlaceMate/internal/app/system/respond"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
	}
}

// ServeLogout handles POST /api/auth/logout. The session cookie is expired;
// bearer tokens are stateless and simply dropped by the client.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	var userID string
	if u, ok := auth.CurrentUser(r); ok {
		userID = u.ID
	}

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		// Still answer success: the client discards its credentials either way.
		h.Log.Warn("logout: save session", zap.Error(err))
	}
	h.AuditLog.Logout(r.Context(), r, userID)

	respond.Message(w, "Logged out")
}
