// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/Saravanans7/PlaceMate/internal/app/system/respond"
)

// Handler writes the JSON envelope for requests the router cannot serve.
// No DB needed.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound answers unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Fail(w, http.StatusNotFound, "Route not found: "+r.Method+" "+r.URL.Path)
}

// MethodNotAllowed answers a known path requested with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.Fail(w, http.StatusMethodNotAllowed, "Method "+r.Method+" is not allowed on "+r.URL.Path)
}
