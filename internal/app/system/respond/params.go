package respond

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectIDParam parses the chi URL parameter name as an ObjectID.
func ObjectIDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// IntParam parses the chi URL parameter name as a non-negative integer.
func IntParam(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, name)))
	if err != nil || n < 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return n, nil
}

// ObjectIDs parses hex ids, rejecting the first malformed one.
func ObjectIDs(field string, hexes []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(h))
		if err != nil {
			return nil, apperr.Validation("%s contains an invalid id %q", field, h)
		}
		out = append(out, id)
	}
	return out, nil
}
