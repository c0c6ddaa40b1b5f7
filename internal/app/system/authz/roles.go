package authz

import (
	"net/http"
	"strings"

	"github.com/Saravanans7/PlaceMate/internal/domain/models"
)

// HasAnyRole reports whether the signed-in user holds one of roles.
// Anonymous requests never match.
func HasAnyRole(r *http.Request, roles ...string) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if strings.EqualFold(role, strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// IsStaff reports whether the current request's user is placement staff.
func IsStaff(r *http.Request) bool { return HasAnyRole(r, models.RoleStaff) }

// IsStudent reports whether the current request's user is a student.
func IsStudent(r *http.Request) bool { return HasAnyRole(r, models.RoleStudent) }
