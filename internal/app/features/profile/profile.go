// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"net/http"
	"time"

	userstore "github.com/Saravanans7/PlaceMate/internal/app/store/users"
	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/app/system/authutil"
	"github.com/Saravanans7/PlaceMate/internal/app/system/authz"
	"github.com/Saravanans7/PlaceMate/internal/app/system/respond"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// contactInput is the part of the profile a user edits themselves.
// Academic and placement fields are staff-owned.
type contactInput struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Phone       *string `json:"phone" validate:"omitempty,max=20"`
	NativePlace *string `json:"nativePlace" validate:"omitempty,max=120"`
}

type passwordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword"`
}

// placementView answers GET /api/users/me/placement.
type placementView struct {
	IsPlaced          bool                `json:"isPlaced"`
	PlacedAt          *time.Time          `json:"placedAt,omitempty"`
	PlacedCompany     *primitive.ObjectID `json:"placedCompany,omitempty"`
	PlacedCompanyName string              `json:"placedCompanyName,omitempty"`
}

// ServeProfile handles GET /api/users/me.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, user)
}

// HandleUpdate handles PUT /api/users/me.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in contactInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.UpdateContact(ctx, uid, userstore.ContactUpdate{
		Name:        in.Name,
		Phone:       in.Phone,
		NativePlace: in.NativePlace,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, user)
}

// ServePlacement handles GET /api/users/me/placement.
func (h *Handler) ServePlacement(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, placementView{
		IsPlaced:          user.IsPlaced,
		PlacedAt:          user.PlacedAt,
		PlacedCompany:     user.PlacedCompany,
		PlacedCompanyName: user.PlacedCompanyName,
	})
}

// HandleChangePassword handles POST /api/users/me/password. Accounts that
// only sign in with Google have no password to change.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in passwordInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if user.PasswordHash == "" {
		respond.Error(w, h.Log, apperr.Forbidden("Password change is only available for password sign-in."))
		return
	}
	if !authutil.CheckPassword(in.CurrentPassword, user.PasswordHash) {
		respond.Fail(w, http.StatusBadRequest, "Current password is incorrect.")
		return
	}
	if err := authutil.ValidatePassword(in.NewPassword); err != nil {
		respond.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.NewPassword {
		respond.Fail(w, http.StatusBadRequest, "New passwords do not match.")
		return
	}
	if authutil.CheckPassword(in.NewPassword, user.PasswordHash) {
		respond.Fail(w, http.StatusBadRequest, "New password cannot be the same as your current password.")
		return
	}

	hash, err := authutil.HashPassword(in.NewPassword)
	if err != nil {
		respond.Error(w, h.Log, apperr.Internal(err, "hash password"))
		return
	}
	if err := h.Users.UpdatePassword(ctx, uid, hash); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Log.Info("password changed", zap.String("user_id", uid.Hex()))
	respond.Message(w, "Password changed")
}
