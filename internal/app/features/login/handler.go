// internal/app/features/login/handler.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - Identifier: The human-readable string users type to log in (email or username)

import (
	"context"
	"errors"
	"net/http"
	"time"

	userstore "github.com/Saravanans7/PlaceMate/internal/app/store/users"
	"github.com/Saravanans7/PlaceMate/internal/app/system/apperr"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auditlog"
	"github.com/Saravanans7/PlaceMate/internal/app/system/auth"
	"github.com/Saravanans7/PlaceMate/internal/app/system/authutil"
	"github.com/Saravanans7/PlaceMate/internal/app/system/ratelimit"
	"github.com/Saravanans7/PlaceMate/internal/app/system/respond"
	"github.com/Saravanans7/PlaceMate/internal/app/system/timeouts"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	limiter *ratelimit.LoginLimiter,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Limiter:    limiter,
	}
}

// errInvalidCredentials is returned for unknown users and wrong passwords alike.
const errInvalidCredentials = "Invalid credentials"

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// Session is the body returned after a successful login or registration.
type Session struct {
	Token     string      `json:"token,omitempty"`
	ExpiresAt *time.Time  `json:"expiresAt,omitempty"`
	User      models.User `json:"user"`
}

// HandleLogin handles POST /api/auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, in.Identifier); !ok {
			h.AuditLog.LoginFailedRateLimit(r.Context(), r, in.Identifier)
			respond.Fail(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByIdentifier(ctx, in.Identifier)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			h.AuditLog.LoginFailedUserNotFound(ctx, r, in.Identifier)
			respond.Fail(w, http.StatusUnauthorized, errInvalidCredentials)
			return
		}
		respond.Error(w, h.Log, err)
		return
	}
	// Google-only accounts have no password hash and never match.
	if !authutil.CheckPassword(in.Password, u.PasswordHash) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, in.Identifier)
		respond.Fail(w, http.StatusUnauthorized, errInvalidCredentials)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetIdentifier(in.Identifier)
	}

	sess, err := h.startSession(w, r, u)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, "password", in.Identifier)
	respond.OK(w, sess)
}

type registerRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Email       string  `json:"email" validate:"required,email"`
	Username    string  `json:"username" validate:"omitempty,min=3,max=40,alphanum"`
	Password    string  `json:"password" validate:"required"`
	RollNumber  string  `json:"rollNumber" validate:"max=40"`
	Phone       string  `json:"phone" validate:"max=20"`
	NativePlace string  `json:"nativePlace" validate:"max=80"`
	Batch       int     `json:"batch" validate:"omitempty,gte=2000,lte=2100"`
	CGPA        float64 `json:"cgpa" validate:"gte=0,lte=10"`
	Arrears     int     `json:"arrears" validate:"gte=0"`
	History     int     `json:"historyOfArrears" validate:"gte=0"`
	Tenth       float64 `json:"tenthPercent" validate:"gte=0,lte=100"`
	Twelfth     float64 `json:"twelfthPercent" validate:"gte=0,lte=100"`
}

// HandleRegister handles POST /api/auth/register. Self-registration always
// creates a student; staff accounts are provisioned out of band.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := authutil.ValidatePassword(in.Password); err != nil {
		respond.Error(w, h.Log, apperr.Validation("%s", authutil.PasswordRules()))
		return
	}
	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		respond.Error(w, h.Log, apperr.Internal(err, "hash password"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		Name:         in.Name,
		Email:        in.Email,
		Username:     in.Username,
		Role:         models.RoleStudent,
		PasswordHash: hash,
		RollNumber:   in.RollNumber,
		Phone:        in.Phone,
		NativePlace:  in.NativePlace,
		AcademicRecord: models.AcademicRecord{
			CGPA:             in.CGPA,
			Arrears:          in.Arrears,
			HistoryOfArrears: in.History,
			TenthPercent:     in.Tenth,
			TwelfthPercent:   in.Twelfth,
			Batch:            in.Batch,
		},
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	sess, err := h.startSession(w, r, u)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.AuditLog.UserRegistered(ctx, r, u.ID, u.Role, "password")
	h.Log.Info("student registered", zap.String("user_id", u.ID.Hex()))
	respond.Created(w, sess)
}

// startSession sets the session cookie and, when a token issuer is
// configured, issues a bearer token for API clients.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, u models.User) (Session, error) {
	su := auth.SessionUser{ID: u.ID.Hex(), Name: u.Name, Email: u.Email, Role: u.Role}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		return Session{}, apperr.Internal(err, "save session")
	}
	sess := Session{User: u}
	if tokens := h.SessionMgr.Tokens(); tokens != nil {
		tok, exp, err := tokens.Issue(su)
		if err != nil {
			return Session{}, apperr.Internal(err, "issue token")
		}
		sess.Token, sess.ExpiresAt = tok, &exp
	}
	return sess, nil
}
