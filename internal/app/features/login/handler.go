// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"

	apierrors "github.com/chapterhub/chapterhub/internal/app/features/errors"
	"github.com/chapterhub/chapterhub/internal/app/features/shared"
	userstore "github.com/chapterhub/chapterhub/internal/app/store/users"
	"github.com/chapterhub/chapterhub/internal/app/system/auth"
	"github.com/chapterhub/chapterhub/internal/app/system/normalize"
	"github.com/chapterhub/chapterhub/internal/app/system/ratelimit"
	"github.com/chapterhub/chapterhub/internal/app/system/timeouts"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	ErrLog     *apierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(users *userstore.Store, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		ErrLog:     errLog,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// dummyHash keeps the response timing of a miss close to that of a hit.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// ServeLogin handles POST /login.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !shared.Decode(w, r, &req) {
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		apierrors.RenderBadRequest(w, "email and password are required")
		return
	}

	if allowed, reason := h.Limiter.Check(r, email); !allowed {
		apierrors.Render(w, http.StatusTooManyRequests, reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			apierrors.Render(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.ErrLog.Internal(w, r, "login lookup", err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		h.Log.Info("login failed", zap.String("email", email), zap.String("ip", ratelimit.ClientIP(r)))
		apierrors.Render(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.ErrLog.Internal(w, r, "login session", err)
		return
	}
	if err := h.Users.UpdateLastLogin(ctx, u.ID); err != nil {
		// Non-fatal; the login itself succeeded.
		h.Log.Warn("failed to record last login", zap.Error(err))
	}
	h.Limiter.ResetEmail(email)

	shared.JSON(w, http.StatusOK, loginResponse{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
	})
}
