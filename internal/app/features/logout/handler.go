// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/chapterhub/chapterhub/internal/app/features/shared"
	"github.com/chapterhub/chapterhub/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sessionMgr, Log: logger}
}

// ServeLogout handles POST /logout. Signing out an already signed-out
// request is a no-op success.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("logout failed", zap.Error(err))
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}
