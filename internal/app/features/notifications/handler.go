// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"errors"
	"net/http"

	apierrors "github.com/chapterhub/chapterhub/internal/app/features/errors"
	"github.com/chapterhub/chapterhub/internal/app/features/shared"
	notificationstore "github.com/chapterhub/chapterhub/internal/app/store/notifications"
	"github.com/chapterhub/chapterhub/internal/app/system/gates"
	"github.com/chapterhub/chapterhub/internal/app/system/timeouts"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const listLimit = 50

// Handler serves a member's in-app notification feed.
type Handler struct {
	Notifications *notificationstore.Store
	ErrLog        *apierrors.ErrorLogger
	Log           *zap.Logger
}

func NewHandler(notifications *notificationstore.Store, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Notifications: notifications, ErrLog: errLog, Log: logger}
}

type listResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Unread        int64                 `json:"unread"`
}

// ServeList handles GET /notifications: the signed-in user's feed, newest
// first, with the unread count.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	feed, err := h.Notifications.ListForUser(ctx, res.Actor.ID, listLimit)
	if err != nil {
		h.ErrLog.Internal(w, r, "list notifications", err)
		return
	}
	if feed == nil {
		feed = []models.Notification{}
	}

	unread, err := h.Notifications.CountUnread(ctx, res.Actor.ID)
	if err != nil {
		h.ErrLog.Internal(w, r, "count unread", err)
		return
	}
	shared.JSON(w, http.StatusOK, listResponse{Notifications: feed, Unread: unread})
}

// ServeMarkRead handles POST /notifications/{id}/read. Owner-guarded: a
// notification can only be read by its recipient.
func (h *Handler) ServeMarkRead(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.RenderBadRequest(w, "invalid notification id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Notifications.MarkRead(ctx, id, res.Actor.ID); err != nil {
		if errors.Is(err, notificationstore.ErrNotFound) {
			apierrors.RenderNotFound(w, "notification not found")
			return
		}
		h.ErrLog.Internal(w, r, "mark read", err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// ServeMarkAllRead handles POST /notifications/read-all.
func (h *Handler) ServeMarkAllRead(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Notifications.MarkAllRead(ctx, res.Actor.ID); err != nil {
		h.ErrLog.Internal(w, r, "mark all read", err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "read"})
}
