// internal/app/features/outreach/handler.go
package outreach

import (
	"context"
	"net/http"

	apierrors "github.com/chapterhub/chapterhub/internal/app/features/errors"
	"github.com/chapterhub/chapterhub/internal/app/features/shared"
	outreachstore "github.com/chapterhub/chapterhub/internal/app/store/outreach"
	userstore "github.com/chapterhub/chapterhub/internal/app/store/users"
	"github.com/chapterhub/chapterhub/internal/app/system/gates"
	"github.com/chapterhub/chapterhub/internal/app/system/htmlsanitize"
	"github.com/chapterhub/chapterhub/internal/app/system/timeouts"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const listLimit = 100

// Handler serves an activist's outreach conversation log.
type Handler struct {
	Outreach *outreachstore.Store
	Users    *userstore.Store
	ErrLog   *apierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(outreach *outreachstore.Store, users *userstore.Store, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Outreach: outreach, Users: users, ErrLog: errLog, Log: logger}
}

type logRequest struct {
	Outcome models.OutreachOutcome `json:"outcome"`
	EventID string                 `json:"event_id,omitempty"`
	Notes   string                 `json:"notes,omitempty"`
}

// ServeLog handles POST /outreach: record one conversation the signed-in
// activist had. A "Became Vegan" outcome also counts as a conversion.
func (h *Handler) ServeLog(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if !shared.Decode(w, r, &req) {
		return
	}
	switch req.Outcome {
	case models.OutcomeBecameVegan, models.OutcomeConsideringVegan,
		models.OutcomeMostlyPositive, models.OutcomeNeutral, models.OutcomeDismissive:
	default:
		apierrors.RenderBadRequest(w, "unknown conversation outcome")
		return
	}

	var eventID *primitive.ObjectID
	if req.EventID != "" {
		id, err := primitive.ObjectIDFromHex(req.EventID)
		if err != nil {
			apierrors.RenderBadRequest(w, "invalid event id")
			return
		}
		eventID = &id
	}

	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	entry, err := h.Outreach.Create(ctx, models.OutreachLog{
		UserID:  res.Actor.ID,
		EventID: eventID,
		Outcome: req.Outcome,
		Notes:   htmlsanitize.Sanitize(req.Notes),
	})
	if err != nil {
		h.ErrLog.Internal(w, r, "log outreach", err)
		return
	}

	conversions := 0
	if req.Outcome == models.OutcomeBecameVegan {
		conversions = 1
	}
	if err := h.Users.IncrementOutreachStats(ctx, res.Actor.ID, 1, conversions); err != nil {
		h.Log.Error("failed to credit outreach stats",
			zap.String("user_id", res.Actor.ID.Hex()), zap.Error(err))
	}
	shared.JSON(w, http.StatusCreated, entry)
}

type listResponse struct {
	Logs   []models.OutreachLog             `json:"logs"`
	Counts map[models.OutreachOutcome]int64 `json:"counts"`
}

// ServeList handles GET /outreach: the signed-in activist's own log with
// per-outcome totals.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	logs, err := h.Outreach.ListForUser(ctx, res.Actor.ID, listLimit)
	if err != nil {
		h.ErrLog.Internal(w, r, "list outreach", err)
		return
	}
	if logs == nil {
		logs = []models.OutreachLog{}
	}

	counts, err := h.Outreach.OutcomeCounts(ctx, res.Actor.ID)
	if err != nil {
		h.ErrLog.Internal(w, r, "outreach counts", err)
		return
	}
	shared.JSON(w, http.StatusOK, listResponse{Logs: logs, Counts: counts})
}
