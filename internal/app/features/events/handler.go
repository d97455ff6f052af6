// internal/app/features/events/handler.go
package events

import (
	"context"
	"errors"
	"net/http"
	"time"

	apierrors "github.com/chapterhub/chapterhub/internal/app/features/errors"
	"github.com/chapterhub/chapterhub/internal/app/features/shared"
	"github.com/chapterhub/chapterhub/internal/app/policy/permissions"
	chapterstore "github.com/chapterhub/chapterhub/internal/app/store/chapters"
	eventstore "github.com/chapterhub/chapterhub/internal/app/store/events"
	notificationstore "github.com/chapterhub/chapterhub/internal/app/store/notifications"
	userstore "github.com/chapterhub/chapterhub/internal/app/store/users"
	"github.com/chapterhub/chapterhub/internal/app/system/gates"
	"github.com/chapterhub/chapterhub/internal/app/system/normalize"
	"github.com/chapterhub/chapterhub/internal/app/system/timeouts"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves cube event scheduling, RSVPs, and report logging.
type Handler struct {
	Events        *eventstore.Store
	Users         *userstore.Store
	Chapters      *chapterstore.Store
	Notifications *notificationstore.Store
	ErrLog        *apierrors.ErrorLogger
	Log           *zap.Logger
}

func NewHandler(
	events *eventstore.Store,
	users *userstore.Store,
	chapters *chapterstore.Store,
	notifications *notificationstore.Store,
	errLog *apierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Events:        events,
		Users:         users,
		Chapters:      chapters,
		Notifications: notifications,
		ErrLog:        errLog,
		Log:           logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Calendar                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeList handles GET /events. Open to any signed-in member; filters by
// city, status, and from date.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	filter := eventstore.ListFilter{
		City:   normalize.QueryParam(query.Get(r, "city")),
		Status: models.EventStatus(normalize.QueryParam(query.Get(r, "status"))),
	}
	if from := query.Get(r, "from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			apierrors.RenderBadRequest(w, "from must be YYYY-MM-DD")
			return
		}
		filter.FromDate = &t
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Events.List(ctx, filter)
	if err != nil {
		h.ErrLog.Internal(w, r, "list events", err)
		return
	}
	if events == nil {
		events = []models.CubeEvent{}
	}
	shared.JSON(w, http.StatusOK, events)
}

// ServeGet handles GET /events/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ev, ok := h.loadEvent(ctx, w, r)
	if !ok {
		return
	}
	shared.JSON(w, http.StatusOK, ev)
}

type createRequest struct {
	Name         string            `json:"name"`
	City         string            `json:"city"`
	Location     string            `json:"location"`
	StartDate    time.Time         `json:"start_date"`
	EndDate      *time.Time        `json:"end_date,omitempty"`
	Scope        models.EventScope `json:"scope,omitempty"`
	TargetRegion string            `json:"target_region,omitempty"`
}

// ServeCreate handles POST /events.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !shared.Decode(w, r, &req) {
		return
	}
	req.Name = normalize.QueryParam(req.Name)
	req.City = normalize.ChapterName(req.City)
	if req.Name == "" || req.City == "" || req.Location == "" || req.StartDate.IsZero() {
		apierrors.RenderBadRequest(w, "name, city, location, and start_date are required")
		return
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		apierrors.RenderBadRequest(w, "end_date is before start_date")
		return
	}

	res := gates.RequirePermission(w, r, permissions.CreateEvent, permissions.None{},
		"only organisers can schedule events")
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	allChapters, err := h.Chapters.All(ctx)
	if err != nil {
		h.ErrLog.Internal(w, r, "chapter snapshot", err)
		return
	}
	if _, found := models.CountryOf(req.City, allChapters); !found {
		apierrors.RenderBadRequest(w, "unknown chapter: "+req.City)
		return
	}

	ev, err := h.Events.Create(ctx, models.CubeEvent{
		Name:          req.Name,
		City:          req.City,
		Location:      req.Location,
		StartDate:     req.StartDate.UTC(),
		EndDate:       req.EndDate,
		Scope:         req.Scope,
		TargetRegion:  req.TargetRegion,
		OrganizerID:   res.Actor.ID,
		OrganizerName: res.Actor.Name,
	})
	if err != nil {
		h.ErrLog.Internal(w, r, "create event", err)
		return
	}
	shared.JSON(w, http.StatusCreated, ev)
}

type updateRequest struct {
	Name      string     `json:"name"`
	Location  string     `json:"location"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// ServeUpdate handles PUT /events/{id}. Participants with an Attending
// RSVP are notified of the change.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !shared.Decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.Location == "" || req.StartDate.IsZero() {
		apierrors.RenderBadRequest(w, "name, location, and start_date are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, res, ok := h.gateEvent(ctx, w, r, permissions.EditEvent,
		"you can't edit this event")
	if !ok {
		return
	}

	err := h.Events.Update(ctx, ev.ID, eventstore.Update{
		Name:      req.Name,
		Location:  req.Location,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		h.renderStoreError(w, r, "update event", err)
		return
	}

	h.notifyParticipants(ctx, ev, res.Actor.ID,
		"The event "+ev.Name+" has been updated")
	shared.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// ServeCancel handles POST /events/{id}/cancel. Cancelling is terminal.
func (h *Handler) ServeCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if !shared.Decode(w, r, &req) {
		return
	}
	if req.Reason == "" {
		apierrors.RenderBadRequest(w, "a cancellation reason is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, res, ok := h.gateEvent(ctx, w, r, permissions.CancelEvent,
		"you can't cancel this event")
	if !ok {
		return
	}

	if err := h.Events.Cancel(ctx, ev.ID, req.Reason); err != nil {
		h.renderStoreError(w, r, "cancel event", err)
		return
	}

	h.notifyParticipants(ctx, ev, res.Actor.ID,
		"The event "+ev.Name+" has been cancelled: "+req.Reason)
	shared.JSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Participants                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

type rsvpRequest struct {
	Status models.ParticipantStatus `json:"status"`
}

// ServeRSVP handles POST /events/{id}/rsvp. Any signed-in member may
// answer for themselves; no permission gate applies.
func (h *Handler) ServeRSVP(w http.ResponseWriter, r *http.Request) {
	var req rsvpRequest
	if !shared.Decode(w, r, &req) {
		return
	}
	switch req.Status {
	case models.ParticipantAttending, models.ParticipantDeclined, models.ParticipantPending:
	default:
		apierrors.RenderBadRequest(w, "status must be Attending, Declined, or Pending")
		return
	}

	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, ok := h.loadEvent(ctx, w, r)
	if !ok {
		return
	}

	err := h.Events.SetRSVP(ctx, ev.ID, res.Actor.ID, res.Actor.Name, req.Status)
	if err != nil {
		h.renderStoreError(w, r, "rsvp", err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

// ServeRemoveParticipant handles DELETE /events/{id}/participants/{userID}.
func (h *Handler) ServeRemoveParticipant(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		apierrors.RenderBadRequest(w, "invalid participant id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, _, ok := h.gateEvent(ctx, w, r, permissions.ManageEventParticipants,
		"you can't manage this event's participants")
	if !ok {
		return
	}

	if err := h.Events.RemoveParticipant(ctx, ev.ID, userID); err != nil {
		h.renderStoreError(w, r, "remove participant", err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type dutiesRequest struct {
	Duties []models.TourDuty `json:"duties"`
}

// ServeSetTourDuties handles PUT /events/{id}/participants/{userID}/duties.
func (h *Handler) ServeSetTourDuties(w http.ResponseWriter, r *http.Request) {
	var req dutiesRequest
	if !shared.Decode(w, r, &req) {
		return
	}
	for _, d := range req.Duties {
		if _, err := time.Parse("2006-01-02", d.Date); err != nil {
			apierrors.RenderBadRequest(w, "duty dates must be YYYY-MM-DD")
			return
		}
	}

	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		apierrors.RenderBadRequest(w, "invalid participant id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, _, ok := h.gateEvent(ctx, w, r, permissions.ManageEventParticipants,
		"you can't manage this event's participants")
	if !ok {
		return
	}

	if err := h.Events.SetTourDuties(ctx, ev.ID, userID, req.Duties); err != nil {
		if errors.Is(err, eventstore.ErrNotFound) {
			apierrors.RenderNotFound(w, "participant not found on this event")
			return
		}
		h.ErrLog.Internal(w, r, "set tour duties", err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]any{"duties": req.Duties})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Reports                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type reportRequest struct {
	Hours      float64           `json:"hours"`
	Attendance map[string]string `json:"attendance"` // userID hex -> Attended|Absent
}

// ServeLogReport handles POST /events/{id}/report. The report is final:
// it moves the event to Finished and bumps each attendee's stats, which
// in turn feeds the first-cube onboarding check.
func (h *Handler) ServeLogReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if !shared.Decode(w, r, &req) {
		return
	}
	if req.Hours < 0 {
		apierrors.RenderBadRequest(w, "hours cannot be negative")
		return
	}
	for id, mark := range req.Attendance {
		if _, err := primitive.ObjectIDFromHex(id); err != nil {
			apierrors.RenderBadRequest(w, "attendance keys must be member ids")
			return
		}
		if mark != models.AttendanceAttended && mark != models.AttendanceAbsent {
			apierrors.RenderBadRequest(w, "attendance marks must be Attended or Absent")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	ev, res, ok := h.gateEvent(ctx, w, r, permissions.LogEventReport,
		"you can't log a report for this event")
	if !ok {
		return
	}

	err := h.Events.LogReport(ctx, ev.ID, models.EventReport{
		Hours:      req.Hours,
		Attendance: req.Attendance,
		LoggedBy:   res.Actor.ID,
	})
	if err != nil {
		h.renderStoreError(w, r, "log report", err)
		return
	}

	// Credit each attendee. A failed increment is logged, not fatal: the
	// report itself is already recorded.
	for idHex, mark := range req.Attendance {
		if mark != models.AttendanceAttended {
			continue
		}
		id, _ := primitive.ObjectIDFromHex(idHex)
		if err := h.Users.IncrementStats(ctx, id, req.Hours, 1); err != nil {
			h.Log.Error("failed to credit attendee stats",
				zap.String("user_id", idHex), zap.Error(err))
		}
	}
	shared.JSON(w, http.StatusCreated, map[string]string{"status": "reported"})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) loadEvent(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.CubeEvent, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.RenderBadRequest(w, "invalid event id")
		return nil, false
	}

	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, eventstore.ErrNotFound) {
			apierrors.RenderNotFound(w, "event not found")
			return nil, false
		}
		h.ErrLog.Internal(w, r, "event lookup", err)
		return nil, false
	}
	return ev, true
}

// gateEvent resolves the {id} event and checks perm against it with the
// chapter snapshot loaded. Returns ok=false if a response was written.
func (h *Handler) gateEvent(ctx context.Context, w http.ResponseWriter, r *http.Request, perm permissions.Permission, forbiddenMsg string) (*models.CubeEvent, gates.Result, bool) {
	ev, ok := h.loadEvent(ctx, w, r)
	if !ok {
		return nil, gates.Result{}, false
	}

	allChapters, err := h.Chapters.All(ctx)
	if err != nil {
		h.ErrLog.Internal(w, r, "chapter snapshot", err)
		return nil, gates.Result{}, false
	}

	res := gates.RequirePermission(w, r, perm,
		permissions.EventContext{Event: ev, AllChapters: allChapters}, forbiddenMsg)
	if !res.OK {
		return nil, gates.Result{}, false
	}
	return ev, res, true
}

// notifyParticipants fans an event-updated notification out to everyone
// with an Attending RSVP, except the acting organizer.
func (h *Handler) notifyParticipants(ctx context.Context, ev *models.CubeEvent, actorID primitive.ObjectID, msg string) {
	var ids []primitive.ObjectID
	for _, p := range ev.Participants {
		if p.Status == models.ParticipantAttending && p.UserID != actorID {
			ids = append(ids, p.UserID)
		}
	}
	if len(ids) == 0 {
		return
	}

	err := h.Notifications.CreateForUsers(ctx, ids, models.Notification{
		Type:    models.NotifEventUpdated,
		Message: msg,
		LinkTo:  "/events/" + ev.ID.Hex(),
	})
	if err != nil {
		h.Log.Error("failed to notify participants",
			zap.String("event_id", ev.ID.Hex()), zap.Error(err))
	}
}

func (h *Handler) renderStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, eventstore.ErrCancelled):
		apierrors.RenderConflict(w, "this event has been cancelled")
	case errors.Is(err, eventstore.ErrAlreadyReported):
		apierrors.RenderConflict(w, "this event already has a report")
	case errors.Is(err, eventstore.ErrNotFound):
		apierrors.RenderNotFound(w, "event not found")
	default:
		h.ErrLog.Internal(w, r, op, err)
	}
}
