// internal/app/features/onboarding/handler.go
package onboarding

import (
	"context"
	"errors"
	"net/http"
	"time"

	apierrors "github.com/chapterhub/chapterhub/internal/app/features/errors"
	"github.com/chapterhub/chapterhub/internal/app/features/shared"
	"github.com/chapterhub/chapterhub/internal/app/policy/permissions"
	chapterstore "github.com/chapterhub/chapterhub/internal/app/store/chapters"
	notificationstore "github.com/chapterhub/chapterhub/internal/app/store/notifications"
	userstore "github.com/chapterhub/chapterhub/internal/app/store/users"
	"github.com/chapterhub/chapterhub/internal/app/system/gates"
	"github.com/chapterhub/chapterhub/internal/app/system/normalize"
	onboardingsm "github.com/chapterhub/chapterhub/internal/app/system/onboarding"
	"github.com/chapterhub/chapterhub/internal/app/system/timeouts"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler drives the onboarding pipeline: registration, review decisions,
// call scheduling, activity-earned advancement, and record repair.
type Handler struct {
	Users         *userstore.Store
	Chapters      *chapterstore.Store
	Notifications *notificationstore.Store
	Sweeper       *onboardingsm.Sweeper
	Deps          onboardingsm.Deps
	ErrLog        *apierrors.ErrorLogger
	Log           *zap.Logger
}

func NewHandler(
	users *userstore.Store,
	chapters *chapterstore.Store,
	notifications *notificationstore.Store,
	sweeper *onboardingsm.Sweeper,
	deps onboardingsm.Deps,
	errLog *apierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:         users,
		Chapters:      chapters,
		Notifications: notifications,
		Sweeper:       sweeper,
		Deps:          deps,
		ErrLog:        errLog,
		Log:           logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /onboarding/register                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

type registerRequest struct {
	Name      string                    `json:"name"`
	Email     string                    `json:"email"`
	Password  string                    `json:"password"`
	Chapter   string                    `json:"chapter"`
	Instagram string                    `json:"instagram"`
	Answers   *models.OnboardingAnswers `json:"answers"`
}

// ServeRegister handles a public application. The new user starts as an
// Applicant awaiting review, and the chapter's organizers are notified —
// escalating to the regional organiser, then global admins, when the
// chapter has nobody closer.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !shared.Decode(w, r, &req) {
		return
	}
	req.Name = normalize.Name(req.Name)
	req.Chapter = normalize.ChapterName(req.Chapter)
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Chapter == "" {
		apierrors.RenderBadRequest(w, "name, email, password and chapter are required")
		return
	}
	if req.Answers == nil || req.Answers.VeganReason == "" {
		apierrors.RenderBadRequest(w, "application answers are required")
		return
	}
	if len(req.Password) < 8 {
		apierrors.RenderBadRequest(w, "password must be at least 8 characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	chapter, err := h.Chapters.GetByName(ctx, req.Chapter)
	if err != nil {
		if errors.Is(err, chapterstore.ErrNotFound) {
			apierrors.RenderBadRequest(w, "unknown chapter")
			return
		}
		h.ErrLog.Internal(w, r, "register chapter lookup", err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.ErrLog.Internal(w, r, "register password hash", err)
		return
	}

	created, err := h.Users.Create(ctx, models.User{
		Name:              req.Name,
		Email:             req.Email,
		PasswordHash:      string(hash),
		Instagram:         normalize.Instagram(req.Instagram),
		Chapters:          []string{chapter.Name},
		OnboardingAnswers: req.Answers,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			apierrors.RenderConflict(w, "an account with that email already exists")
			return
		}
		h.ErrLog.Internal(w, r, "register create user", err)
		return
	}

	h.notifyNewApplicant(ctx, created, chapter)

	shared.JSON(w, http.StatusCreated, created)
}

// notifyNewApplicant fans a new-applicant notification out to the closest
// responsible organizer tier.
func (h *Handler) notifyNewApplicant(ctx context.Context, applicant models.User, chapter *models.Chapter) {
	recipients, err := h.Users.OrganisersOf(ctx, chapter.Name)
	if err == nil && len(recipients) == 0 {
		recipients, err = h.Users.RegionalOrganisersOf(ctx, chapter.Country)
	}
	if err == nil && len(recipients) == 0 {
		recipients, err = h.Users.GlobalAdmins(ctx)
	}
	if err != nil {
		h.Log.Error("failed to resolve applicant reviewers", zap.Error(err))
		return
	}

	ids := make([]primitive.ObjectID, 0, len(recipients))
	for _, u := range recipients {
		ids = append(ids, u.ID)
	}
	err = h.Notifications.CreateForUsers(ctx, ids, models.Notification{
		Type:          models.NotifNewApplicant,
		Message:       applicant.Name + " applied to join " + chapter.Name,
		LinkTo:        "/members/" + applicant.ID.Hex(),
		RelatedUserID: &applicant.ID,
	})
	if err != nil {
		h.Log.Error("failed to notify reviewers", zap.Error(err))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Review decisions and pipeline steps                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// target loads the user a pipeline action addresses and gates the actor on
// VerifyUser against them. Returns nil if a response was already written.
func (h *Handler) target(ctx context.Context, w http.ResponseWriter, r *http.Request) *models.User {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.RenderBadRequest(w, "invalid user id")
		return nil
	}

	target, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			apierrors.RenderNotFound(w, "user not found")
			return nil
		}
		h.ErrLog.Internal(w, r, "onboarding target lookup", err)
		return nil
	}

	allChapters, err := h.Chapters.All(ctx)
	if err != nil {
		h.ErrLog.Internal(w, r, "onboarding chapter snapshot", err)
		return nil
	}

	res := gates.RequirePermission(w, r, permissions.VerifyUser,
		permissions.TargetUserContext{Target: target, AllChapters: allChapters},
		"you can't manage onboarding for this member")
	if !res.OK {
		return nil
	}
	return target
}

// step applies one transition to the target and persists it, writing a
// 409 when the move is not legal from the target's current status.
func (h *Handler) step(ctx context.Context, w http.ResponseWriter, r *http.Request, target *models.User, to models.OnboardingStatus) bool {
	if err := onboardingsm.Transition(target, to); err != nil {
		if errors.Is(err, onboardingsm.ErrInvalidTransition) {
			apierrors.RenderConflict(w, "cannot move from "+string(target.OnboardingStatus)+" to "+string(to))
			return false
		}
		h.ErrLog.Internal(w, r, "onboarding transition", err)
		return false
	}
	if err := h.Users.SetOnboardingStatus(ctx, target.ID, target.OnboardingStatus); err != nil {
		h.ErrLog.Internal(w, r, "onboarding persist status", err)
		return false
	}
	return true
}

func (h *Handler) notify(ctx context.Context, userID primitive.ObjectID, typ models.NotificationType, msg string) {
	_, err := h.Notifications.Create(ctx, models.Notification{
		UserID:  userID,
		Type:    typ,
		Message: msg,
	})
	if err != nil {
		h.Log.Error("failed to create notification", zap.Error(err))
	}
}

// ServeApprove moves an applicant from review to the onboarding call queue.
func (h *Handler) ServeApprove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	target := h.target(ctx, w, r)
	if target == nil {
		return
	}
	if !h.step(ctx, w, r, target, models.StatusPendingOnboardingCall) {
		return
	}
	h.notify(ctx, target.ID, models.NotifRequestAccepted,
		"Your application was accepted. Next step: schedule your onboarding call.")
	shared.JSON(w, http.StatusOK, target)
}

// ServeDeny rejects an application. Denial is terminal.
func (h *Handler) ServeDeny(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	target := h.target(ctx, w, r)
	if target == nil {
		return
	}
	if !h.step(ctx, w, r, target, models.StatusDenied) {
		return
	}
	h.notify(ctx, target.ID, models.NotifRequestDenied, "Your application was not accepted.")
	shared.JSON(w, http.StatusOK, target)
}

// ServeDeactivate marks a member who dropped out mid-pipeline inactive.
func (h *Handler) ServeDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	target := h.target(ctx, w, r)
	if target == nil {
		return
	}
	if !h.step(ctx, w, r, target, models.StatusInactive) {
		return
	}
	shared.JSON(w, http.StatusOK, target)
}

type scheduleCallRequest struct {
	Type        string    `json:"type"` // "onboarding" | "revision"
	At          time.Time `json:"at"`
	ContactInfo string    `json:"contact_info"`
}

// ServeScheduleCall records when a call will happen. Scheduling stores the
// slot; it never advances the pipeline — completing the call does.
func (h *Handler) ServeScheduleCall(w http.ResponseWriter, r *http.Request) {
	var req scheduleCallRequest
	if !shared.Decode(w, r, &req) {
		return
	}
	if req.At.IsZero() {
		apierrors.RenderBadRequest(w, "a call time is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	target := h.target(ctx, w, r)
	if target == nil {
		return
	}

	var err error
	switch req.Type {
	case "onboarding":
		err = h.Users.ScheduleOnboardingCall(ctx, target.ID, req.At)
	case "revision":
		err = h.Users.ScheduleRevisionCall(ctx, target.ID, req.At)
	default:
		apierrors.RenderBadRequest(w, `call type must be "onboarding" or "revision"`)
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "schedule call", err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "scheduled"})
}

// ServeCompleteCall records that a call took place and moves the member to
// the next pipeline step: the onboarding call releases them to attend their
// first cube; the revision call confirms them (promoting Applicants to
// Activists).
func (h *Handler) ServeCompleteCall(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	target := h.target(ctx, w, r)
	if target == nil {
		return
	}

	switch target.OnboardingStatus {
	case models.StatusPendingOnboardingCall:
		if !h.step(ctx, w, r, target, models.StatusAwaitingFirstCube) {
			return
		}
		h.notify(ctx, target.ID, models.NotifRequestAccepted,
			"Onboarding call done. Next step: attend your first cube.")

	case models.StatusAwaitingRevisionCall:
		if err := onboardingsm.Transition(target, models.StatusConfirmed); err != nil {
			h.ErrLog.Internal(w, r, "confirm transition", err)
			return
		}
		role := target.Role
		if role == models.RoleApplicant {
			role = models.RoleActivist
		}
		if err := h.Users.SetRoleAndStatus(ctx, target.ID, role, models.StatusConfirmed); err != nil {
			h.ErrLog.Internal(w, r, "confirm persist", err)
			return
		}
		target.Role = role
		h.notify(ctx, target.ID, models.NotifRoleUpdated,
			"You're confirmed. Welcome aboard!")

	default:
		apierrors.RenderConflict(w, "no call is pending for status "+string(target.OnboardingStatus))
		return
	}

	shared.JSON(w, http.StatusOK, target)
}

// ServeMasterclass marks the masterclass watched. Members flag their own
// progress; the activity-earned advance runs right after so the status
// catches up immediately.
func (h *Handler) ServeMasterclass(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.RenderBadRequest(w, "invalid user id")
		return
	}
	if res.Actor.ID != id {
		apierrors.RenderForbidden(w, r, "you can only record your own masterclass progress")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.MarkMasterclassWatched(ctx, id); err != nil {
		h.ErrLog.Internal(w, r, "mark masterclass", err)
		return
	}
	h.advance(ctx, w, r, id)
}

// ServeAdvance re-evaluates the activity-earned steps for a member (first
// cube attended, masterclass watched) and applies at most one transition.
func (h *Handler) ServeAdvance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	target := h.target(ctx, w, r)
	if target == nil {
		return
	}
	h.advance(ctx, w, r, target.ID)
}

func (h *Handler) advance(ctx context.Context, w http.ResponseWriter, r *http.Request, id primitive.ObjectID) {
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Internal(w, r, "advance lookup", err)
		return
	}

	moved, err := onboardingsm.AdvanceOne(ctx, u, h.Deps)
	if err != nil {
		h.ErrLog.Internal(w, r, "advance evaluate", err)
		return
	}
	if moved {
		if err := h.Users.SetOnboardingStatus(ctx, u.ID, u.OnboardingStatus); err != nil {
			h.ErrLog.Internal(w, r, "advance persist", err)
			return
		}
	}
	shared.JSON(w, http.StatusOK, map[string]any{
		"advanced": moved,
		"status":   u.OnboardingStatus,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Record health                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

type validateResponse struct {
	IsValid bool                 `json:"isValid"`
	Issues  []onboardingsm.Issue `json:"issues"`
}

// ServeValidate reports inconsistencies in one member's onboarding record.
func (h *Handler) ServeValidate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	target := h.target(ctx, w, r)
	if target == nil {
		return
	}

	issues, err := onboardingsm.Validate(ctx, target, h.Deps)
	if err != nil {
		h.ErrLog.Internal(w, r, "validate record", err)
		return
	}
	shared.JSON(w, http.StatusOK, validateResponse{
		IsValid: len(issues) == 0,
		Issues:  issues,
	})
}

// ServeFix runs the repair sweep over every sweepable record and persists
// the fixes. Same logic as the background worker, on demand.
func (h *Handler) ServeFix(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireMinRole(w, r, models.RoleGlobalAdmin, "only global admins can run the repair sweep")
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	result, err := h.Sweeper.Run(ctx)
	if err != nil {
		h.ErrLog.Internal(w, r, "fix sweep", err)
		return
	}
	shared.JSON(w, http.StatusOK, result)
}
