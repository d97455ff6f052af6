// internal/app/features/members/handler.go
package members

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
	"github.com/chapterhub/chapterhub/internal/app/system/htmlsanitize"
	"github.com/chapterhub/chapterhub/internal/app/system/normalize"
	"github.com/chapterhub/chapterhub/internal/app/system/paging"
	"github.com/chapterhub/chapterhub/internal/app/system/timeouts"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Handler serves the member directory and member management actions.
type Handler struct {
	Users         *userstore.Store
	Chapters      *chapterstore.Store
	Notifications *notificationstore.Store
	ErrLog        *apierrors.ErrorLogger
	Log           *zap.Logger
}

func NewHandler(
	users *userstore.Store,
	chapters *chapterstore.Store,
	notifications *notificationstore.Store,
	errLog *apierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:         users,
		Chapters:      chapters,
		Notifications: notifications,
		ErrLog:        errLog,
		Log:           logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Directory                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

type listResponse struct {
	Members []models.User `json:"members"`
	HasPrev bool          `json:"has_prev"`
	HasNext bool          `json:"has_next"`
	Prev    string        `json:"prev,omitempty"`
	Next    string        `json:"next,omitempty"`
}

// ServeList handles GET /members: the paged, searchable directory.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequirePermission(w, r, permissions.ViewMemberDirectory, permissions.None{},
		"the member directory is for organizers")
	if !res.OK {
		return
	}

	before := query.Get(r, "before")
	after := query.Get(r, "after")
	cfg := paging.ConfigureKeyset(before, after)

	find := options.Find()
	cfg.ApplyToFind(find, "name_ci")

	filter := userstore.ListFilter{
		Chapter: normalize.QueryParam(query.Get(r, "chapter")),
		Role:    models.Role(normalize.QueryParam(query.Get(r, "role"))),
		Search:  normalize.QueryParam(query.Get(r, "q")),
		Window:  cfg.KeysetWindow("name_ci"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	members, err := h.Users.List(ctx, filter, find)
	if err != nil {
		h.ErrLog.Internal(w, r, "list members", err)
		return
	}

	page := paging.TrimPage(&members, before, after)
	if cfg.Direction == paging.Backward {
		paging.Reverse(members)
	}
	prev, next := paging.BuildCursors(members,
		func(u models.User) string { return u.NameCI },
		func(u models.User) primitive.ObjectID { return u.ID })

	resp := listResponse{
		Members: members,
		HasPrev: page.HasPrev,
		HasNext: page.HasNext,
	}
	if page.HasPrev {
		resp.Prev = prev
	}
	if page.HasNext {
		resp.Next = next
	}
	shared.JSON(w, http.StatusOK, resp)
}

// ServeGet handles GET /members/{id}. Any signed-in member can view a
// profile; organizer notes stay hidden unless the viewer may see them.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	target, allChapters, ok := h.load(ctx, w, r)
	if !ok {
		return
	}

	type profileResponse struct {
		models.User
		OrganizerNotes []models.OrganizerNote `json:"organizer_notes,omitempty"`
	}
	resp := profileResponse{User: *target}
	if permissions.Can(res.Actor, permissions.ViewOrganizerNotes,
		permissions.TargetUserContext{Target: target, AllChapters: allChapters}) {
		resp.OrganizerNotes = target.OrganizerNotes
	}
	shared.JSON(w, http.StatusOK, resp)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Role and scope management                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

type roleRequest struct {
	Role models.Role `json:"role"`
}

// ServeUpdateRole handles PUT /members/{id}/role. The assignable-role
// ceiling and the demotion side effects both apply.
func (h *Handler) ServeUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !shared.Decode(w, r, &req) {
		return
	}
	if !req.Role.IsValid() {
		apierrors.RenderBadRequest(w, "unknown role")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	target, allChapters, ok := h.load(ctx, w, r)
	if !ok {
		return
	}

	res := gates.RequirePermission(w, r, permissions.EditUserRoles,
		permissions.TargetUserContext{Target: target, AllChapters: allChapters},
		"you can't change this member's role")
	if !res.OK {
		return
	}
	if !roleAssignable(res.Actor, req.Role) {
		apierrors.RenderForbidden(w, r, "you can't assign a role that high")
		return
	}

	if err := h.Users.UpdateRole(ctx, target.ID, req.Role); err != nil {
		h.ErrLog.Internal(w, r, "update role", err)
		return
	}

	_, err := h.Notifications.Create(ctx, models.Notification{
		UserID:  target.ID,
		Type:    models.NotifRoleUpdated,
		Message: "Your role is now " + string(req.Role),
	})
	if err != nil {
		h.Log.Error("failed to create role notification", zap.Error(err))
	}
	shared.JSON(w, http.StatusOK, map[string]string{"role": string(req.Role)})
}

func roleAssignable(actor *models.User, role models.Role) bool {
	for _, r := range permissions.AssignableRoles(actor) {
		if r == role {
			return true
		}
	}
	return false
}

type chaptersRequest struct {
	Chapters []string `json:"chapters"`
}

// ServeUpdateChapters handles PUT /members/{id}/chapters.
func (h *Handler) ServeUpdateChapters(w http.ResponseWriter, r *http.Request) {
	var req chaptersRequest
	if !shared.Decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	target, allChapters, ok := h.load(ctx, w, r)
	if !ok {
		return
	}

	res := gates.RequirePermission(w, r, permissions.EditUserChapters,
		permissions.TargetUserContext{Target: target, AllChapters: allChapters},
		"you can't change this member's chapters")
	if !res.OK {
		return
	}

	// Every chapter must exist.
	for i, name := range req.Chapters {
		name = normalize.ChapterName(name)
		if _, found := models.CountryOf(name, allChapters); !found {
			apierrors.RenderBadRequest(w, "unknown chapter: "+name)
			return
		}
		req.Chapters[i] = name
	}

	if err := h.Users.UpdateChapters(ctx, target.ID, req.Chapters); err != nil {
		h.ErrLog.Internal(w, r, "update chapters", err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]any{"chapters": req.Chapters})
}

// ServeUpdateOrganiserOf handles PUT /members/{id}/organiser-of. Organiser
// scope is role-adjacent, so it takes the same permission as role edits,
// and the target must already hold at least Chapter Organiser.
func (h *Handler) ServeUpdateOrganiserOf(w http.ResponseWriter, r *http.Request) {
	var req chaptersRequest
	if !shared.Decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	target, allChapters, ok := h.load(ctx, w, r)
	if !ok {
		return
	}

	res := gates.RequirePermission(w, r, permissions.EditUserRoles,
		permissions.TargetUserContext{Target: target, AllChapters: allChapters},
		"you can't change this member's organiser scope")
	if !res.OK {
		return
	}
	if target.Role.Level() < models.RoleChapterOrganiser.Level() {
		apierrors.RenderConflict(w, "only chapter organisers and above can organise chapters")
		return
	}

	for i, name := range req.Chapters {
		name = normalize.ChapterName(name)
		if _, found := models.CountryOf(name, allChapters); !found {
			apierrors.RenderBadRequest(w, "unknown chapter: "+name)
			return
		}
		req.Chapters[i] = name
	}

	if err := h.Users.UpdateOrganiserOf(ctx, target.ID, req.Chapters); err != nil {
		h.ErrLog.Internal(w, r, "update organiser scope", err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]any{"organiser_of": req.Chapters})
}

// ServeDelete handles DELETE /members/{id}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	target, allChapters, ok := h.load(ctx, w, r)
	if !ok {
		return
	}

	res := gates.RequirePermission(w, r, permissions.DeleteUser,
		permissions.TargetUserContext{Target: target, AllChapters: allChapters},
		"you can't remove this member")
	if !res.OK {
		return
	}

	if _, err := h.Users.Delete(ctx, target.ID); err != nil {
		h.ErrLog.Internal(w, r, "delete member", err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Organizer notes and badges                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeListNotes handles GET /members/{id}/notes.
func (h *Handler) ServeListNotes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	target, allChapters, ok := h.load(ctx, w, r)
	if !ok {
		return
	}

	res := gates.RequirePermission(w, r, permissions.ViewOrganizerNotes,
		permissions.TargetUserContext{Target: target, AllChapters: allChapters},
		"organizer notes are not visible to you")
	if !res.OK {
		return
	}
	notes := target.OrganizerNotes
	if notes == nil {
		notes = []models.OrganizerNote{}
	}
	shared.JSON(w, http.StatusOK, notes)
}

type noteRequest struct {
	Content string `json:"content"`
}

// ServeAddNote handles POST /members/{id}/notes. Content is sanitized
// before storage.
func (h *Handler) ServeAddNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !shared.Decode(w, r, &req) {
		return
	}
	content := htmlsanitize.Sanitize(req.Content)
	if content == "" {
		apierrors.RenderBadRequest(w, "note content is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	target, allChapters, ok := h.load(ctx, w, r)
	if !ok {
		return
	}

	res := gates.RequirePermission(w, r, permissions.AddOrganizerNote,
		permissions.TargetUserContext{Target: target, AllChapters: allChapters},
		"you can't add notes for this member")
	if !res.OK {
		return
	}

	note := models.OrganizerNote{
		ID:         primitive.NewObjectID(),
		AuthorID:   res.Actor.ID,
		AuthorName: res.Actor.Name,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.Users.AddOrganizerNote(ctx, target.ID, note); err != nil {
		h.ErrLog.Internal(w, r, "add organizer note", err)
		return
	}
	shared.JSON(w, http.StatusCreated, note)
}

type badgeRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// ServeAwardBadge handles POST /members/{id}/badges. The evaluator's
// self-award denial applies.
func (h *Handler) ServeAwardBadge(w http.ResponseWriter, r *http.Request) {
	var req badgeRequest
	if !shared.Decode(w, r, &req) {
		return
	}
	if req.ID == "" || req.Name == "" {
		apierrors.RenderBadRequest(w, "badge id and name are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	target, allChapters, ok := h.load(ctx, w, r)
	if !ok {
		return
	}

	res := gates.RequirePermission(w, r, permissions.AwardBadge,
		permissions.TargetUserContext{Target: target, AllChapters: allChapters},
		"you can't award badges to this member")
	if !res.OK {
		return
	}

	badge := models.EarnedBadge{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		AwardedAt:   time.Now().UTC(),
	}
	if err := h.Users.AwardBadge(ctx, target.ID, badge); err != nil {
		h.ErrLog.Internal(w, r, "award badge", err)
		return
	}

	_, err := h.Notifications.Create(ctx, models.Notification{
		UserID:  target.ID,
		Type:    models.NotifBadgeAwarded,
		Message: "You earned the " + badge.Name + " badge",
	})
	if err != nil {
		h.Log.Error("failed to create badge notification", zap.Error(err))
	}
	shared.JSON(w, http.StatusCreated, badge)
}

// ServeAssignableRoles handles GET /members/roles/assignable: the roles
// the acting user may hand out.
func (h *Handler) ServeAssignableRoles(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}
	roles := permissions.AssignableRoles(res.Actor)
	if roles == nil {
		roles = []models.Role{}
	}
	shared.JSON(w, http.StatusOK, roles)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// load resolves the {id} member and the chapter snapshot policy checks
// need. Returns ok=false if a response was already written.
func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.User, []models.Chapter, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.RenderBadRequest(w, "invalid member id")
		return nil, nil, false
	}

	target, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			apierrors.RenderNotFound(w, "member not found")
			return nil, nil, false
		}
		h.ErrLog.Internal(w, r, "member lookup", err)
		return nil, nil, false
	}

	allChapters, err := h.Chapters.All(ctx)
	if err != nil {
		h.ErrLog.Internal(w, r, "chapter snapshot", err)
		return nil, nil, false
	}
	return target, allChapters, true
}
