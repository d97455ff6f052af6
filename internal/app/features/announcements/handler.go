// internal/app/features/announcements/handler.go
package announcements

import (
	"context"
	"errors"
	"net/http"

	apierrors "github.com/chapterhub/chapterhub/internal/app/features/errors"
	"github.com/chapterhub/chapterhub/internal/app/features/shared"
	"github.com/chapterhub/chapterhub/internal/app/policy/permissions"
	announcementstore "github.com/chapterhub/chapterhub/internal/app/store/announcements"
	chapterstore "github.com/chapterhub/chapterhub/internal/app/store/chapters"
	"github.com/chapterhub/chapterhub/internal/app/system/authz"
	"github.com/chapterhub/chapterhub/internal/app/system/gates"
	"github.com/chapterhub/chapterhub/internal/app/system/htmlsanitize"
	"github.com/chapterhub/chapterhub/internal/app/system/normalize"
	"github.com/chapterhub/chapterhub/internal/app/system/timeouts"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the announcement feed.
type Handler struct {
	Announcements *announcementstore.Store
	Chapters      *chapterstore.Store
	ErrLog        *apierrors.ErrorLogger
	Log           *zap.Logger
}

func NewHandler(
	announcements *announcementstore.Store,
	chapters *chapterstore.Store,
	errLog *apierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Announcements: announcements,
		Chapters:      chapters,
		ErrLog:        errLog,
		Log:           logger,
	}
}

// ServeList handles GET /announcements: the feed visible to the acting
// user, grouped Global first, then their regions, then their chapters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
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

	// The user's regions are the countries their chapters resolve to.
	var countries []string
	seen := map[string]bool{}
	for _, name := range res.Actor.Chapters {
		if country, ok := models.CountryOf(name, allChapters); ok && !seen[country] {
			seen[country] = true
			countries = append(countries, country)
		}
	}

	feed, err := h.Announcements.ListVisible(ctx, res.Actor.Chapters, countries)
	if err != nil {
		h.ErrLog.Internal(w, r, "list announcements", err)
		return
	}
	if feed == nil {
		feed = []models.Announcement{}
	}
	shared.JSON(w, http.StatusOK, feed)
}

type createRequest struct {
	Scope   models.AnnouncementScope `json:"scope"`
	Chapter string                   `json:"chapter,omitempty"`
	Country string                   `json:"country,omitempty"`
	Title   string                   `json:"title"`
	Content string                   `json:"content"`
	CTALink string                   `json:"cta_link,omitempty"`
	CTAText string                   `json:"cta_text,omitempty"`
}

// ServeCreate handles POST /announcements.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !shared.Decode(w, r, &req) {
		return
	}
	if !req.Scope.IsValid() {
		apierrors.RenderBadRequest(w, "scope must be Global, Regional, or Chapter")
		return
	}
	req.Chapter = normalize.ChapterName(req.Chapter)
	req.Country = normalize.Country(req.Country)
	switch req.Scope {
	case models.ScopeChapter:
		if req.Chapter == "" {
			apierrors.RenderBadRequest(w, "chapter-scoped announcements need a chapter")
			return
		}
	case models.ScopeRegional:
		if req.Country == "" {
			apierrors.RenderBadRequest(w, "regional announcements need a country")
			return
		}
	}
	req.Title = normalize.QueryParam(req.Title)
	req.Content = htmlsanitize.Sanitize(req.Content)
	if req.Title == "" || req.Content == "" {
		apierrors.RenderBadRequest(w, "title and content are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	allChapters, err := h.Chapters.All(ctx)
	if err != nil {
		h.ErrLog.Internal(w, r, "chapter snapshot", err)
		return
	}
	if req.Scope == models.ScopeChapter {
		if _, found := models.CountryOf(req.Chapter, allChapters); !found {
			apierrors.RenderBadRequest(w, "unknown chapter: "+req.Chapter)
			return
		}
	}

	res := gates.RequirePermission(w, r, permissions.CreateAnnouncement,
		permissions.AnnouncementContext{
			Scope:       req.Scope,
			Chapter:     req.Chapter,
			Country:     req.Country,
			AllChapters: allChapters,
		},
		"you can't post to this audience")
	if !res.OK {
		return
	}

	a, err := h.Announcements.Create(ctx, models.Announcement{
		AuthorID:   res.Actor.ID,
		AuthorName: res.Actor.Name,
		Scope:      req.Scope,
		Chapter:    req.Chapter,
		Country:    req.Country,
		Title:      req.Title,
		Content:    req.Content,
		CTALink:    req.CTALink,
		CTAText:    req.CTAText,
	})
	if err != nil {
		h.ErrLog.Internal(w, r, "create announcement", err)
		return
	}
	shared.JSON(w, http.StatusCreated, a)
}

// ServeDelete handles DELETE /announcements/{id}. The author may always
// take down their own post; Global Admins may take down anything.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.RenderBadRequest(w, "invalid announcement id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	a, err := h.Announcements.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, announcementstore.ErrNotFound) {
			apierrors.RenderNotFound(w, "announcement not found")
			return
		}
		h.ErrLog.Internal(w, r, "announcement lookup", err)
		return
	}

	if a.AuthorID != res.Actor.ID && !authz.IsGlobalAdmin(r) {
		apierrors.RenderForbidden(w, r, "you can't remove this announcement")
		return
	}

	if err := h.Announcements.Delete(ctx, id); err != nil {
		h.ErrLog.Internal(w, r, "delete announcement", err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ServeScopes handles GET /announcements/scopes: the audiences the acting
// user may post to.
func (h *Handler) ServeScopes(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}
	scopes := permissions.PostableScopes(res.Actor)
	if scopes == nil {
		scopes = []models.AnnouncementScope{}
	}
	shared.JSON(w, http.StatusOK, scopes)
}
