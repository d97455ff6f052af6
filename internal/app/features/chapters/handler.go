// internal/app/features/chapters/handler.go
package chapters

import (
	"context"
	"errors"
	"net/http"

	apierrors "github.com/chapterhub/chapterhub/internal/app/features/errors"
	"github.com/chapterhub/chapterhub/internal/app/features/shared"
	"github.com/chapterhub/chapterhub/internal/app/policy/permissions"
	chapterstore "github.com/chapterhub/chapterhub/internal/app/store/chapters"
	"github.com/chapterhub/chapterhub/internal/app/system/gates"
	"github.com/chapterhub/chapterhub/internal/app/system/normalize"
	"github.com/chapterhub/chapterhub/internal/app/system/timeouts"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the chapter registry and inventory management.
type Handler struct {
	Chapters *chapterstore.Store
	ErrLog   *apierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(chapters *chapterstore.Store, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Chapters: chapters, ErrLog: errLog, Log: logger}
}

// ServeList handles GET /chapters. The registry is visible to any
// signed-in member; an optional country filter narrows it.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		chapters []models.Chapter
		err      error
	)
	if country := normalize.Country(query.Get(r, "country")); country != "" {
		chapters, err = h.Chapters.ByCountry(ctx, country)
	} else {
		chapters, err = h.Chapters.All(ctx)
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "list chapters", err)
		return
	}
	if chapters == nil {
		chapters = []models.Chapter{}
	}
	shared.JSON(w, http.StatusOK, chapters)
}

// ServeGet handles GET /chapters/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ch, ok := h.loadChapter(ctx, w, r)
	if !ok {
		return
	}
	shared.JSON(w, http.StatusOK, ch)
}

type createRequest struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Instagram string  `json:"instagram,omitempty"`
}

// ServeCreate handles POST /chapters. Regional Organisers and above only.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !shared.Decode(w, r, &req) {
		return
	}
	req.Name = normalize.ChapterName(req.Name)
	req.Country = normalize.Country(req.Country)
	if req.Name == "" || req.Country == "" {
		apierrors.RenderBadRequest(w, "name and country are required")
		return
	}

	res := gates.RequirePermission(w, r, permissions.CreateChapter, permissions.None{},
		"only regional organisers and above can open chapters")
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ch, err := h.Chapters.Create(ctx, models.Chapter{
		Name:      req.Name,
		Country:   req.Country,
		Lat:       req.Lat,
		Lng:       req.Lng,
		Instagram: req.Instagram,
	})
	if err != nil {
		if errors.Is(err, chapterstore.ErrDuplicateName) {
			apierrors.RenderConflict(w, "a chapter with this name already exists")
			return
		}
		h.ErrLog.Internal(w, r, "create chapter", err)
		return
	}
	shared.JSON(w, http.StatusCreated, ch)
}

type updateRequest struct {
	Country   string  `json:"country"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Instagram string  `json:"instagram,omitempty"`
}

// ServeUpdate handles PUT /chapters/{id}. The name is immutable.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !shared.Decode(w, r, &req) {
		return
	}
	if normalize.Country(req.Country) == "" {
		apierrors.RenderBadRequest(w, "country is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ch, _, ok := h.gateChapter(ctx, w, r, permissions.EditChapter,
		"you can't edit this chapter")
	if !ok {
		return
	}

	err := h.Chapters.Update(ctx, ch.ID, chapterstore.Update{
		Country:   req.Country,
		Lat:       req.Lat,
		Lng:       req.Lng,
		Instagram: req.Instagram,
	})
	if err != nil {
		h.ErrLog.Internal(w, r, "update chapter", err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ServeDelete handles DELETE /chapters/{id}. Regional Organisers and
// above, scoped to their remit.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ch, _, ok := h.gateChapter(ctx, w, r, permissions.DeleteChapter,
		"you can't remove this chapter")
	if !ok {
		return
	}

	if _, err := h.Chapters.Delete(ctx, ch.ID); err != nil {
		h.ErrLog.Internal(w, r, "delete chapter", err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type inventoryRequest struct {
	Inventory []models.InventoryItem `json:"inventory"`
}

// ServeSetInventory handles PUT /chapters/{id}/inventory.
func (h *Handler) ServeSetInventory(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if !shared.Decode(w, r, &req) {
		return
	}
	for _, item := range req.Inventory {
		if item.Name == "" {
			apierrors.RenderBadRequest(w, "every inventory item needs a name")
			return
		}
		if item.Quantity < 0 {
			apierrors.RenderBadRequest(w, "quantities cannot be negative")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ch, _, ok := h.gateChapter(ctx, w, r, permissions.ManageInventory,
		"you can't manage this chapter's inventory")
	if !ok {
		return
	}

	if err := h.Chapters.SetInventory(ctx, ch.ID, req.Inventory); err != nil {
		h.ErrLog.Internal(w, r, "set inventory", err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]any{"inventory": req.Inventory})
}

func (h *Handler) loadChapter(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.Chapter, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.RenderBadRequest(w, "invalid chapter id")
		return nil, false
	}

	ch, err := h.Chapters.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, chapterstore.ErrNotFound) {
			apierrors.RenderNotFound(w, "chapter not found")
			return nil, false
		}
		h.ErrLog.Internal(w, r, "chapter lookup", err)
		return nil, false
	}
	return ch, true
}

// gateChapter resolves the {id} chapter and checks perm against it.
func (h *Handler) gateChapter(ctx context.Context, w http.ResponseWriter, r *http.Request, perm permissions.Permission, forbiddenMsg string) (*models.Chapter, gates.Result, bool) {
	ch, ok := h.loadChapter(ctx, w, r)
	if !ok {
		return nil, gates.Result{}, false
	}

	allChapters, err := h.Chapters.All(ctx)
	if err != nil {
		h.ErrLog.Internal(w, r, "chapter snapshot", err)
		return nil, gates.Result{}, false
	}

	res := gates.RequirePermission(w, r, perm,
		permissions.ChapterContext{ChapterName: ch.Name, AllChapters: allChapters}, forbiddenMsg)
	if !res.OK {
		return nil, gates.Result{}, false
	}
	return ch, res, true
}
