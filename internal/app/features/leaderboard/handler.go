// internal/app/features/leaderboard/handler.go
package leaderboard

import (
	"context"
	"net/http"
	"strconv"

	apierrors "github.com/chapterhub/chapterhub/internal/app/features/errors"
	"github.com/chapterhub/chapterhub/internal/app/features/shared"
	userstore "github.com/chapterhub/chapterhub/internal/app/store/users"
	"github.com/chapterhub/chapterhub/internal/app/system/gates"
	"github.com/chapterhub/chapterhub/internal/app/system/timeouts"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

const defaultSize = 20

// statFields maps the public stat names onto stats document fields.
// Only these are rankable; anything else is a bad request.
var statFields = map[string]string{
	"hours":         "total_hours",
	"cubes":         "cubes_attended",
	"conversations": "total_conversations",
	"conversions":   "vegan_conversions",
}

// Handler serves the activist leaderboard.
type Handler struct {
	Users  *userstore.Store
	ErrLog *apierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(users *userstore.Store, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Users: users, ErrLog: errLog, Log: logger}
}

type entry struct {
	Rank     int              `json:"rank"`
	UserID   string           `json:"user_id"`
	Name     string           `json:"name"`
	Chapters []string         `json:"chapters,omitempty"`
	Stats    models.UserStats `json:"stats"`
}

// Serve handles GET /leaderboard. Rankings only count confirmed members.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	stat := query.Get(r, "stat")
	if stat == "" {
		stat = "hours"
	}
	field, ok := statFields[stat]
	if !ok {
		apierrors.RenderBadRequest(w, "stat must be hours, cubes, conversations, or conversions")
		return
	}

	size := int64(defaultSize)
	if raw := query.Get(r, "limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 || n > 100 {
			apierrors.RenderBadRequest(w, "limit must be between 1 and 100")
			return
		}
		size = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Users.TopByStat(ctx, field, size)
	if err != nil {
		h.ErrLog.Internal(w, r, "leaderboard query", err)
		return
	}

	entries := make([]entry, 0, len(users))
	for i, u := range users {
		entries = append(entries, entry{
			Rank:     i + 1,
			UserID:   u.ID.Hex(),
			Name:     u.Name,
			Chapters: u.Chapters,
			Stats:    u.Stats,
		})
	}
	shared.JSON(w, http.StatusOK, entries)
}
