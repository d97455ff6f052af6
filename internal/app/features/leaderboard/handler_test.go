package leaderboard_test

import (
	"encoding/json"
	"net/http"
	"testing"

	apierrors "github.com/chapterhub/chapterhub/internal/app/features/errors"
	"github.com/chapterhub/chapterhub/internal/app/features/leaderboard"
	userstore "github.com/chapterhub/chapterhub/internal/app/store/users"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"github.com/chapterhub/chapterhub/internal/testutil"
	"go.uber.org/zap"
)

func TestServe_RanksByHours(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := leaderboard.NewHandler(userstore.New(db),
		apierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateChapter(ctx, "Berlin", "Germany")
	users := userstore.New(db)
	top := fx.CreateUser(ctx, "Heidi High", "heidi@test.com",
		models.RoleActivist, models.StatusConfirmed, "Berlin")
	low := fx.CreateUser(ctx, "Lou Low", "lou@test.com",
		models.RoleActivist, models.StatusConfirmed, "Berlin")
	// Unconfirmed members never rank.
	pending := fx.CreateUser(ctx, "Pat Pending", "pat@test.com",
		models.RoleApplicant, models.StatusAwaitingFirstCube, "Berlin")

	if err := users.IncrementStats(ctx, top.ID, 12, 4); err != nil {
		t.Fatalf("IncrementStats failed: %v", err)
	}
	if err := users.IncrementStats(ctx, low.ID, 3, 1); err != nil {
		t.Fatalf("IncrementStats failed: %v", err)
	}
	if err := users.IncrementStats(ctx, pending.ID, 99, 9); err != nil {
		t.Fatalf("IncrementStats failed: %v", err)
	}

	req := testutil.NewAuthenticatedRequest(http.MethodGet,
		"/leaderboard?stat=hours", testutil.FromModel(low))
	rec := testutil.NewRecorder()
	h.Serve(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	var entries []struct {
		Rank  int    `json:"rank"`
		Name  string `json:"name"`
		Stats struct {
			TotalHours float64 `json:"total_hours"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (pending member must not rank)", len(entries))
	}
	if entries[0].Name != "Heidi High" || entries[0].Rank != 1 {
		t.Errorf("first entry: %+v", entries[0])
	}
	if entries[1].Name != "Lou Low" {
		t.Errorf("second entry: %+v", entries[1])
	}
}

func TestServe_RejectsUnknownStat(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := leaderboard.NewHandler(userstore.New(db),
		apierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())

	req := testutil.NewAuthenticatedRequest(http.MethodGet,
		"/leaderboard?stat=charisma", testutil.GlobalAdminUser())
	rec := testutil.NewRecorder()
	h.Serve(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}
