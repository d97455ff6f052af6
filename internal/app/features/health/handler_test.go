package health_test

import (
	"net/http"
	"testing"

	"github.com/chapterhub/chapterhub/internal/app/features/health"
	"github.com/chapterhub/chapterhub/internal/testutil"
	"go.uber.org/zap"
)

func TestServe_ReportsConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := health.NewHandler(db.Client(), zap.NewNop())

	req := testutil.NewRequest(http.MethodGet, "/health")
	rec := testutil.NewRecorder()
	h.Serve(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"status":"ok"`)
	rec.AssertContains(t, `"database":"connected"`)
}
