package logout_test

import (
	"net/http"
	"testing"

	"github.com/chapterhub/chapterhub/internal/app/features/logout"
	"github.com/chapterhub/chapterhub/internal/app/system/auth"
	"github.com/chapterhub/chapterhub/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) *logout.Handler {
	t.Helper()
	sessionMgr, err := auth.NewSessionManager("test-session-key-0123456789ABCDEF", "chapterhub-session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return logout.NewHandler(sessionMgr, zap.NewNop())
}

func TestServeLogout_ClearsSession(t *testing.T) {
	h := newHandler(t)

	req := testutil.NewRequest(http.MethodPost, "/logout")
	rec := testutil.NewRecorder()
	h.ServeLogout(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "signed out")

	// The session cookie is expired so the browser drops it.
	for _, c := range rec.Result().Cookies() {
		if c.Name == "chapterhub-session" && c.MaxAge > 0 {
			t.Errorf("expected expired session cookie, got MaxAge %d", c.MaxAge)
		}
	}
}

func TestServeLogout_WithoutSessionIsNoop(t *testing.T) {
	h := newHandler(t)

	rec := testutil.NewRecorder()
	h.ServeLogout(rec, testutil.NewRequest(http.MethodPost, "/logout"))

	rec.AssertStatus(t, http.StatusOK)
}
