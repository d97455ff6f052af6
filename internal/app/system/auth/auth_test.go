package auth_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chapterhub/chapterhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-0123456789ABCDEF",
		"chapterhub-session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	return sm
}

func TestRequireSignedIn_RejectsAnonymous(t *testing.T) {
	sm := newSessionManager(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler reached without a signed-in user")
	})

	req := httptest.NewRequest(http.MethodGet, "/members", nil)
	rec := httptest.NewRecorder()
	sm.RequireSignedIn(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "authentication required") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestRequireSignedIn_PassesSignedInUser(t *testing.T) {
	sm := newSessionManager(t)

	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/members", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID:   primitive.NewObjectID().Hex(),
		Name: "Alice Activist",
		Role: "Activist",
	})
	rec := httptest.NewRecorder()
	sm.RequireSignedIn(next).ServeHTTP(rec, req)

	if !reached {
		t.Fatal("handler was not reached")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}
