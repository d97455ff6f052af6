package authgoogle_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/chapterhub/chapterhub/internal/app/features/authgoogle"
	apierrors "github.com/chapterhub/chapterhub/internal/app/features/errors"
	"github.com/chapterhub/chapterhub/internal/app/store/oauthstate"
	userstore "github.com/chapterhub/chapterhub/internal/app/store/users"
	"github.com/chapterhub/chapterhub/internal/app/system/auth"
	"github.com/chapterhub/chapterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(t *testing.T, db *mongo.Database, clientID, clientSecret string) *authgoogle.Handler {
	t.Helper()
	sessionMgr, err := auth.NewSessionManager("test-session-key-0123456789ABCDEF", "chapterhub-session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return authgoogle.NewHandler(userstore.New(db), sessionMgr, apierrors.NewErrorLogger(zap.NewNop()),
		oauthstate.New(db), clientID, clientSecret, "http://localhost:3000", zap.NewNop())
}

func TestServeLogin_RedirectsToGoogleWithStoredState(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	h := newHandler(t, db, "client-id", "client-secret")

	req := testutil.NewRequest(http.MethodGet, "/auth/google?return=/events")
	rec := testutil.NewRecorder()
	h.ServeLogin(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.HasPrefix(location, "https://accounts.google.com/") {
		t.Fatalf("expected redirect to Google, got %q", location)
	}

	parsed, err := url.Parse(location)
	if err != nil {
		t.Fatalf("bad redirect URL: %v", err)
	}
	state := parsed.Query().Get("state")
	if state == "" {
		t.Fatal("expected a state parameter in the redirect")
	}

	returnURL, valid, err := oauthstate.New(db).Validate(ctx, state)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !valid {
		t.Error("expected the issued state to validate")
	}
	if returnURL != "/events" {
		t.Errorf("expected return URL /events, got %q", returnURL)
	}
}

func TestServeLogin_UnconfiguredRedirectsToLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db, "", "")

	rec := testutil.NewRecorder()
	h.ServeLogin(rec, testutil.NewRequest(http.MethodGet, "/auth/google"))

	rec.AssertRedirect(t, "/login?error=google_not_configured")
}

func TestServeCallback_RejectsUnknownState(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db, "client-id", "client-secret")

	rec := testutil.NewRecorder()
	h.ServeCallback(rec, testutil.NewRequest(http.MethodGet, "/auth/google/callback?state=forged&code=abc"))

	rec.AssertRedirect(t, "/login?error=invalid_state")
}

func TestServeCallback_StateIsSingleUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	h := newHandler(t, db, "client-id", "client-secret")

	rec := testutil.NewRecorder()
	h.ServeLogin(rec, testutil.NewRequest(http.MethodGet, "/auth/google"))
	parsed, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad redirect URL: %v", err)
	}
	state := parsed.Query().Get("state")

	store := oauthstate.New(db)
	if _, valid, err := store.Validate(ctx, state); err != nil || !valid {
		t.Fatalf("first validation should succeed, valid=%v err=%v", valid, err)
	}
	if _, valid, err := store.Validate(ctx, state); err != nil {
		t.Fatalf("Validate failed: %v", err)
	} else if valid {
		t.Error("expected state to be consumed after first validation")
	}
}
