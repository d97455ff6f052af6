package login_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	apierrors "github.com/chapterhub/chapterhub/internal/app/features/errors"
	"github.com/chapterhub/chapterhub/internal/app/features/login"
	userstore "github.com/chapterhub/chapterhub/internal/app/store/users"
	"github.com/chapterhub/chapterhub/internal/app/system/auth"
	"github.com/chapterhub/chapterhub/internal/app/system/ratelimit"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"github.com/chapterhub/chapterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newHandler(t *testing.T, db *mongo.Database, limiter *ratelimit.LoginLimiter) *login.Handler {
	t.Helper()
	sessionMgr, err := auth.NewSessionManager("test-session-key-0123456789ABCDEF", "chapterhub-session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	if limiter == nil {
		limiter = ratelimit.NewLoginLimiter()
	}
	return login.NewHandler(userstore.New(db), sessionMgr, limiter, apierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())
}

func createUserWithPassword(t *testing.T, db *mongo.Database, email, password string) models.User {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	u, err := userstore.New(db).Create(ctx, models.User{
		Name:             "Pat Doe",
		Email:            email,
		PasswordHash:     string(hash),
		Role:             models.RoleActivist,
		OnboardingStatus: models.StatusConfirmed,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return u
}

func TestServeLogin_Success(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db, nil)
	u := createUserWithPassword(t, db, "pat@test.com", "hunter2hunter2")

	req := testutil.NewJSONRequest(http.MethodPost, "/login", `{"email":"pat@test.com","password":"hunter2hunter2"}`)
	rec := testutil.NewRecorder()
	h.ServeLogin(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.ID != u.ID.Hex() {
		t.Errorf("expected id %s, got %s", u.ID.Hex(), resp.ID)
	}
	if resp.Role != string(models.RoleActivist) {
		t.Errorf("expected activist role, got %q", resp.Role)
	}

	cookies := rec.Result().Cookies()
	found := false
	for _, c := range cookies {
		if c.Name == "chapterhub-session" {
			found = true
		}
	}
	if !found {
		t.Error("expected a session cookie to be set")
	}
}

func TestServeLogin_WrongPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db, nil)
	createUserWithPassword(t, db, "pat@test.com", "hunter2hunter2")

	req := testutil.NewJSONRequest(http.MethodPost, "/login", `{"email":"pat@test.com","password":"wrong"}`)
	rec := testutil.NewRecorder()
	h.ServeLogin(rec, req)

	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestServeLogin_UnknownEmailSameError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db, nil)

	req := testutil.NewJSONRequest(http.MethodPost, "/login", `{"email":"nobody@test.com","password":"whatever"}`)
	rec := testutil.NewRecorder()
	h.ServeLogin(rec, req)

	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "invalid email or password")
}

func TestServeLogin_MissingFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db, nil)

	req := testutil.NewJSONRequest(http.MethodPost, "/login", `{"email":"","password":""}`)
	rec := testutil.NewRecorder()
	h.ServeLogin(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeLogin_RateLimited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	limiter := ratelimit.NewLoginLimiterWithConfig(2, time.Minute, 2, time.Minute)
	h := newHandler(t, db, limiter)
	createUserWithPassword(t, db, "pat@test.com", "hunter2hunter2")

	body := `{"email":"pat@test.com","password":"wrong"}`
	for i := 0; i < 2; i++ {
		rec := testutil.NewRecorder()
		h.ServeLogin(rec, testutil.NewJSONRequest(http.MethodPost, "/login", body))
		rec.AssertStatus(t, http.StatusUnauthorized)
	}

	rec := testutil.NewRecorder()
	h.ServeLogin(rec, testutil.NewJSONRequest(http.MethodPost, "/login", body))
	rec.AssertStatus(t, http.StatusTooManyRequests)
}
