package bootstrap

import (
	"testing"

	userstore "github.com/chapterhub/chapterhub/internal/app/store/users"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"github.com/chapterhub/chapterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureGodmode_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := userstore.New(db)

	if err := ensureGodmode(ctx, users, "root@test.com", testLogger()); err != nil {
		t.Fatalf("ensureGodmode failed: %v", err)
	}

	// Verify user was created
	var user models.User
	err := db.Collection("users").FindOne(ctx, bson.M{"email": "root@test.com"}).Decode(&user)
	if err != nil {
		t.Fatalf("failed to find created user: %v", err)
	}

	if user.Role != models.RoleGodmode {
		t.Errorf("expected role %q, got %q", models.RoleGodmode, user.Role)
	}
	if user.OnboardingStatus != models.StatusConfirmed {
		t.Errorf("expected status %q, got %q", models.StatusConfirmed, user.OnboardingStatus)
	}
}

func TestEnsureGodmode_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := userstore.New(db)
	fix := testutil.NewFixtures(t, db)
	existing := fix.CreateUser(ctx, "Existing User", "existing@test.com",
		models.RoleActivist, models.StatusAwaitingFirstCube)

	if err := ensureGodmode(ctx, users, "existing@test.com", testLogger()); err != nil {
		t.Fatalf("ensureGodmode failed: %v", err)
	}

	got, err := users.GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Role != models.RoleGodmode {
		t.Errorf("expected role %q, got %q", models.RoleGodmode, got.Role)
	}
	if got.OnboardingStatus != models.StatusConfirmed {
		t.Errorf("expected status %q, got %q", models.StatusConfirmed, got.OnboardingStatus)
	}

	// No duplicate account was created for the email.
	count, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": "existing@test.com"})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 user with the email, got %d", count)
	}
}

func TestEnsureGodmode_SkipsWhenUnconfigured(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := userstore.New(db)

	if err := ensureGodmode(ctx, users, "", testLogger()); err != nil {
		t.Fatalf("ensureGodmode failed: %v", err)
	}

	count, err := db.Collection("users").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no users to be created, got %d", count)
	}
}
