package userstore_test

import (
	"testing"

	userstore "github.com/chapterhub/chapterhub/internal/app/store/users"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"github.com/chapterhub/chapterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_DefaultsToApplicant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		Name:  "New Member",
		Email: "NEW@Example.Com",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Role != models.RoleApplicant {
		t.Errorf("role: got %q, want %q", created.Role, models.RoleApplicant)
	}
	if created.OnboardingStatus != models.StatusPendingApplicationReview {
		t.Errorf("status: got %q, want %q", created.OnboardingStatus, models.StatusPendingApplicationReview)
	}
	if created.Email != "new@example.com" {
		t.Errorf("email not normalized: %q", created.Email)
	}
	if created.NameCI == "" {
		t.Error("expected NameCI to be set")
	}
	if created.CreatedAt.IsZero() || created.JoinDate.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_RejectsUnknownRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{
		Name:  "Broken",
		Email: "broken@example.com",
		Role:  "Emperor",
	})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestStore_GetByEmail_CaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Name: "Case Test", Email: "case@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.GetByEmail(ctx, "CASE@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != created.ID {
		t.Error("looked up wrong user")
	}
}

func TestStore_UpdateRole_ClearsScopesOnDemotion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mc := "Germany"
	created, err := store.Create(ctx, models.User{
		Name:           "Promoted Then Demoted",
		Email:          "ro@example.com",
		Role:           models.RoleRegionalOrganiser,
		OrganiserOf:    []string{"Berlin"},
		ManagedCountry: &mc,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Demote to activist: both organiser scopes must be removed.
	if err := store.UpdateRole(ctx, created.ID, models.RoleActivist); err != nil {
		t.Fatalf("UpdateRole failed: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Role != models.RoleActivist {
		t.Errorf("role: got %q", got.Role)
	}
	if len(got.OrganiserOf) != 0 {
		t.Errorf("organiser_of should be cleared, got %v", got.OrganiserOf)
	}
	if got.ManagedCountry != nil {
		t.Errorf("managed_country should be removed, got %v", *got.ManagedCountry)
	}
}

func TestStore_UpdateRole_ChapterOrganiserKeepsChaptersLosesCountry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mc := "Germany"
	created, err := store.Create(ctx, models.User{
		Name:           "Regional To Chapter",
		Email:          "ro2@example.com",
		Role:           models.RoleRegionalOrganiser,
		OrganiserOf:    []string{"Berlin"},
		ManagedCountry: &mc,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := store.UpdateRole(ctx, created.ID, models.RoleChapterOrganiser); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.OrganiserOf) != 1 || got.OrganiserOf[0] != "Berlin" {
		t.Errorf("organiser_of should survive, got %v", got.OrganiserOf)
	}
	if got.ManagedCountry != nil {
		t.Error("managed_country should be removed at chapter organiser level")
	}
}

func TestStore_SetOnboardingStatusAndProgress(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{Name: "Progressing", Email: "progress@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	if err := store.SetOnboardingStatus(ctx, created.ID, models.StatusPendingOnboardingCall); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkMasterclassWatched(ctx, created.ID); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.OnboardingStatus != models.StatusPendingOnboardingCall {
		t.Errorf("status: got %q", got.OnboardingStatus)
	}
	if !got.WatchedMasterclass() {
		t.Error("masterclass flag not persisted")
	}
}

func TestStore_OrganisersOf(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{
		Name: "Berlin Organiser", Email: "bo@example.com",
		Role: models.RoleChapterOrganiser, OrganiserOf: []string{"Berlin"},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create(ctx, models.User{
		Name: "Hamburg Organiser", Email: "ho@example.com",
		Role: models.RoleChapterOrganiser, OrganiserOf: []string{"Hamburg"},
	}); err != nil {
		t.Fatal(err)
	}

	got, err := store.OrganisersOf(ctx, "Berlin")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Berlin Organiser" {
		t.Errorf("got %d organisers", len(got))
	}
}

func TestStore_ListByOnboardingStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i, status := range []models.OnboardingStatus{
		models.StatusAwaitingFirstCube,
		models.StatusAwaitingMasterclass,
		models.StatusConfirmed,
	} {
		u, err := store.Create(ctx, models.User{
			Name:  "Member",
			Email: string(rune('a'+i)) + "@example.com",
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := store.SetOnboardingStatus(ctx, u.ID, status); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.ListByOnboardingStatus(ctx,
		models.StatusAwaitingFirstCube, models.StatusAwaitingMasterclass)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("got %d users, want 2", len(got))
	}
}
