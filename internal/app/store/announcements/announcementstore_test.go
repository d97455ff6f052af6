package announcementstore_test

import (
	"testing"

	announcementstore "github.com/chapterhub/chapterhub/internal/app/store/announcements"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"github.com/chapterhub/chapterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func post(scope models.AnnouncementScope, chapter, country, title string) models.Announcement {
	return models.Announcement{
		AuthorID:   primitive.NewObjectID(),
		AuthorName: "Olivia Organiser",
		Scope:      scope,
		Chapter:    chapter,
		Country:    country,
		Title:      title,
		Content:    "<p>hello</p>",
	}
}

func TestStore_ListVisible_FiltersAndOrders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := announcementstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	seed := []models.Announcement{
		post(models.ScopeChapter, "Berlin", "", "berlin only"),
		post(models.ScopeChapter, "Lisbon", "", "lisbon only"),
		post(models.ScopeRegional, "", "Germany", "german region"),
		post(models.ScopeRegional, "", "Portugal", "portuguese region"),
		post(models.ScopeGlobal, "", "", "everyone"),
	}
	for _, a := range seed {
		if _, err := store.Create(ctx, a); err != nil {
			t.Fatalf("Create %q failed: %v", a.Title, err)
		}
	}

	got, err := store.ListVisible(ctx, []string{"Berlin"}, []string{"Germany"})
	if err != nil {
		t.Fatalf("ListVisible failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d announcements, want 3", len(got))
	}

	wantOrder := []string{"everyone", "german region", "berlin only"}
	for i, title := range wantOrder {
		if got[i].Title != title {
			t.Errorf("position %d: got %q, want %q", i, got[i].Title, title)
		}
	}
}

func TestStore_ListVisible_GlobalOnlyForUnaffiliated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := announcementstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, post(models.ScopeGlobal, "", "", "everyone")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, post(models.ScopeChapter, "Berlin", "", "berlin only")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.ListVisible(ctx, nil, nil)
	if err != nil {
		t.Fatalf("ListVisible failed: %v", err)
	}
	if len(got) != 1 || got[0].Title != "everyone" {
		t.Fatalf("unaffiliated viewer: got %+v, want just the global post", got)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := announcementstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, post(models.ScopeGlobal, "", "", "gone soon"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, created.ID); err != announcementstore.ErrNotFound {
		t.Errorf("second Delete: got %v, want ErrNotFound", err)
	}
}
