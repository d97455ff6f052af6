package notificationstore_test

import (
	"testing"

	notificationstore "github.com/chapterhub/chapterhub/internal/app/store/notifications"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"github.com/chapterhub/chapterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateForUsers_FansOut(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	err := store.CreateForUsers(ctx, []primitive.ObjectID{a, b}, models.Notification{
		Type:    models.NotifNewApplicant,
		Message: "Someone applied to Berlin",
	})
	if err != nil {
		t.Fatalf("CreateForUsers failed: %v", err)
	}

	for _, id := range []primitive.ObjectID{a, b} {
		list, err := store.ListForUser(ctx, id, 0)
		if err != nil {
			t.Fatalf("ListForUser failed: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("user %s: got %d notifications, want 1", id.Hex(), len(list))
		}
		if list[0].Read {
			t.Error("new notification should be unread")
		}
	}

	// Empty recipient list is a no-op.
	if err := store.CreateForUsers(ctx, nil, models.Notification{Type: models.NotifNewApplicant}); err != nil {
		t.Fatalf("CreateForUsers(nil) failed: %v", err)
	}
}

func TestStore_MarkRead_GuardsOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()
	created, err := store.Create(ctx, models.Notification{
		UserID:  owner,
		Type:    models.NotifRoleUpdated,
		Message: "You are now an Activist",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.MarkRead(ctx, created.ID, other); err != notificationstore.ErrNotFound {
		t.Errorf("MarkRead as non-owner: got %v, want ErrNotFound", err)
	}
	if err := store.MarkRead(ctx, created.ID, owner); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	unread, err := store.CountUnread(ctx, owner)
	if err != nil {
		t.Fatalf("CountUnread failed: %v", err)
	}
	if unread != 0 {
		t.Errorf("unread: got %d, want 0", unread)
	}
}

func TestStore_MarkAllRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	for i := 0; i < 3; i++ {
		if _, err := store.Create(ctx, models.Notification{
			UserID:  owner,
			Type:    models.NotifEventUpdated,
			Message: "Event changed",
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	if err := store.MarkAllRead(ctx, owner); err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}
	unread, err := store.CountUnread(ctx, owner)
	if err != nil {
		t.Fatalf("CountUnread failed: %v", err)
	}
	if unread != 0 {
		t.Errorf("unread: got %d, want 0", unread)
	}
}
