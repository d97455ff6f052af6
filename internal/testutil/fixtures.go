package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/chapterhub/chapterhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Calls stack, so multi-param routes can add each parameter in turn.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateChapter creates a test chapter with the given name and country.
// Returns the created chapter with its generated ID.
func (f *Fixtures) CreateChapter(ctx context.Context, name, country string) models.Chapter {
	f.t.Helper()

	now := time.Now().UTC()
	ch := models.Chapter{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Country:   country,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("chapters").InsertOne(ctx, ch)
	if err != nil {
		f.t.Fatalf("failed to create test chapter: %v", err)
	}

	return ch
}

// CreateUser creates a test user with the given role, onboarding status
// and chapter memberships.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string, role models.Role, status models.OnboardingStatus, chapters ...string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:               primitive.NewObjectID(),
		Name:             name,
		NameCI:           text.Fold(name),
		Email:            email,
		Role:             role,
		Chapters:         chapters,
		OnboardingStatus: status,
		JoinDate:         now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, u)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return u
}

// CreateOrganiser creates a confirmed Chapter Organiser of the given
// chapters (who is also a member of them).
func (f *Fixtures) CreateOrganiser(ctx context.Context, name, email string, chapters ...string) models.User {
	f.t.Helper()

	u := f.CreateUser(ctx, name, email, models.RoleChapterOrganiser, models.StatusConfirmed, chapters...)
	_, err := f.db.Collection("users").UpdateOne(ctx,
		primitiveIDFilter(u.ID),
		map[string]any{"$set": map[string]any{"organiser_of": chapters}})
	if err != nil {
		f.t.Fatalf("failed to set organiser_of: %v", err)
	}
	u.OrganiserOf = chapters
	return u
}

// CreateEvent creates an upcoming test event in the given chapter.
func (f *Fixtures) CreateEvent(ctx context.Context, name, city string, organizer models.User) models.CubeEvent {
	f.t.Helper()

	now := time.Now().UTC()
	ev := models.CubeEvent{
		ID:            primitive.NewObjectID(),
		Name:          name,
		City:          city,
		Location:      "Main Square",
		StartDate:     now.Add(48 * time.Hour),
		Scope:         models.EventScopeChapter,
		OrganizerID:   organizer.ID,
		OrganizerName: organizer.Name,
		Status:        models.EventUpcoming,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := f.db.Collection("cube_events").InsertOne(ctx, ev)
	if err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}

	return ev
}

func primitiveIDFilter(id primitive.ObjectID) map[string]any {
	return map[string]any{"_id": id}
}
