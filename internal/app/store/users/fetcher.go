package userstore

import (
	"context"

	"github.com/chapterhub/chapterhub/internal/app/system/auth"
	"github.com/chapterhub/chapterhub/internal/app/system/timeouts"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher so the session middleware loads
// fresh user data on each request. Role or scope changes take effect on
// the member's next request without re-login.
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection("users")}
}

// FetchSessionUser retrieves a user by ID. Returns (nil, nil) when the
// user no longer exists, which the middleware treats as signed out.
func (f *Fetcher) FetchSessionUser(ctx context.Context, userID string) (*auth.SessionUser, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":             1,
		"name":            1,
		"email":           1,
		"role":            1,
		"chapters":        1,
		"organiser_of":    1,
		"managed_country": 1,
	})
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	su := &auth.SessionUser{
		ID:          u.ID.Hex(),
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		Chapters:    u.Chapters,
		OrganiserOf: u.OrganiserOf,
	}
	if u.ManagedCountry != nil {
		su.ManagedCountry = *u.ManagedCountry
	}
	return su, nil
}
