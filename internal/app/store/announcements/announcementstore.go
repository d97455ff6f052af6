// Package announcementstore wraps the announcements collection.
package announcementstore

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/chapterhub/chapterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("announcements")}
}

// ErrNotFound is returned when the requested announcement does not exist.
var ErrNotFound = errors.New("announcement not found")

// GetByID loads an announcement by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Announcement, error) {
	var a models.Announcement
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Create inserts a new announcement. Content must already be sanitized.
func (s *Store) Create(ctx context.Context, a models.Announcement) (models.Announcement, error) {
	a.ID = primitive.NewObjectID()
	a.CreatedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Announcement{}, err
	}
	return a, nil
}

// Delete removes an announcement.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// scopeRank orders Global before Regional before Chapter.
var scopeRank = map[models.AnnouncementScope]int{
	models.ScopeGlobal:   0,
	models.ScopeRegional: 1,
	models.ScopeChapter:  2,
}

// ListVisible returns the announcements a member of the given chapters
// (in the given countries) can see: every global post, regional posts
// for their countries, and chapter posts for their chapters. Results
// come grouped Global first, then Regional, then Chapter, newest first
// within each group.
func (s *Store) ListVisible(ctx context.Context, chapters, countries []string) ([]models.Announcement, error) {
	or := []bson.M{{"scope": models.ScopeGlobal}}
	if len(countries) > 0 {
		or = append(or, bson.M{"scope": models.ScopeRegional, "country": bson.M{"$in": countries}})
	}
	if len(chapters) > 0 {
		or = append(or, bson.M{"scope": models.ScopeChapter, "chapter": bson.M{"$in": chapters}})
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"$or": or}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var list []models.Announcement
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}

	sort.SliceStable(list, func(i, j int) bool {
		return scopeRank[list[i].Scope] < scopeRank[list[j].Scope]
	})
	return list, nil
}

// ListByAuthor returns an author's own posts, newest first.
func (s *Store) ListByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.Announcement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"author_id": authorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var list []models.Announcement
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}
