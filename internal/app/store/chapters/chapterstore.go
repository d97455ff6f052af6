// Package chapterstore wraps the chapters collection: local chapter
// records, their coordinates, and outreach equipment inventory.
package chapterstore

import (
	"context"
	"errors"
	"time"

	"github.com/chapterhub/chapterhub/internal/app/system/normalize"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("chapters")}
}

var (
	// ErrDuplicateName is returned when creating a chapter whose folded
	// name already exists.
	ErrDuplicateName = errors.New("a chapter with this name already exists")
	// ErrNotFound is returned when the requested chapter does not exist.
	ErrNotFound = errors.New("chapter not found")
)

// GetByID loads a chapter by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Chapter, error) {
	var ch models.Chapter
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ch); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

// GetByName loads a chapter by case-insensitive name.
func (s *Store) GetByName(ctx context.Context, name string) (*models.Chapter, error) {
	var ch models.Chapter
	if err := s.c.FindOne(ctx, bson.M{"name_ci": text.Fold(name)}).Decode(&ch); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

// Create inserts a new chapter after normalizing its name fields.
func (s *Store) Create(ctx context.Context, ch models.Chapter) (models.Chapter, error) {
	ch.ID = primitive.NewObjectID()
	ch.Name = normalize.ChapterName(ch.Name)
	ch.NameCI = text.Fold(ch.Name)
	ch.Country = normalize.Country(ch.Country)
	ch.Instagram = normalize.Instagram(ch.Instagram)

	now := time.Now().UTC()
	ch.CreatedAt = now
	ch.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, ch); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Chapter{}, ErrDuplicateName
		}
		return models.Chapter{}, err
	}
	return ch, nil
}

// Update holds the editable chapter fields.
type Update struct {
	Country   string
	Lat       float64
	Lng       float64
	Instagram string
}

// Update edits a chapter's location fields. The name is immutable; it
// is the key user records reference chapters by.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"country":    normalize.Country(upd.Country),
		"lat":        upd.Lat,
		"lng":        upd.Lng,
		"instagram":  normalize.Instagram(upd.Instagram),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetInventory replaces the chapter's equipment inventory.
func (s *Store) SetInventory(ctx context.Context, id primitive.ObjectID, items []models.InventoryItem) error {
	if items == nil {
		items = []models.InventoryItem{}
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"inventory":  items,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a chapter by ID. Returns the number of documents
// deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// All returns every chapter sorted by folded name. The permission
// evaluator's containment checks take this as their chapter lookup.
func (s *Store) All(ctx context.Context) ([]models.Chapter, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var chapters []models.Chapter
	if err := cur.All(ctx, &chapters); err != nil {
		return nil, err
	}
	return chapters, nil
}

// ByCountry returns the chapters in the given country, sorted by
// folded name.
func (s *Store) ByCountry(ctx context.Context, country string) ([]models.Chapter, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"country": normalize.Country(country)}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var chapters []models.Chapter
	if err := cur.All(ctx, &chapters); err != nil {
		return nil, err
	}
	return chapters, nil
}
