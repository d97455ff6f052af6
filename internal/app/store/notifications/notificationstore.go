// Package notificationstore wraps the notifications collection. It records
// in-app notifications; delivery channels live elsewhere.
package notificationstore

import (
	"context"
	"errors"
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
	return &Store{c: db.Collection("notifications")}
}

// ErrNotFound is returned when the requested notification does not exist.
var ErrNotFound = errors.New("notification not found")

// Create inserts one notification.
func (s *Store) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	n.ID = primitive.NewObjectID()
	n.Read = false
	n.CreatedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// CreateForUsers fans one notification out to every recipient. Used when
// an application or an announcement needs to reach a whole organizer tier.
func (s *Store) CreateForUsers(ctx context.Context, userIDs []primitive.ObjectID, n models.Notification) error {
	if len(userIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(userIDs))
	for _, id := range userIDs {
		doc := n
		doc.ID = primitive.NewObjectID()
		doc.UserID = id
		doc.Read = false
		doc.CreatedAt = now
		docs = append(docs, doc)
	}
	_, err := s.c.InsertMany(ctx, docs)
	return err
}

// ListForUser returns a user's notifications, newest first, capped at limit.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var list []models.Notification
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CountUnread returns how many unread notifications a user has.
func (s *Store) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
}

// MarkRead marks one notification read. The userID guard keeps users from
// marking each other's notifications.
func (s *Store) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead marks every notification for the user read.
func (s *Store) MarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}})
	return err
}
