// Package outreachstore wraps the outreach_logs collection: one document
// per street conversation.
package outreachstore

import (
	"context"
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
	return &Store{c: db.Collection("outreach_logs")}
}

// Create inserts one outreach log.
func (s *Store) Create(ctx context.Context, l models.OutreachLog) (models.OutreachLog, error) {
	l.ID = primitive.NewObjectID()
	l.CreatedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, l); err != nil {
		return models.OutreachLog{}, err
	}
	return l, nil
}

// ListForUser returns a user's logs, newest first, capped at limit.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]models.OutreachLog, error) {
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

	var list []models.OutreachLog
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// OutcomeCounts tallies a user's logs per outcome.
func (s *Store) OutcomeCounts(ctx context.Context, userID primitive.ObjectID) (map[models.OutreachOutcome]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{"_id": "$outcome", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Outcome models.OutreachOutcome `bson:"_id"`
		N       int64                  `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[models.OutreachOutcome]int64, len(rows))
	for _, r := range rows {
		counts[r.Outcome] = r.N
	}
	return counts, nil
}
