// Package eventstore wraps the cube_events collection: event CRUD,
// RSVP state, and post-event reports. It also answers the attendance
// question the onboarding machine depends on: has this member attended
// their first cube?
package eventstore

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
	return &Store{c: db.Collection("cube_events")}
}

var (
	// ErrNotFound is returned when the requested event does not exist.
	ErrNotFound = errors.New("event not found")
	// ErrAlreadyReported is returned when logging a report for an event
	// that already has one.
	ErrAlreadyReported = errors.New("event report already logged")
	// ErrCancelled is returned when mutating a cancelled event.
	ErrCancelled = errors.New("event is cancelled")
)

// GetByID loads an event by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.CubeEvent, error) {
	var ev models.CubeEvent
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ev); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// Create inserts a new event.
func (s *Store) Create(ctx context.Context, ev models.CubeEvent) (models.CubeEvent, error) {
	ev.ID = primitive.NewObjectID()
	if ev.Status == "" {
		ev.Status = models.EventUpcoming
	}
	if ev.Scope == "" {
		ev.Scope = models.EventScopeChapter
	}

	now := time.Now().UTC()
	ev.CreatedAt = now
	ev.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, ev); err != nil {
		return models.CubeEvent{}, err
	}
	return ev, nil
}

// Update holds the editable event fields.
type Update struct {
	Name      string
	Location  string
	StartDate time.Time
	EndDate   *time.Time
}

// Update edits an event's details. Cancelled events are immutable.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.EventCancelled}},
		bson.M{"$set": bson.M{
			"name":       upd.Name,
			"location":   upd.Location,
			"start_date": upd.StartDate.UTC(),
			"end_date":   upd.EndDate,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.notFoundOrCancelled(ctx, id)
	}
	return nil
}

// Cancel marks an event cancelled with the given reason. Cancelling is
// terminal; a cancelled event never returns to the calendar.
func (s *Store) Cancel(ctx context.Context, id primitive.ObjectID, reason string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.EventCancelled}},
		bson.M{"$set": bson.M{
			"status":              models.EventCancelled,
			"cancellation_reason": reason,
			"updated_at":          time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.notFoundOrCancelled(ctx, id)
	}
	return nil
}

// SetRSVP records a user's RSVP, replacing any previous answer.
func (s *Store) SetRSVP(ctx context.Context, id, userID primitive.ObjectID, name string, status models.ParticipantStatus) error {
	// Drop any existing entry, then push the new one.
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.EventCancelled}},
		bson.M{"$pull": bson.M{"participants": bson.M{"user_id": userID}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.notFoundOrCancelled(ctx, id)
	}

	_, err = s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"participants": models.EventParticipant{
			UserID: userID,
			Name:   name,
			Status: status,
		}},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveParticipant drops a user from the participant list.
func (s *Store) RemoveParticipant(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{
			"$pull": bson.M{"participants": bson.M{"user_id": userID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTourDuties assigns per-day duties to a participant.
func (s *Store) SetTourDuties(ctx context.Context, id, userID primitive.ObjectID, duties []models.TourDuty) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "participants.user_id": userID},
		bson.M{"$set": bson.M{
			"participants.$.tour_duties": duties,
			"updated_at":                 time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// LogReport attaches a post-event report and marks the event finished.
// An event takes exactly one report.
func (s *Store) LogReport(ctx context.Context, id primitive.ObjectID, report models.EventReport) error {
	report.LoggedAt = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":    id,
			"status": bson.M{"$ne": models.EventCancelled},
			"report": bson.M{"$exists": false},
		},
		bson.M{"$set": bson.M{
			"report":     report,
			"status":     models.EventFinished,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		ev, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if ev.Status == models.EventCancelled {
			return ErrCancelled
		}
		if ev.Report != nil {
			return ErrAlreadyReported
		}
		return ErrNotFound
	}
	return nil
}

// HasAttendedFirstCube reports whether the user is marked Attended in
// the report of any finished event. This is the activity signal the
// onboarding machine advances on.
func (s *Store) HasAttendedFirstCube(ctx context.Context, u *models.User) (bool, error) {
	if u == nil {
		return false, nil
	}
	count, err := s.c.CountDocuments(ctx, bson.M{
		"status": models.EventFinished,
		"report.attendance." + u.ID.Hex(): models.AttendanceAttended,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListFilter narrows the event list query.
type ListFilter struct {
	City     string
	Cities   []string // overrides City when set
	Status   models.EventStatus
	FromDate *time.Time
}

// List returns events matching the filter, soonest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.CubeEvent, error) {
	filter := bson.M{}
	if len(f.Cities) > 0 {
		filter["city"] = bson.M{"$in": f.Cities}
	} else if f.City != "" {
		filter["city"] = f.City
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.FromDate != nil {
		filter["start_date"] = bson.M{"$gte": f.FromDate.UTC()}
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []models.CubeEvent
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Store) notFoundOrCancelled(ctx context.Context, id primitive.ObjectID) error {
	ev, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ev.Status == models.EventCancelled {
		return ErrCancelled
	}
	return ErrNotFound
}
