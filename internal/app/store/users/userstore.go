// Package userstore wraps the users collection: member records, role
// changes and their scope side effects, onboarding progress, notes,
// and badges.
package userstore

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
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when creating a user with an email
	// that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrNotFound is returned when the requested user does not exist.
	ErrNotFound = errors.New("user not found")
	errBadRole  = errors.New("unknown role")
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing and validating fields.
// New registrations start as applicants pending application review
// unless the caller set a role and status explicitly.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)
	u.Instagram = normalize.Instagram(u.Instagram)

	if u.Role == "" {
		u.Role = models.RoleApplicant
	}
	if !u.Role.IsValid() {
		return models.User{}, errBadRole
	}
	if u.OnboardingStatus == "" {
		u.OnboardingStatus = models.StatusPendingApplicationReview
	}

	now := time.Now().UTC()
	u.JoinDate = now
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// UpdateRole sets the user's role and applies the scope side effects:
// organiser_of is cleared for roles below chapter organiser, and
// managed_country is removed for roles below regional organiser.
func (s *Store) UpdateRole(ctx context.Context, id primitive.ObjectID, role models.Role) error {
	if !role.IsValid() {
		return errBadRole
	}

	set := bson.M{
		"role":       role,
		"updated_at": time.Now().UTC(),
	}
	unset := bson.M{}
	if role.Level() < models.RoleChapterOrganiser.Level() {
		set["organiser_of"] = []string{}
	}
	if role.Level() < models.RoleRegionalOrganiser.Level() {
		unset["managed_country"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateChapters replaces the user's chapter memberships.
func (s *Store) UpdateChapters(ctx context.Context, id primitive.ObjectID, chapters []string) error {
	if chapters == nil {
		chapters = []string{}
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"chapters":   chapters,
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

// UpdateOrganiserOf replaces the chapters the user organises.
func (s *Store) UpdateOrganiserOf(ctx context.Context, id primitive.ObjectID, chapters []string) error {
	if chapters == nil {
		chapters = []string{}
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"organiser_of": chapters,
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetOnboardingStatus persists an onboarding status the state machine
// has already approved. The store does not re-validate transitions.
func (s *Store) SetOnboardingStatus(ctx context.Context, id primitive.ObjectID, status models.OnboardingStatus) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"onboarding_status": status,
		"updated_at":        time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRoleAndStatus updates role and onboarding status in one write.
// Used when confirming a member also promotes them to activist.
func (s *Store) SetRoleAndStatus(ctx context.Context, id primitive.ObjectID, role models.Role, status models.OnboardingStatus) error {
	if !role.IsValid() {
		return errBadRole
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"role":              role,
		"onboarding_status": status,
		"updated_at":        time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ScheduleOnboardingCall records the scheduled onboarding call time.
func (s *Store) ScheduleOnboardingCall(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return s.setProgressField(ctx, id, "onboarding_progress.onboarding_call_scheduled_at", at.UTC())
}

// ScheduleRevisionCall records the scheduled revision call time.
func (s *Store) ScheduleRevisionCall(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return s.setProgressField(ctx, id, "onboarding_progress.revision_call_scheduled_at", at.UTC())
}

// MarkMasterclassWatched flags the masterclass as completed.
func (s *Store) MarkMasterclassWatched(ctx context.Context, id primitive.ObjectID) error {
	return s.setProgressField(ctx, id, "onboarding_progress.watched_masterclass", true)
}

func (s *Store) setProgressField(ctx context.Context, id primitive.ObjectID, field string, value any) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		field:        value,
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

// AddOrganizerNote appends a note to the user's record.
func (s *Store) AddOrganizerNote(ctx context.Context, id primitive.ObjectID, note models.OrganizerNote) error {
	note.ID = primitive.NewObjectID()
	note.CreatedAt = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"organizer_notes": note},
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

// AwardBadge appends a badge to the user's record.
func (s *Store) AwardBadge(ctx context.Context, id primitive.ObjectID, badge models.EarnedBadge) error {
	if badge.AwardedAt.IsZero() {
		badge.AwardedAt = time.Now().UTC()
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"badges": badge},
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

// UpdateLastLogin stamps the user's last login time.
func (s *Store) UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"last_login": now,
		"updated_at": now,
	}})
	return err
}

// Delete removes a user by ID. Returns the number of documents deleted
// (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListFilter narrows the member directory query.
type ListFilter struct {
	Chapter          string
	Role             models.Role
	OnboardingStatus models.OnboardingStatus
	Search           string // folded name prefix
	Window           bson.M // keyset cursor condition, merged into the filter
}

// List returns members matching the filter, sorted by folded name with
// _id tiebreak. Callers apply paging via the opts parameter.
func (s *Store) List(ctx context.Context, f ListFilter, opts *options.FindOptions) ([]models.User, error) {
	filter := bson.M{}
	if f.Chapter != "" {
		filter["chapters"] = f.Chapter
	}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.OnboardingStatus != "" {
		filter["onboarding_status"] = f.OnboardingStatus
	}
	if f.Search != "" {
		filter["name_ci"] = bson.M{"$regex": "^" + text.Fold(f.Search)}
	}
	for k, v := range f.Window {
		filter[k] = v
	}

	if opts == nil {
		opts = options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListByOnboardingStatus returns every user in one of the given
// statuses. The fix sweep uses this to scan the non-terminal chain.
func (s *Store) ListByOnboardingStatus(ctx context.Context, statuses ...models.OnboardingStatus) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{"onboarding_status": bson.M{"$in": statuses}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// OrganisersOf returns the users who organise the given chapter.
func (s *Store) OrganisersOf(ctx context.Context, chapter string) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{"organiser_of": chapter})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// RegionalOrganisersOf returns the regional organisers managing the
// given country.
func (s *Store) RegionalOrganisersOf(ctx context.Context, country string) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"role":            models.RoleRegionalOrganiser,
		"managed_country": country,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GlobalAdmins returns every global admin (godmode included).
func (s *Store) GlobalAdmins(ctx context.Context) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"role": bson.M{"$in": []models.Role{models.RoleGlobalAdmin, models.RoleGodmode}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// TopByStat returns the highest-ranked users for one stats field,
// descending, with name tiebreak. Used by the leaderboard.
func (s *Store) TopByStat(ctx context.Context, statField string, limit int64) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "stats." + statField, Value: -1}, {Key: "name_ci", Value: 1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"onboarding_status": models.StatusConfirmed}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// IncrementStats applies stat deltas after an event report is logged.
func (s *Store) IncrementStats(ctx context.Context, id primitive.ObjectID, hours float64, cubes int) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{
			"stats.total_hours":    hours,
			"stats.cubes_attended": cubes,
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// IncrementOutreachStats credits logged conversations and, for positive
// outcomes, conversions.
func (s *Store) IncrementOutreachStats(ctx context.Context, id primitive.ObjectID, conversations, conversions int) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{
			"stats.total_conversations": conversations,
			"stats.vegan_conversions":   conversions,
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}
