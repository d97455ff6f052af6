// internal/app/system/onboarding/sweep.go
package onboarding

import (
	"context"

	"github.com/chapterhub/chapterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// sweepStatuses are the pipeline states Validate can flag. Terminal
// failure states (denied, inactive) never need repair.
var sweepStatuses = []models.OnboardingStatus{
	models.StatusAwaitingFirstCube,
	models.StatusAwaitingMasterclass,
	models.StatusAwaitingRevisionCall,
	models.StatusConfirmed,
}

// UserSource is the slice of the user store the sweeper needs.
type UserSource interface {
	ListByOnboardingStatus(ctx context.Context, statuses ...models.OnboardingStatus) ([]models.User, error)
	SetOnboardingStatus(ctx context.Context, id primitive.ObjectID, status models.OnboardingStatus) error
}

// Sweeper validates onboarding records in bulk and persists repairs.
// It backs both the periodic background job and the admin fix endpoint.
type Sweeper struct {
	users UserSource
	deps  Deps
	log   *zap.Logger
}

func NewSweeper(users UserSource, deps Deps, logger *zap.Logger) *Sweeper {
	return &Sweeper{users: users, deps: deps, log: logger}
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Checked int   `json:"checked"`
	Fixes   []Fix `json:"fixes"`
}

// Run validates every user in a sweepable status and persists the
// repaired statuses. Repairs that chain (one fix exposing the next)
// are resolved before anything is written, so each user gets at most
// one status write per sweep.
func (s *Sweeper) Run(ctx context.Context) (SweepResult, error) {
	list, err := s.users.ListByOnboardingStatus(ctx, sweepStatuses...)
	if err != nil {
		return SweepResult{}, err
	}

	users := make([]*models.User, len(list))
	for i := range list {
		users[i] = &list[i]
	}

	fixes, err := FixAll(ctx, users, s.deps)
	if err != nil {
		return SweepResult{}, err
	}

	// Final status per user; FixAll already applied chained repairs
	// to the in-memory records.
	final := make(map[string]models.OnboardingStatus)
	for _, f := range fixes {
		final[f.UserID] = f.To
	}
	for hex, status := range final {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return SweepResult{}, err
		}
		if err := s.users.SetOnboardingStatus(ctx, id, status); err != nil {
			return SweepResult{}, err
		}
	}

	if len(fixes) > 0 {
		s.log.Info("onboarding sweep repaired records",
			zap.Int("checked", len(users)),
			zap.Int("fixes", len(fixes)))
	}
	return SweepResult{Checked: len(users), Fixes: fixes}, nil
}
