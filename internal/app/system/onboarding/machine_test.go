package onboarding_test

import (
	"context"
	"errors"
	"testing"

	"github.com/chapterhub/chapterhub/internal/app/system/onboarding"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newUser(status models.OnboardingStatus) *models.User {
	return &models.User{
		ID:               primitive.NewObjectID(),
		Name:             "Test Member",
		Role:             models.RoleApplicant,
		OnboardingStatus: status,
	}
}

func attendedYes(context.Context, *models.User) (bool, error) { return true, nil }
func attendedNo(context.Context, *models.User) (bool, error)  { return false, nil }

func TestValidTransition(t *testing.T) {
	allowed := []struct{ from, to models.OnboardingStatus }{
		{models.StatusPendingApplicationReview, models.StatusPendingOnboardingCall},
		{models.StatusPendingOnboardingCall, models.StatusAwaitingFirstCube},
		{models.StatusAwaitingFirstCube, models.StatusAwaitingMasterclass},
		{models.StatusAwaitingMasterclass, models.StatusAwaitingRevisionCall},
		{models.StatusAwaitingRevisionCall, models.StatusConfirmed},
	}
	for _, tc := range allowed {
		if !onboarding.ValidTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be valid", tc.from, tc.to)
		}
	}

	// Both side states are reachable from every non-terminal status.
	nonTerminal := []models.OnboardingStatus{
		models.StatusPendingApplicationReview,
		models.StatusPendingOnboardingCall,
		models.StatusAwaitingFirstCube,
		models.StatusAwaitingMasterclass,
		models.StatusAwaitingRevisionCall,
	}
	for _, from := range nonTerminal {
		for _, to := range []models.OnboardingStatus{models.StatusDenied, models.StatusInactive} {
			if !onboarding.ValidTransition(from, to) {
				t.Errorf("%s -> %s should be valid", from, to)
			}
		}
	}

	denied := []struct{ from, to models.OnboardingStatus }{
		// No skipping steps.
		{models.StatusPendingApplicationReview, models.StatusAwaitingFirstCube},
		{models.StatusPendingOnboardingCall, models.StatusAwaitingMasterclass},
		{models.StatusAwaitingFirstCube, models.StatusAwaitingRevisionCall},
		{models.StatusAwaitingFirstCube, models.StatusConfirmed},
		// No moving backwards.
		{models.StatusAwaitingMasterclass, models.StatusAwaitingFirstCube},
		{models.StatusConfirmed, models.StatusAwaitingRevisionCall},
		// Terminal states have no exits.
		{models.StatusConfirmed, models.StatusInactive},
		{models.StatusDenied, models.StatusPendingApplicationReview},
		{models.StatusInactive, models.StatusAwaitingFirstCube},
		// Unknown statuses have no edges.
		{"Bogus", models.StatusConfirmed},
		{models.StatusPendingApplicationReview, "Bogus"},
	}
	for _, tc := range denied {
		if onboarding.ValidTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be invalid", tc.from, tc.to)
		}
	}
}

func TestTransition_RejectsIllegalEdge(t *testing.T) {
	u := newUser(models.StatusPendingApplicationReview)

	err := onboarding.Transition(u, models.StatusConfirmed)
	if !errors.Is(err, onboarding.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
	if u.OnboardingStatus != models.StatusPendingApplicationReview {
		t.Error("user must not be mutated on a rejected transition")
	}

	if err := onboarding.Transition(u, models.StatusPendingOnboardingCall); err != nil {
		t.Fatalf("legal transition failed: %v", err)
	}
	if u.OnboardingStatus != models.StatusPendingOnboardingCall {
		t.Errorf("status = %s, want %s", u.OnboardingStatus, models.StatusPendingOnboardingCall)
	}
}

func TestAdvanceOne_FirstCubeStep(t *testing.T) {
	ctx := context.Background()

	u := newUser(models.StatusAwaitingFirstCube)
	moved, err := onboarding.AdvanceOne(ctx, u, onboarding.Deps{HasAttendedFirstCube: attendedNo})
	if err != nil || moved {
		t.Fatalf("without attendance: moved=%v err=%v, want no move", moved, err)
	}

	moved, err = onboarding.AdvanceOne(ctx, u, onboarding.Deps{HasAttendedFirstCube: attendedYes})
	if err != nil {
		t.Fatal(err)
	}
	if !moved || u.OnboardingStatus != models.StatusAwaitingMasterclass {
		t.Errorf("moved=%v status=%s, want advance to %s", moved, u.OnboardingStatus, models.StatusAwaitingMasterclass)
	}
}

func TestAdvanceOne_MasterclassStep(t *testing.T) {
	ctx := context.Background()

	u := newUser(models.StatusAwaitingMasterclass)
	moved, err := onboarding.AdvanceOne(ctx, u, onboarding.Deps{HasAttendedFirstCube: attendedYes})
	if err != nil || moved {
		t.Fatalf("without masterclass: moved=%v err=%v, want no move", moved, err)
	}

	u.OnboardingProgress = &models.OnboardingProgress{WatchedMasterclass: true}
	moved, err = onboarding.AdvanceOne(ctx, u, onboarding.Deps{HasAttendedFirstCube: attendedYes})
	if err != nil {
		t.Fatal(err)
	}
	if !moved || u.OnboardingStatus != models.StatusAwaitingRevisionCall {
		t.Errorf("moved=%v status=%s, want advance to %s", moved, u.OnboardingStatus, models.StatusAwaitingRevisionCall)
	}
}

func TestAdvanceOne_NeverSkipsSteps(t *testing.T) {
	// A member with every prerequisite satisfied still advances exactly
	// one step per call.
	ctx := context.Background()

	u := newUser(models.StatusAwaitingFirstCube)
	u.OnboardingProgress = &models.OnboardingProgress{WatchedMasterclass: true}

	deps := onboarding.Deps{HasAttendedFirstCube: attendedYes}
	if moved, err := onboarding.AdvanceOne(ctx, u, deps); err != nil || !moved {
		t.Fatalf("first advance: moved=%v err=%v", moved, err)
	}
	if u.OnboardingStatus != models.StatusAwaitingMasterclass {
		t.Fatalf("after one call status = %s, want %s", u.OnboardingStatus, models.StatusAwaitingMasterclass)
	}
}

func TestAdvanceOne_NeverTakesCallGatedSteps(t *testing.T) {
	ctx := context.Background()
	deps := onboarding.Deps{HasAttendedFirstCube: attendedYes}

	for _, status := range []models.OnboardingStatus{
		models.StatusPendingApplicationReview,
		models.StatusPendingOnboardingCall,
		models.StatusAwaitingRevisionCall,
		models.StatusConfirmed,
		models.StatusDenied,
		models.StatusInactive,
	} {
		u := newUser(status)
		moved, err := onboarding.AdvanceOne(ctx, u, deps)
		if err != nil {
			t.Fatal(err)
		}
		if moved || u.OnboardingStatus != status {
			t.Errorf("%s: auto-advance must not fire", status)
		}
	}
}

func TestAdvanceOne_PropagatesLookupError(t *testing.T) {
	boom := errors.New("boom")
	deps := onboarding.Deps{
		HasAttendedFirstCube: func(context.Context, *models.User) (bool, error) { return false, boom },
	}

	u := newUser(models.StatusAwaitingFirstCube)
	moved, err := onboarding.AdvanceOne(context.Background(), u, deps)
	if moved || !errors.Is(err, boom) {
		t.Errorf("moved=%v err=%v, want lookup error and no move", moved, err)
	}
}

func TestChainIndex(t *testing.T) {
	if got := models.StatusPendingApplicationReview.ChainIndex(); got != 0 {
		t.Errorf("first chain status index = %d, want 0", got)
	}
	if got := models.StatusConfirmed.ChainIndex(); got != len(models.OnboardingChain)-1 {
		t.Errorf("confirmed index = %d, want %d", got, len(models.OnboardingChain)-1)
	}
	if got := models.StatusDenied.ChainIndex(); got != -1 {
		t.Errorf("side state index = %d, want -1", got)
	}
}
