// Package onboarding implements the member onboarding state machine:
// which status transitions are legal, how members advance one step at a
// time, and how inconsistent onboarding records are detected and
// repaired.
package onboarding

import (
	"context"
	"errors"

	"github.com/chapterhub/chapterhub/internal/domain/models"
)

// ErrInvalidTransition is returned when a requested status change is not
// an edge of the onboarding graph.
var ErrInvalidTransition = errors.New("onboarding: invalid status transition")

// validTransitions is the complete edge set of the onboarding graph.
// Every non-terminal status can move one step forward along the main
// chain, or sideways to DENIED or INACTIVE. A status missing from the
// map (or mapped to an empty slice) has no outgoing edges.
var validTransitions = map[models.OnboardingStatus][]models.OnboardingStatus{
	models.StatusPendingApplicationReview: {
		models.StatusPendingOnboardingCall,
		models.StatusDenied,
		models.StatusInactive,
	},
	models.StatusPendingOnboardingCall: {
		models.StatusAwaitingFirstCube,
		models.StatusDenied,
		models.StatusInactive,
	},
	models.StatusAwaitingFirstCube: {
		models.StatusAwaitingMasterclass,
		models.StatusDenied,
		models.StatusInactive,
	},
	models.StatusAwaitingMasterclass: {
		models.StatusAwaitingRevisionCall,
		models.StatusDenied,
		models.StatusInactive,
	},
	models.StatusAwaitingRevisionCall: {
		models.StatusConfirmed,
		models.StatusDenied,
		models.StatusInactive,
	},
	models.StatusConfirmed: nil,
	models.StatusDenied:    nil,
	models.StatusInactive:  nil,
}

// ValidTransition reports whether from -> to is an edge of the
// onboarding graph. Unknown statuses have no edges.
func ValidTransition(from, to models.OnboardingStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves the user to the requested status, or returns
// ErrInvalidTransition if the edge does not exist. The user is only
// mutated on success.
func Transition(u *models.User, to models.OnboardingStatus) error {
	if u == nil {
		return ErrInvalidTransition
	}
	if !ValidTransition(u.OnboardingStatus, to) {
		return ErrInvalidTransition
	}
	u.OnboardingStatus = to
	return nil
}

// Deps supplies the external lookups the machine needs to decide whether
// a member has earned their next step.
type Deps struct {
	// HasAttendedFirstCube reports whether the user has attended at
	// least one completed cube event.
	HasAttendedFirstCube func(ctx context.Context, u *models.User) (bool, error)
}

// AdvanceOne moves the user forward by at most one step along the main
// onboarding chain, and only for steps earned by recorded activity:
//
//	AWAITING_FIRST_CUBE  -> AWAITING_MASTERCLASS   (cube attendance on record)
//	AWAITING_MASTERCLASS -> AWAITING_REVISION_CALL (masterclass watched)
//
// Call-gated steps (leaving PENDING_ONBOARDING_CALL and
// AWAITING_REVISION_CALL) require an explicit organiser action and are
// never taken here. Returns true when the user was advanced.
func AdvanceOne(ctx context.Context, u *models.User, deps Deps) (bool, error) {
	if u == nil {
		return false, nil
	}

	switch u.OnboardingStatus {
	case models.StatusAwaitingFirstCube:
		if deps.HasAttendedFirstCube == nil {
			return false, nil
		}
		attended, err := deps.HasAttendedFirstCube(ctx, u)
		if err != nil {
			return false, err
		}
		if !attended {
			return false, nil
		}
		return true, Transition(u, models.StatusAwaitingMasterclass)

	case models.StatusAwaitingMasterclass:
		if !u.WatchedMasterclass() {
			return false, nil
		}
		return true, Transition(u, models.StatusAwaitingRevisionCall)
	}

	return false, nil
}
