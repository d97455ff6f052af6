// internal/domain/models/onboarding.go
package models

// OnboardingStatus is a node in the applicant onboarding state machine.
// The main chain runs forward only; Denied and Inactive are absorbing side
// states reachable from any non-terminal status via explicit organizer
// action. Transition logic lives in internal/app/system/onboarding.
type OnboardingStatus string

const (
	StatusPendingApplicationReview OnboardingStatus = "Pending Application Review"
	StatusPendingOnboardingCall    OnboardingStatus = "Pending Onboarding Call"
	StatusAwaitingFirstCube        OnboardingStatus = "Awaiting First Cube"
	StatusAwaitingMasterclass      OnboardingStatus = "Awaiting Masterclass"
	StatusAwaitingRevisionCall     OnboardingStatus = "Awaiting Revision Call"
	StatusConfirmed                OnboardingStatus = "Confirmed"
	StatusDenied                   OnboardingStatus = "Denied"
	StatusInactive                 OnboardingStatus = "Inactive"
)

// OnboardingChain is the ordered main chain, excluding the Denied/Inactive
// side states.
var OnboardingChain = []OnboardingStatus{
	StatusPendingApplicationReview,
	StatusPendingOnboardingCall,
	StatusAwaitingFirstCube,
	StatusAwaitingMasterclass,
	StatusAwaitingRevisionCall,
	StatusConfirmed,
}

// ChainIndex returns the status's position on the main chain, or -1 for the
// Denied/Inactive side states and unknown values.
func (s OnboardingStatus) ChainIndex() int {
	for i, st := range OnboardingChain {
		if st == s {
			return i
		}
	}
	return -1
}

// Terminal reports whether no further transition out of s is possible.
// Confirmed is the terminal success state; Denied and Inactive are the
// terminal failure/dormant states.
func (s OnboardingStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusDenied || s == StatusInactive
}
