package onboarding

import (
	"context"
	"fmt"

	"github.com/chapterhub/chapterhub/internal/domain/models"
)

// IssueCode identifies one class of onboarding-record inconsistency.
type IssueCode string

const (
	// IssueConfirmedWithoutMasterclass: confirmed member never watched
	// the masterclass. Not auto-fixable: repairs only move forward, so
	// this is surfaced for an organiser to resolve.
	IssueConfirmedWithoutMasterclass IssueCode = "confirmed_without_masterclass"
	// IssueRevisionCallWithoutCube: member is awaiting their revision
	// call but has no cube attendance on record. Not auto-fixable.
	IssueRevisionCallWithoutCube IssueCode = "revision_call_without_cube"
	// IssueStaleAwaitingMasterclass: member already watched the
	// masterclass but their status was never advanced.
	IssueStaleAwaitingMasterclass IssueCode = "stale_awaiting_masterclass"
	// IssueStaleAwaitingFirstCube: member already attended a cube but
	// their status was never advanced.
	IssueStaleAwaitingFirstCube IssueCode = "stale_awaiting_first_cube"
	// IssueConfirmedWithoutAnswers: confirmed member has no onboarding
	// answers recorded. Not auto-fixable.
	IssueConfirmedWithoutAnswers IssueCode = "confirmed_without_answers"
)

// Issue is one detected inconsistency in a user's onboarding record.
type Issue struct {
	Code        IssueCode               `json:"code"`
	Description string                  `json:"description"`
	Fixable     bool                    `json:"fixable"`
	FixedStatus models.OnboardingStatus `json:"fixedStatus,omitempty"`
}

// Validate checks a user's onboarding record against their recorded
// activity and returns every inconsistency found. A nil or empty result
// means the record is consistent.
func Validate(ctx context.Context, u *models.User, deps Deps) ([]Issue, error) {
	if u == nil {
		return nil, nil
	}

	var issues []Issue

	attended := false
	if deps.HasAttendedFirstCube != nil {
		var err error
		attended, err = deps.HasAttendedFirstCube(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("checking cube attendance for %s: %w", u.ID.Hex(), err)
		}
	}

	switch u.OnboardingStatus {
	case models.StatusConfirmed:
		if !u.WatchedMasterclass() {
			issues = append(issues, Issue{
				Code:        IssueConfirmedWithoutMasterclass,
				Description: "confirmed but never watched the masterclass",
			})
		}
		if u.OnboardingAnswers == nil {
			issues = append(issues, Issue{
				Code:        IssueConfirmedWithoutAnswers,
				Description: "confirmed without onboarding answers on record",
			})
		}

	case models.StatusAwaitingRevisionCall:
		if !attended {
			issues = append(issues, Issue{
				Code:        IssueRevisionCallWithoutCube,
				Description: "awaiting revision call with no cube attendance on record",
			})
		}

	case models.StatusAwaitingMasterclass:
		if u.WatchedMasterclass() {
			issues = append(issues, Issue{
				Code:        IssueStaleAwaitingMasterclass,
				Description: "masterclass already watched, status never advanced",
				Fixable:     true,
				FixedStatus: models.StatusAwaitingRevisionCall,
			})
		}

	case models.StatusAwaitingFirstCube:
		if attended {
			issues = append(issues, Issue{
				Code:        IssueStaleAwaitingFirstCube,
				Description: "cube already attended, status never advanced",
				Fixable:     true,
				FixedStatus: models.StatusAwaitingMasterclass,
			})
		}
	}

	return issues, nil
}

// Fix is the record of one applied repair.
type Fix struct {
	UserID string                  `json:"userId"`
	Code   IssueCode               `json:"code"`
	From   models.OnboardingStatus `json:"from"`
	To     models.OnboardingStatus `json:"to"`
}

// FixAll repairs every fixable inconsistency across the given users,
// re-validating each user until their record reaches a fixed point
// (advancing a stale status can immediately expose the next stale
// status). Repairs only move forward along the onboarding chain: a
// member is never demoted, and backward inconsistencies are reported
// as non-fixable issues for an organiser to resolve. Users are
// processed in input order and only mutated in memory; persisting the
// result is the caller's job. Running FixAll on its own output applies
// no further fixes.
func FixAll(ctx context.Context, users []*models.User, deps Deps) ([]Fix, error) {
	var fixes []Fix

	for _, u := range users {
		for {
			issues, err := Validate(ctx, u, deps)
			if err != nil {
				return fixes, err
			}

			applied := false
			for _, issue := range issues {
				if !issue.Fixable {
					continue
				}
				fixes = append(fixes, Fix{
					UserID: u.ID.Hex(),
					Code:   issue.Code,
					From:   u.OnboardingStatus,
					To:     issue.FixedStatus,
				})
				// Forward repairs are ordinary chain edges.
				if err := Transition(u, issue.FixedStatus); err != nil {
					return fixes, err
				}
				applied = true
				break
			}
			if !applied {
				break
			}
		}
	}

	return fixes, nil
}
