// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is an activist's position in the organization. Roles form a strict
// hierarchy; use Level to compare them.
type Role string

const (
	RoleApplicant         Role = "Applicant"
	RoleActivist          Role = "Activist"
	RoleChapterOrganiser  Role = "Chapter Organiser"
	RoleRegionalOrganiser Role = "Regional Organiser"
	RoleGlobalAdmin       Role = "Global Admin"
	RoleGodmode           Role = "Godmode"
)

// AllRoles lists every role in ascending hierarchy order.
var AllRoles = []Role{
	RoleApplicant,
	RoleActivist,
	RoleChapterOrganiser,
	RoleRegionalOrganiser,
	RoleGlobalAdmin,
	RoleGodmode,
}

// Level returns the numeric hierarchy level of the role. Higher level means
// a superset of the capabilities of every lower level, except where a
// permission is scope-restricted. Unknown roles rank below Applicant so a
// corrupted record never gains access.
func (r Role) Level() int {
	switch r {
	case RoleApplicant:
		return 0
	case RoleActivist:
		return 1
	case RoleChapterOrganiser:
		return 2
	case RoleRegionalOrganiser:
		return 3
	case RoleGlobalAdmin:
		return 4
	case RoleGodmode:
		return 5
	default:
		return -1
	}
}

// IsValid reports whether r is one of the defined role variants.
func (r Role) IsValid() bool {
	return r.Level() >= 0
}

// UserStats tracks an activist's accumulated outreach activity.
type UserStats struct {
	TotalHours         float64  `bson:"total_hours" json:"total_hours"`
	CubesAttended      int      `bson:"cubes_attended" json:"cubes_attended"`
	VeganConversions   int      `bson:"vegan_conversions" json:"vegan_conversions"`
	TotalConversations int      `bson:"total_conversations" json:"total_conversations"`
	Cities             []string `bson:"cities,omitempty" json:"cities,omitempty"`
}

// OnboardingAnswers holds the application questionnaire a prospective
// activist submits at registration.
type OnboardingAnswers struct {
	VeganReason           string `bson:"vegan_reason" json:"vegan_reason"`
	AbolitionistAlignment bool   `bson:"abolitionist_alignment" json:"abolitionist_alignment"`
	CustomAnswer          string `bson:"custom_answer,omitempty" json:"custom_answer,omitempty"`
}

// OnboardingProgress records completion of individual onboarding sub-steps.
type OnboardingProgress struct {
	WatchedMasterclass        bool                `bson:"watched_masterclass" json:"watched_masterclass"`
	SelectedOrganiserID       *primitive.ObjectID `bson:"selected_organiser_id,omitempty" json:"selected_organiser_id,omitempty"`
	OnboardingCallScheduledAt *time.Time          `bson:"onboarding_call_scheduled_at,omitempty" json:"onboarding_call_scheduled_at,omitempty"`
	RevisionCallScheduledAt   *time.Time          `bson:"revision_call_scheduled_at,omitempty" json:"revision_call_scheduled_at,omitempty"`
	OnboardingCallContactInfo string              `bson:"onboarding_call_contact_info,omitempty" json:"onboarding_call_contact_info,omitempty"`
	RevisionCallContactInfo   string              `bson:"revision_call_contact_info,omitempty" json:"revision_call_contact_info,omitempty"`
}

// OrganizerNote is an internal note organizers keep about a member.
// Content is sanitized before storage.
type OrganizerNote struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	AuthorID   primitive.ObjectID `bson:"author_id" json:"author_id"`
	AuthorName string             `bson:"author_name" json:"author_name"`
	Content    string             `bson:"content" json:"content"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// EarnedBadge is a badge awarded to a user.
type EarnedBadge struct {
	ID          string    `bson:"id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Icon        string    `bson:"icon,omitempty" json:"icon,omitempty"`
	AwardedAt   time.Time `bson:"awarded_at" json:"awarded_at"`
}

// User represents everyone in the network, from fresh applicants to global
// admins.
//
// NOTE:
//   - OrganiserOf is meaningful only at Chapter Organiser level and above;
//     ManagedCountry only at Regional Organiser level and above. The user
//     store's UpdateRole enforces both invariants when a role is lowered.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Instagram    string             `bson:"instagram,omitempty" json:"instagram,omitempty"`

	Role           Role     `bson:"role" json:"role"`
	Chapters       []string `bson:"chapters" json:"chapters"`
	OrganiserOf    []string `bson:"organiser_of,omitempty" json:"organiser_of,omitempty"`
	ManagedCountry *string  `bson:"managed_country,omitempty" json:"managed_country,omitempty"`

	OnboardingStatus   OnboardingStatus    `bson:"onboarding_status" json:"onboarding_status"`
	OnboardingProgress *OnboardingProgress `bson:"onboarding_progress,omitempty" json:"onboarding_progress,omitempty"`
	OnboardingAnswers  *OnboardingAnswers  `bson:"onboarding_answers,omitempty" json:"onboarding_answers,omitempty"`

	Stats          UserStats       `bson:"stats" json:"stats"`
	Badges         []EarnedBadge   `bson:"badges,omitempty" json:"badges,omitempty"`
	OrganizerNotes []OrganizerNote `bson:"organizer_notes,omitempty" json:"-"`

	HostingAvailability bool `bson:"hosting_availability" json:"hosting_availability"`
	HostingCapacity     int  `bson:"hosting_capacity,omitempty" json:"hosting_capacity,omitempty"`

	ProfilePictureURL string     `bson:"profile_picture_url,omitempty" json:"profile_picture_url,omitempty"`
	JoinDate          time.Time  `bson:"join_date" json:"join_date"`
	LastLogin         time.Time  `bson:"last_login" json:"last_login"`
	LeaveDate         *time.Time `bson:"leave_date,omitempty" json:"leave_date,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Organises reports whether the user organises the named chapter.
func (u *User) Organises(chapter string) bool {
	for _, c := range u.OrganiserOf {
		if c == chapter {
			return true
		}
	}
	return false
}

// BelongsTo reports whether the user is a member of the named chapter.
func (u *User) BelongsTo(chapter string) bool {
	for _, c := range u.Chapters {
		if c == chapter {
			return true
		}
	}
	return false
}

// WatchedMasterclass reports the masterclass progress flag, tolerating a
// missing progress record.
func (u *User) WatchedMasterclass() bool {
	return u.OnboardingProgress != nil && u.OnboardingProgress.WatchedMasterclass
}
