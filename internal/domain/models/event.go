// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventScope is the breadth of an event's audience.
type EventScope string

const (
	EventScopeChapter  EventScope = "Chapter"
	EventScopeRegional EventScope = "Regional"
	EventScopeGlobal   EventScope = "Global"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventUpcoming  EventStatus = "Upcoming"
	EventOngoing   EventStatus = "Ongoing"
	EventFinished  EventStatus = "Finished"
	EventCancelled EventStatus = "Cancelled"
)

// ParticipantStatus is a user's RSVP state for an event.
type ParticipantStatus string

const (
	ParticipantPending   ParticipantStatus = "Pending"
	ParticipantAttending ParticipantStatus = "Attending"
	ParticipantDeclined  ParticipantStatus = "Declined"
)

// Attendance marks in an event report.
const (
	AttendanceAttended = "Attended"
	AttendanceAbsent   = "Absent"
)

// TourDuty assigns a participant a job on one day of a multi-day event.
type TourDuty struct {
	Date string `bson:"date" json:"date"` // YYYY-MM-DD
	Role string `bson:"role" json:"role"` // Outreach | Equipment | Transport
}

// EventParticipant links a user to an event with their RSVP status.
type EventParticipant struct {
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	Name       string             `bson:"name" json:"name"`
	Status     ParticipantStatus  `bson:"status" json:"status"`
	TourDuties []TourDuty         `bson:"tour_duties,omitempty" json:"tour_duties,omitempty"`
}

// EventReport is the organizer's post-event log: hours on the street and
// who actually showed up. Attendance keys are user ID hex strings.
type EventReport struct {
	Hours      float64            `bson:"hours" json:"hours"`
	Attendance map[string]string  `bson:"attendance" json:"attendance"` // userID hex -> Attended|Absent
	LoggedBy   primitive.ObjectID `bson:"logged_by" json:"logged_by"`
	LoggedAt   time.Time          `bson:"logged_at" json:"logged_at"`
}

// CubeEvent is a street outreach event hosted by a chapter.
type CubeEvent struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	City     string             `bson:"city" json:"city"` // chapter name
	Location string             `bson:"location" json:"location"`

	StartDate time.Time  `bson:"start_date" json:"start_date"`
	EndDate   *time.Time `bson:"end_date,omitempty" json:"end_date,omitempty"`

	Scope        EventScope `bson:"scope" json:"scope"`
	TargetRegion string     `bson:"target_region,omitempty" json:"target_region,omitempty"`

	OrganizerID   primitive.ObjectID `bson:"organizer_id" json:"organizer_id"`
	OrganizerName string             `bson:"organizer_name" json:"organizer_name"`

	Participants []EventParticipant `bson:"participants,omitempty" json:"participants,omitempty"`

	Status             EventStatus  `bson:"status" json:"status"`
	Report             *EventReport `bson:"report,omitempty" json:"report,omitempty"`
	CancellationReason string       `bson:"cancellation_reason,omitempty" json:"cancellation_reason,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
