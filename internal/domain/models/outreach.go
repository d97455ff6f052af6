// internal/domain/models/outreach.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OutreachOutcome is how a street conversation ended.
type OutreachOutcome string

const (
	OutcomeBecameVegan       OutreachOutcome = "Became Vegan"
	OutcomeConsideringVegan  OutreachOutcome = "Considering Veganism"
	OutcomeMostlyPositive    OutreachOutcome = "Mostly Positive"
	OutcomeNeutral           OutreachOutcome = "Neutral"
	OutcomeDismissive        OutreachOutcome = "Dismissive"
)

// OutreachLog records one conversation an activist had during outreach.
type OutreachLog struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"user_id"`
	EventID   *primitive.ObjectID `bson:"event_id,omitempty" json:"event_id,omitempty"`
	Outcome   OutreachOutcome     `bson:"outcome" json:"outcome"`
	Notes     string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}
