// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType categorizes in-app notifications.
type NotificationType string

const (
	NotifNewApplicant    NotificationType = "new_applicant"
	NotifRequestAccepted NotificationType = "request_accepted"
	NotifRequestDenied   NotificationType = "request_denied"
	NotifRoleUpdated     NotificationType = "role_updated"
	NotifEventUpdated    NotificationType = "event_updated"
	NotifNewAnnouncement NotificationType = "new_announcement"
	NotifBadgeAwarded    NotificationType = "badge_awarded"
)

// Notification is a persisted in-app notification. Delivery (email, push)
// is out of scope; the API only records and lists them.
type Notification struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Type          NotificationType    `bson:"type" json:"type"`
	Message       string              `bson:"message" json:"message"`
	LinkTo        string              `bson:"link_to,omitempty" json:"link_to,omitempty"`
	RelatedUserID *primitive.ObjectID `bson:"related_user_id,omitempty" json:"related_user_id,omitempty"`
	Read          bool                `bson:"read" json:"read"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
}
