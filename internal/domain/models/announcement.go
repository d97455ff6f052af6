// internal/domain/models/announcement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnnouncementScope is the audience breadth of an announcement. The order
// Global, Regional, Chapter is also the fixed display order.
type AnnouncementScope string

const (
	ScopeGlobal   AnnouncementScope = "Global"
	ScopeRegional AnnouncementScope = "Regional"
	ScopeChapter  AnnouncementScope = "Chapter"
)

// IsValid reports whether s is a defined announcement scope.
func (s AnnouncementScope) IsValid() bool {
	switch s {
	case ScopeGlobal, ScopeRegional, ScopeChapter:
		return true
	}
	return false
}

// Announcement is a post from an organizer to a chapter, a region, or the
// whole network. Content is sanitized HTML.
type Announcement struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID   primitive.ObjectID `bson:"author_id" json:"author_id"`
	AuthorName string             `bson:"author_name" json:"author_name"`

	Scope   AnnouncementScope `bson:"scope" json:"scope"`
	Chapter string            `bson:"chapter,omitempty" json:"chapter,omitempty"` // chapter-scope target
	Country string            `bson:"country,omitempty" json:"country,omitempty"` // regional-scope target

	Title   string `bson:"title" json:"title"`
	Content string `bson:"content" json:"content"`
	CTALink string `bson:"cta_link,omitempty" json:"cta_link,omitempty"`
	CTAText string `bson:"cta_text,omitempty" json:"cta_text,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
