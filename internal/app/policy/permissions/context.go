// internal/app/policy/permissions/context.go
package permissions

import "github.com/chapterhub/chapterhub/internal/domain/models"

// Context carries the target data a contextual permission rule needs.
// Each permission family has its own context type so callers cannot pass
// an under-specified bag; a check that receives the wrong context type, or
// none where one is required, denies.
type Context interface {
	context()
}

// None is the context for permissions resolved purely from the grant table
// (directory/dashboard/analytics views, event and chapter creation).
type None struct{}

func (None) context() {}

// TargetUserContext scopes user-management permissions (role editing,
// deletion, verification, notes, badges) to a specific member.
// AllChapters is required for the Regional Organiser containment rule,
// which resolves the target's chapters to countries.
type TargetUserContext struct {
	Target      *models.User
	AllChapters []models.Chapter
}

func (TargetUserContext) context() {}

// EventContext scopes event-management permissions to a specific event.
// AllChapters is required to resolve the event's city to a country for the
// Regional Organiser rule; without it that rule denies.
type EventContext struct {
	Event       *models.CubeEvent
	AllChapters []models.Chapter
}

func (EventContext) context() {}

// ChapterContext scopes chapter-management permissions to a chapter name.
// The chapter must resolve within AllChapters or the check denies.
type ChapterContext struct {
	ChapterName string
	AllChapters []models.Chapter
}

func (ChapterContext) context() {}

// AnnouncementContext scopes announcement creation to an audience. Chapter
// names the target chapter for ScopeChapter; Country names the target
// region for ScopeRegional. AllChapters is required when a Regional
// Organiser posts to a chapter, to resolve the chapter's country.
type AnnouncementContext struct {
	Scope       models.AnnouncementScope
	Chapter     string
	Country     string
	AllChapters []models.Chapter
}

func (AnnouncementContext) context() {}
