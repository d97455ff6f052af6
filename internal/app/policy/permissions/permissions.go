// internal/app/policy/permissions/permissions.go

// Package permissions is the central capability check for ChapterHub.
//
// Every guarded action funnels through Can(user, permission, context).
// Rules resolve in a fixed precedence order, short-circuiting on the first
// match:
//
//  1. Self-ownership (e.g. the event's organizer may always edit it)
//  2. Hierarchy threshold (role level >= the permission's minimum role)
//  3. Scope containment (Chapter Organisers via OrganiserOf, Regional
//     Organisers via ManagedCountry resolved through the chapter list)
//  4. Deny
//
// Can never returns an error and never panics: a nil user, an unknown
// permission, or a missing/wrong-shaped context all resolve to false.
// Failing closed keeps the function safe to call freely from route guards
// and render paths.
package permissions

import "github.com/chapterhub/chapterhub/internal/domain/models"

// Permission is a named capability checked via Can.
type Permission string

const (
	ViewMemberDirectory     Permission = "view_member_directory"
	ViewManagementDashboard Permission = "view_management_dashboard"
	EditUserRoles           Permission = "edit_user_roles"
	EditUserChapters        Permission = "edit_user_chapters"
	DeleteUser              Permission = "delete_user"
	VerifyUser              Permission = "verify_user"
	ViewOrganizerNotes      Permission = "view_organizer_notes"
	AddOrganizerNote        Permission = "add_organizer_note"

	CreateEvent             Permission = "create_event"
	EditEvent               Permission = "edit_event"
	CancelEvent             Permission = "cancel_event"
	LogEventReport          Permission = "log_event_report"
	ManageEventParticipants Permission = "manage_event_participants"

	CreateChapter   Permission = "create_chapter"
	EditChapter     Permission = "edit_chapter"
	DeleteChapter   Permission = "delete_chapter"
	ManageInventory Permission = "manage_inventory"

	CreateAnnouncement Permission = "create_announcement"

	ViewAnalytics Permission = "view_analytics"

	AwardBadge Permission = "award_badge"
)

// organiserPermissions are granted to Chapter Organisers and everything
// above them. Contextual rules still apply on top of this base grant.
var organiserPermissions = []Permission{
	ViewMemberDirectory,
	ViewManagementDashboard,
	EditUserRoles,
	EditUserChapters,
	DeleteUser,
	VerifyUser,
	ViewOrganizerNotes,
	AddOrganizerNote,
	CreateEvent,
	EditEvent,
	CancelEvent,
	LogEventReport,
	ManageEventParticipants,
	EditChapter,
	ManageInventory,
	CreateAnnouncement,
	AwardBadge,
	ViewAnalytics,
}

// regionalExtras are additionally granted at Regional Organiser level and
// above.
var regionalExtras = []Permission{
	CreateChapter,
	DeleteChapter,
}

// rolePermissions is the base role -> permission grant table. Godmode and
// Global Admin hold everything; Applicants and Activists hold nothing here
// (their abilities, like RSVPing to events, are not guarded permissions).
var rolePermissions = map[models.Role]map[Permission]bool{
	models.RoleGodmode:           permSet(organiserPermissions, regionalExtras),
	models.RoleGlobalAdmin:       permSet(organiserPermissions, regionalExtras),
	models.RoleRegionalOrganiser: permSet(organiserPermissions, regionalExtras),
	models.RoleChapterOrganiser:  permSet(organiserPermissions, nil),
	models.RoleActivist:          {},
	models.RoleApplicant:         {},
}

func permSet(groups ...[]Permission) map[Permission]bool {
	set := make(map[Permission]bool)
	for _, g := range groups {
		for _, p := range g {
			set[p] = true
		}
	}
	return set
}

// hasBaseGrant reports whether the role's grant table includes the
// permission, before any contextual rule is applied.
func hasBaseGrant(role models.Role, perm Permission) bool {
	set, ok := rolePermissions[role]
	return ok && set[perm]
}
