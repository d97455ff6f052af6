// internal/app/policy/permissions/can.go
package permissions

import "github.com/chapterhub/chapterhub/internal/domain/models"

// Can reports whether the user may exercise the permission against the
// given context. It is total: nil users, unknown permissions, and missing
// or mismatched context all deny. Callers must treat false as "hide the
// affordance", never as an exceptional path.
func Can(user *models.User, perm Permission, ctx Context) bool {
	if user == nil {
		return false
	}

	// Godmode bypasses the table and every contextual rule.
	if user.Role == models.RoleGodmode {
		return true
	}

	if !hasBaseGrant(user.Role, perm) {
		return false
	}

	switch perm {
	case EditUserRoles, EditUserChapters, DeleteUser, ViewOrganizerNotes, AddOrganizerNote:
		tc, ok := ctx.(TargetUserContext)
		if !ok {
			return false
		}
		return canManageTargetUser(user, tc)

	case VerifyUser:
		tc, ok := ctx.(TargetUserContext)
		if !ok || tc.Target == nil {
			return false
		}
		return canVerifyUser(user, tc)

	case AwardBadge:
		tc, ok := ctx.(TargetUserContext)
		if !ok || tc.Target == nil {
			return false
		}
		// No self-awarded badges.
		if user.ID == tc.Target.ID {
			return false
		}
		return canManageTargetUser(user, tc)

	case EditEvent, CancelEvent, LogEventReport, ManageEventParticipants:
		ec, ok := ctx.(EventContext)
		if !ok {
			return false
		}
		return canManageEvent(user, ec)

	case EditChapter, ManageInventory:
		cc, ok := ctx.(ChapterContext)
		if !ok {
			return false
		}
		return canManageChapter(user, cc)

	case DeleteChapter:
		if user.Role == models.RoleChapterOrganiser {
			return false
		}
		cc, ok := ctx.(ChapterContext)
		if !ok {
			return false
		}
		return canManageChapter(user, cc)

	case CreateAnnouncement:
		ac, ok := ctx.(AnnouncementContext)
		if !ok {
			return false
		}
		return canAnnounce(user, ac)

	case ViewMemberDirectory, ViewManagementDashboard, CreateEvent, CreateChapter, ViewAnalytics:
		// Table grant is sufficient; no contextual rule.
		return true

	default:
		return false
	}
}

// canManageTargetUser applies the shared containment rule for acting on
// another member: the actor must sit strictly above the target in the
// hierarchy, and the target must fall within the actor's remit.
func canManageTargetUser(actor *models.User, ctx TargetUserContext) bool {
	target := ctx.Target
	if target == nil {
		return false
	}

	if actor.Role.Level() <= target.Role.Level() {
		return false
	}

	switch actor.Role {
	case models.RoleRegionalOrganiser:
		// The target is in remit if any of their chapters resolves to the
		// actor's managed country. No chapter list means containment cannot
		// be proven, so deny.
		if actor.ManagedCountry == nil || len(ctx.AllChapters) == 0 {
			return false
		}
		for _, name := range target.Chapters {
			if country, ok := models.CountryOf(name, ctx.AllChapters); ok && country == *actor.ManagedCountry {
				return true
			}
		}
		return false

	case models.RoleChapterOrganiser:
		for _, name := range target.Chapters {
			if actor.Organises(name) {
				return true
			}
		}
		return false

	default:
		// Global Admin (Godmode never reaches here).
		return true
	}
}

// canVerifyUser gates advancing another member through onboarding. Already
// confirmed members cannot be re-verified.
func canVerifyUser(actor *models.User, ctx TargetUserContext) bool {
	if ctx.Target.OnboardingStatus == models.StatusConfirmed {
		return false
	}

	if actor.Role.Level() >= models.RoleRegionalOrganiser.Level() {
		return true
	}

	if actor.Role == models.RoleChapterOrganiser {
		for _, name := range ctx.Target.Chapters {
			if actor.Organises(name) {
				return true
			}
		}
	}
	return false
}

// canManageEvent applies the rule chain for event actions: organizer
// self-ownership, then chapter containment, then regional containment
// (which needs the chapter list to resolve the city), then admin level.
func canManageEvent(actor *models.User, ctx EventContext) bool {
	event := ctx.Event
	if event == nil {
		return false
	}

	if actor.ID == event.OrganizerID {
		return true
	}

	if actor.Role == models.RoleChapterOrganiser && actor.Organises(event.City) {
		return true
	}

	if actor.Role.Level() >= models.RoleRegionalOrganiser.Level() {
		country, ok := models.CountryOf(event.City, ctx.AllChapters)
		if !ok {
			// Can't prove containment without the chapter lookup: deny,
			// even for Global Admins reached through this chain.
			return false
		}
		if actor.Role == models.RoleRegionalOrganiser {
			return actor.ManagedCountry != nil && *actor.ManagedCountry == country
		}
		if actor.Role.Level() >= models.RoleGlobalAdmin.Level() {
			return true
		}
	}

	return false
}

// canManageChapter applies containment for chapter edit/delete/inventory.
func canManageChapter(actor *models.User, ctx ChapterContext) bool {
	if ctx.ChapterName == "" {
		return false
	}
	country, ok := models.CountryOf(ctx.ChapterName, ctx.AllChapters)
	if !ok {
		return false
	}

	switch actor.Role {
	case models.RoleRegionalOrganiser:
		return actor.ManagedCountry != nil && *actor.ManagedCountry == country
	case models.RoleChapterOrganiser:
		return actor.Organises(ctx.ChapterName)
	default:
		return actor.Role.Level() >= models.RoleGlobalAdmin.Level()
	}
}

// canAnnounce resolves announcement creation per target scope.
func canAnnounce(actor *models.User, ctx AnnouncementContext) bool {
	switch ctx.Scope {
	case models.ScopeGlobal:
		return actor.Role.Level() >= models.RoleGlobalAdmin.Level()

	case models.ScopeRegional:
		if actor.Role.Level() >= models.RoleGlobalAdmin.Level() {
			return true
		}
		if actor.Role == models.RoleRegionalOrganiser {
			return actor.ManagedCountry != nil && ctx.Country != "" && *actor.ManagedCountry == ctx.Country
		}
		return false

	case models.ScopeChapter:
		if actor.Role.Level() >= models.RoleGlobalAdmin.Level() {
			return true
		}
		if actor.Role == models.RoleRegionalOrganiser {
			// Regional organisers may post to any chapter in their managed
			// country. Without the chapter lookup containment cannot be
			// proven, so deny.
			if actor.ManagedCountry == nil || ctx.Chapter == "" {
				return false
			}
			country, ok := models.CountryOf(ctx.Chapter, ctx.AllChapters)
			return ok && country == *actor.ManagedCountry
		}
		return ctx.Chapter != "" && actor.Organises(ctx.Chapter)

	default:
		return false
	}
}
