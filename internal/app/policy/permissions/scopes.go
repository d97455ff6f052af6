// internal/app/policy/permissions/scopes.go
package permissions

import "github.com/chapterhub/chapterhub/internal/domain/models"

// PostableScopes returns the announcement scopes the user's role can reach,
// in fixed display order (Global, Regional, Chapter). The concrete target
// is still checked by Can at publish time.
func PostableScopes(user *models.User) []models.AnnouncementScope {
	if user == nil {
		return nil
	}
	switch {
	case user.Role.Level() >= models.RoleGlobalAdmin.Level():
		return []models.AnnouncementScope{models.ScopeGlobal, models.ScopeRegional, models.ScopeChapter}
	case user.Role == models.RoleRegionalOrganiser:
		return []models.AnnouncementScope{models.ScopeRegional, models.ScopeChapter}
	case user.Role == models.RoleChapterOrganiser:
		return []models.AnnouncementScope{models.ScopeChapter}
	default:
		return nil
	}
}

// AssignableRoles returns the roles the actor may assign to someone else.
// Godmode can assign anything, including Godmode. Regional Organisers and
// above can assign up to their own level; Chapter Organisers only strictly
// below theirs. Nobody else assigns roles.
func AssignableRoles(actor *models.User) []models.Role {
	if actor == nil {
		return nil
	}

	if actor.Role == models.RoleGodmode {
		out := make([]models.Role, len(models.AllRoles))
		copy(out, models.AllRoles)
		return out
	}

	level := actor.Role.Level()

	if level >= models.RoleRegionalOrganiser.Level() {
		var out []models.Role
		for _, r := range models.AllRoles {
			if r != models.RoleGodmode && r.Level() <= level {
				out = append(out, r)
			}
		}
		return out
	}

	if actor.Role == models.RoleChapterOrganiser {
		var out []models.Role
		for _, r := range models.AllRoles {
			if r != models.RoleGodmode && r.Level() < level {
				out = append(out, r)
			}
		}
		return out
	}

	return nil
}
