// Package gates provides authorization gate functions for HTTP handlers.
// Gates check authentication and authorization, writing the appropriate
// JSON error when a check fails.
//
// # Three-Tier Authorization Pattern
//
// ChapterHub uses a three-tier authorization approach:
//
//  1. Route-Level Middleware (auth.RequireSignedIn)
//     Applied in the bootstrap router around the authenticated mounts
//     for coarse-grained access control.
//
//  2. Handler-Level Gates (this package)
//     Used in handlers that need checks WITHOUT route-level middleware,
//     or need different requirements than the route group. Gates write
//     the error response and return the acting user.
//
//  3. Permission Evaluator (internal/app/policy/permissions)
//     Used for resource-specific authorization: gates.RequirePermission
//     evaluates permissions.Can against the concrete target.
//
// Don't use gates in handlers that are behind equivalent route-level
// middleware; use authz.Actor(r) to get the user without re-checking.
package gates

import (
	"net/http"

	apierrors "github.com/chapterhub/chapterhub/internal/app/features/errors"
	"github.com/chapterhub/chapterhub/internal/app/policy/permissions"
	"github.com/chapterhub/chapterhub/internal/app/system/authz"
	"github.com/chapterhub/chapterhub/internal/domain/models"
)

// Result contains the result of an authorization gate check.
type Result struct {
	Actor *models.User
	OK    bool
}

// RequireAuth ensures a user is authenticated. If not, it writes a 401
// and returns OK=false.
func RequireAuth(w http.ResponseWriter, r *http.Request) Result {
	actor := authz.Actor(r)
	if actor == nil {
		apierrors.RenderUnauthorized(w, r)
		return Result{OK: false}
	}
	return Result{Actor: actor, OK: true}
}

// RequireMinRole ensures the user is authenticated and holds at least
// the given role in the hierarchy. Writes 401/403 on failure.
func RequireMinRole(w http.ResponseWriter, r *http.Request, min models.Role, forbiddenMsg string) Result {
	actor := authz.Actor(r)
	if actor == nil {
		apierrors.RenderUnauthorized(w, r)
		return Result{OK: false}
	}
	if actor.Role.Level() < min.Level() {
		apierrors.RenderForbidden(w, r, forbiddenMsg)
		return Result{OK: false}
	}
	return Result{Actor: actor, OK: true}
}

// RequirePermission ensures the user is authenticated and the permission
// evaluator allows the action against the given context. Writes 401/403
// on failure.
func RequirePermission(w http.ResponseWriter, r *http.Request, perm permissions.Permission, ctx permissions.Context, forbiddenMsg string) Result {
	actor := authz.Actor(r)
	if actor == nil {
		apierrors.RenderUnauthorized(w, r)
		return Result{OK: false}
	}
	if !permissions.Can(actor, perm, ctx) {
		apierrors.RenderForbidden(w, r, forbiddenMsg)
		return Result{OK: false}
	}
	return Result{Actor: actor, OK: true}
}
