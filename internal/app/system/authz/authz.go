// Package authz bridges the session layer and the permission
// evaluator: it turns the per-request SessionUser into the domain user
// the policy functions take, failing closed on anything malformed.
package authz

import (
	"net/http"

	"github.com/chapterhub/chapterhub/internal/app/system/auth"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the current user's role, name, Mongo ObjectID, and a
// found flag. If no user is present in context or the user ID is
// malformed, it returns RoleApplicant, "", NilObjectID, false so that
// ok=true always means a valid, authenticated user.
func UserCtx(r *http.Request) (role models.Role, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return models.RoleApplicant, "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed.
		return models.RoleApplicant, "", primitive.NilObjectID, false
	}
	return models.Role(user.Role), user.Name, userID, true
}

// Actor builds the domain user the permission evaluator operates on
// from the session context. Returns nil when no valid user is signed
// in, which the evaluator treats as deny-everything.
func Actor(r *http.Request) *models.User {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return nil
	}

	actor := &models.User{
		ID:          id,
		Name:        user.Name,
		Email:       user.Email,
		Role:        models.Role(user.Role),
		Chapters:    user.Chapters,
		OrganiserOf: user.OrganiserOf,
	}
	if user.ManagedCountry != "" {
		mc := user.ManagedCountry
		actor.ManagedCountry = &mc
	}
	return actor
}

// IsGlobalAdmin reports whether the current user is a global admin or
// above.
func IsGlobalAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role.Level() >= models.RoleGlobalAdmin.Level()
}
