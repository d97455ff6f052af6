// Package auth provides cookie-session authentication for ChapterHub.
//
// A SessionManager signs and reads the session cookie, loads the current
// user into the request context on every request, and supplies the
// RequireSignedIn middleware that guards the authenticated routers.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
)

// SessionUser is the per-request view of the signed-in user. It is
// refreshed from the database on every request by the UserFetcher, so
// role changes and deletions take effect immediately.
type SessionUser struct {
	ID             string
	Name           string
	Email          string
	Role           string
	Chapters       []string
	OrganiserOf    []string
	ManagedCountry string
}

// UserFetcher loads the current user record for the given user ID.
// Returning (nil, nil) means the user no longer exists; the session is
// treated as signed out.
type UserFetcher interface {
	FetchSessionUser(ctx context.Context, userID string) (*SessionUser, error)
}

// SessionManager owns the cookie store and the auth middleware.
type SessionManager struct {
	store       *sessions.CookieStore
	sessionName string
	log         *zap.Logger
	fetcher     UserFetcher
}

// NewSessionManager builds a SessionManager with the given signing key,
// cookie name, and domain. The secure flag controls Secure/SameSite
// cookie attributes: production uses Secure + SameSite=None, local dev
// over plain HTTP uses Lax.
func NewSessionManager(sessionKey, sessionName, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide 32+ random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{
		store:       store,
		sessionName: sessionName,
		log:         logger,
	}, nil
}

// SetUserFetcher installs the fetcher LoadSessionUser uses to refresh
// the user record on each request. Must be called before the middleware
// runs; without a fetcher every request is treated as signed out.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) {
	sm.fetcher = f
}

// SignIn writes the user ID into a fresh session cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID string) error {
	sess, _ := sm.store.Get(r, sm.sessionName)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = userID
	return sess.Save(r, w)
}

// SignOut clears the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.sessionName)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the signed-in user from the request context.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// LoadSessionUser reads the session cookie and, when a fetcher is
// installed, loads the fresh user record into the request context.
// A stale session pointing at a deleted user passes through unsigned.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sm.store.Get(r, sm.sessionName)

		isAuth, _ := sess.Values[isAuthKey].(bool)
		userID, _ := sess.Values[userIDKey].(string)
		if !isAuth || userID == "" || sm.fetcher == nil {
			next.ServeHTTP(w, r)
			return
		}

		u, err := sm.fetcher.FetchSessionUser(r.Context(), userID)
		if err != nil {
			sm.log.Warn("session user fetch failed",
				zap.String("user_id", userID),
				zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if u != nil {
			r = WithTestUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn rejects requests without a user in context with a
// JSON 401.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithTestUser injects a user into the request context directly,
// bypassing the session cookie. Handler tests use this to simulate a
// signed-in user.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
