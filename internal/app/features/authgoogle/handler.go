// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apierrors "github.com/chapterhub/chapterhub/internal/app/features/errors"
	"github.com/chapterhub/chapterhub/internal/app/store/oauthstate"
	userstore "github.com/chapterhub/chapterhub/internal/app/store/users"
	"github.com/chapterhub/chapterhub/internal/app/system/auth"
	"github.com/chapterhub/chapterhub/internal/app/system/normalize"
	"github.com/chapterhub/chapterhub/internal/app/system/timeouts"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Handler handles Google OAuth authentication.
type Handler struct {
	Users      *userstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *apierrors.ErrorLogger
	StateStore *oauthstate.Store

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://chapterhub.org/auth/google/callback"
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	users *userstore.Store,
	sessionMgr *auth.SessionManager,
	errLog *apierrors.ErrorLogger,
	stateStore *oauthstate.Store,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:        users,
		Log:          logger,
		SessionMgr:   sessionMgr,
		ErrLog:       errLog,
		StateStore:   stateStore,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Initiates the Google OAuth flow by redirecting to Google's consent screen.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, "/login?error=google_not_configured", http.StatusSeeOther)
		return
	}

	// Generate cryptographically secure state
	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	returnURL := sanitizeReturnURL(r.URL.Query().Get("return"))

	// Store state with 10-minute expiry
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(10 * time.Minute)
	if err := h.StateStore.Save(ctx, state, returnURL, expiresAt); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	// Redirect to Google
	url := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)

	h.Log.Debug("initiating Google OAuth flow",
		zap.String("redirect_url", url),
		zap.String("return_url", returnURL))

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Handles the OAuth callback from Google, exchanges code for tokens,           |
| fetches user info, looks up user in database, and creates session.           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Check for errors from Google
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		errDesc := r.URL.Query().Get("error_description")
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", errDesc))
		http.Redirect(w, r, "/login?error=google_denied", http.StatusSeeOther)
		return
	}

	// Validate state parameter
	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	returnURL, valid, err := h.StateStore.Validate(ctxTimeout, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	// Exchange code for token
	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		http.Redirect(w, r, "/login?error=invalid_code", http.StatusSeeOther)
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		http.Redirect(w, r, "/login?error=token_exchange", http.StatusSeeOther)
		return
	}

	// Fetch user info from Google
	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		http.Redirect(w, r, "/login?error=user_info", http.StatusSeeOther)
		return
	}
	if !googleUser.EmailVerified {
		h.Log.Warn("Google account email not verified", zap.String("email", googleUser.Email))
		http.Redirect(w, r, "/login?error=email_unverified", http.StatusSeeOther)
		return
	}

	// Look up user by email; OAuth signs in existing members, it does
	// not create applications.
	email := normalize.Email(googleUser.Email)
	u, err := h.Users.GetByEmail(ctxTimeout, email)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			h.Log.Info("Google OAuth: no account for email", zap.String("email", email))
			http.Redirect(w, r, "/login?error=no_account", http.StatusSeeOther)
			return
		}
		h.Log.Error("failed to look up user", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("failed to create session", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	if err := h.Users.UpdateLastLogin(ctxTimeout, u.ID); err != nil {
		h.Log.Warn("failed to record last login", zap.Error(err))
	}

	if returnURL == "" {
		returnURL = "/"
	}
	http.Redirect(w, r, returnURL, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

// generateState produces a URL-safe random state token.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// sanitizeReturnURL only accepts same-site relative paths.
func sanitizeReturnURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return ""
	}
	return raw
}
