// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	announcementsfeature "github.com/chapterhub/chapterhub/internal/app/features/announcements"
	authgooglefeature "github.com/chapterhub/chapterhub/internal/app/features/authgoogle"
	chaptersfeature "github.com/chapterhub/chapterhub/internal/app/features/chapters"
	apierrors "github.com/chapterhub/chapterhub/internal/app/features/errors"
	eventsfeature "github.com/chapterhub/chapterhub/internal/app/features/events"
	healthfeature "github.com/chapterhub/chapterhub/internal/app/features/health"
	leaderboardfeature "github.com/chapterhub/chapterhub/internal/app/features/leaderboard"
	loginfeature "github.com/chapterhub/chapterhub/internal/app/features/login"
	logoutfeature "github.com/chapterhub/chapterhub/internal/app/features/logout"
	membersfeature "github.com/chapterhub/chapterhub/internal/app/features/members"
	notificationsfeature "github.com/chapterhub/chapterhub/internal/app/features/notifications"
	onboardingfeature "github.com/chapterhub/chapterhub/internal/app/features/onboarding"
	outreachfeature "github.com/chapterhub/chapterhub/internal/app/features/outreach"
	announcementstore "github.com/chapterhub/chapterhub/internal/app/store/announcements"
	chapterstore "github.com/chapterhub/chapterhub/internal/app/store/chapters"
	eventstore "github.com/chapterhub/chapterhub/internal/app/store/events"
	notificationstore "github.com/chapterhub/chapterhub/internal/app/store/notifications"
	"github.com/chapterhub/chapterhub/internal/app/store/oauthstate"
	outreachstore "github.com/chapterhub/chapterhub/internal/app/store/outreach"
	userstore "github.com/chapterhub/chapterhub/internal/app/store/users"
	"github.com/chapterhub/chapterhub/internal/app/system/auth"
	onboardingsm "github.com/chapterhub/chapterhub/internal/app/system/onboarding"
	"github.com/chapterhub/chapterhub/internal/app/system/ratelimit"
	"github.com/chapterhub/chapterhub/internal/app/system/requestid"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// ChapterHub applies session middleware and mounts the JSON feature
// routers: auth, onboarding, members, events, chapters, announcements,
// leaderboard, outreach, and notifications.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on each request.
	// This ensures role changes and deleted accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	// Shared stores. Each feature receives only the stores it reads or writes.
	users := userstore.New(db)
	chapters := chapterstore.New(db)
	events := eventstore.New(db)
	announcements := announcementstore.New(db)
	notifications := notificationstore.New(db)
	outreach := outreachstore.New(db)
	stateStore := oauthstate.New(db)

	// Error logger for handlers.
	errLog := apierrors.NewErrorLogger(logger)

	r := chi.NewRouter()

	// Request ID first so every log line downstream can carry it.
	r.Use(requestid.Middleware)

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(users, sessionMgr, ratelimit.NewLoginLimiter(), errLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	googleHandler := authgooglefeature.NewHandler(users, sessionMgr, errLog, stateStore,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Onboarding pipeline: registration, application review, call
	// scheduling, and the validation/repair endpoints.
	sweepDeps := onboardingsm.Deps{HasAttendedFirstCube: events.HasAttendedFirstCube}
	sweeper := onboardingsm.NewSweeper(users, sweepDeps, logger)
	onboardingHandler := onboardingfeature.NewHandler(users, chapters, notifications, sweeper, sweepDeps, errLog, logger)
	r.Mount("/onboarding", onboardingfeature.Routes(onboardingHandler))

	// Everything below requires a signed-in user. The /onboarding mount
	// stays outside this group because /onboarding/register is public;
	// its other operations carry handler-level gates.
	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireSignedIn)

		// Member directory and profile management
		membersHandler := membersfeature.NewHandler(users, chapters, notifications, errLog, logger)
		r.Mount("/members", membersfeature.Routes(membersHandler))

		// Cube events: scheduling, RSVPs, tour duties, and reports
		eventsHandler := eventsfeature.NewHandler(events, users, chapters, notifications, errLog, logger)
		r.Mount("/events", eventsfeature.Routes(eventsHandler))

		// Chapter management and inventory
		chaptersHandler := chaptersfeature.NewHandler(chapters, errLog, logger)
		r.Mount("/chapters", chaptersfeature.Routes(chaptersHandler))

		// Announcements scoped to chapter, region, or everyone
		announcementsHandler := announcementsfeature.NewHandler(announcements, chapters, errLog, logger)
		r.Mount("/announcements", announcementsfeature.Routes(announcementsHandler))

		// Activist leaderboard
		leaderboardHandler := leaderboardfeature.NewHandler(users, errLog, logger)
		r.Mount("/leaderboard", leaderboardfeature.Routes(leaderboardHandler))

		// Outreach conversation logging
		outreachHandler := outreachfeature.NewHandler(outreach, users, errLog, logger)
		r.Mount("/outreach", outreachfeature.Routes(outreachHandler))

		// Per-user notification feed
		notificationsHandler := notificationsfeature.NewHandler(notifications, errLog, logger)
		r.Mount("/notifications", notificationsfeature.Routes(notificationsHandler))
	})

	return r, nil
}
