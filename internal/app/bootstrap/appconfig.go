// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where you put everything specific to YOUR application.
// Add fields here as the application grows. The struct is passed to
// most lifecycle hooks, so any configuration needed during startup,
// request handling, or shutdown should live here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connections in the driver pool
	MongoMinPoolSize uint64 // Min connections kept warm in the driver pool

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: chapterhub-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Base URL for OAuth callbacks and notification links
	BaseURL string // e.g., "https://chapterhub.org" or "http://localhost:3000"

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Godmode bootstrap: the account with this email is created (or
	// promoted) as the all-powerful admin on startup.
	GodmodeEmail string

	// Background job configuration
	OnboardingSweepInterval time.Duration // how often the onboarding repair sweep runs
}
