// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	eventstore "github.com/chapterhub/chapterhub/internal/app/store/events"
	"github.com/chapterhub/chapterhub/internal/app/store/oauthstate"
	userstore "github.com/chapterhub/chapterhub/internal/app/store/users"
	onboardingsm "github.com/chapterhub/chapterhub/internal/app/system/onboarding"
	"github.com/chapterhub/chapterhub/internal/app/system/tasks"
	"github.com/chapterhub/chapterhub/internal/app/system/timeouts"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Background machinery started here and stopped in Shutdown.
var taskRunner *tasks.Runner

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It seeds
// the godmode admin account and launches the background jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.ConfigureFromEnv()

	users := userstore.New(deps.MongoDatabase)
	if err := ensureGodmode(ctx, users, appCfg.GodmodeEmail, logger); err != nil {
		return err
	}

	events := eventstore.New(deps.MongoDatabase)
	sweeper := onboardingsm.NewSweeper(users, onboardingsm.Deps{
		HasAttendedFirstCube: events.HasAttendedFirstCube,
	}, logger)

	taskRunner = tasks.NewRunner(logger,
		tasks.OnboardingSweepJob(sweeper, logger, appCfg.OnboardingSweepInterval),
		tasks.OAuthStateCleanupJob(oauthstate.New(deps.MongoDatabase), logger),
	)
	taskRunner.Start()

	return nil
}

// ensureGodmode guarantees that the configured godmode email maps to a
// confirmed godmode account. An existing user is promoted in place; a
// missing one is created. With no email configured this is a no-op, which
// keeps test and dev environments from minting surprise admins.
func ensureGodmode(ctx context.Context, users *userstore.Store, email string, logger *zap.Logger) error {
	if email == "" {
		logger.Info("no godmode email configured, skipping godmode bootstrap")
		return nil
	}

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == models.RoleGodmode && existing.OnboardingStatus == models.StatusConfirmed {
			return nil
		}
		if err := users.SetRoleAndStatus(ctx, existing.ID, models.RoleGodmode, models.StatusConfirmed); err != nil {
			logger.Error("godmode promotion failed", zap.String("email", email), zap.Error(err))
			return err
		}
		logger.Info("promoted existing user to godmode",
			zap.String("email", email), zap.String("previous_role", string(existing.Role)))
		return nil

	case errors.Is(err, userstore.ErrNotFound):
		created, err := users.Create(ctx, models.User{
			Name:             "Godmode",
			Email:            email,
			Role:             models.RoleGodmode,
			OnboardingStatus: models.StatusConfirmed,
		})
		if err != nil {
			logger.Error("godmode creation failed", zap.String("email", email), zap.Error(err))
			return err
		}
		logger.Info("created godmode user",
			zap.String("email", email), zap.String("id", created.ID.Hex()))
		return nil

	default:
		logger.Error("godmode lookup failed", zap.String("email", email), zap.Error(err))
		return err
	}
}
