// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/chapterhub/chapterhub/internal/app/store/oauthstate"
	"github.com/chapterhub/chapterhub/internal/app/system/onboarding"
	"go.uber.org/zap"
)

// OnboardingSweepJob creates a job that validates onboarding records and
// repairs inconsistencies (statuses that got ahead of, or fell behind,
// the member's actual activity).
func OnboardingSweepJob(sweeper *onboarding.Sweeper, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:     "onboarding-sweep",
		Interval: interval,
		Run: func(ctx context.Context) error {
			result, err := sweeper.Run(ctx)
			if err != nil {
				return err
			}
			if len(result.Fixes) > 0 {
				logger.Info("onboarding sweep applied fixes",
					zap.Int("checked", result.Checked),
					zap.Int("fixes", len(result.Fixes)))
			}
			return nil
		},
	}
}

// OAuthStateCleanupJob creates a job that removes expired OAuth state tokens.
// This is a backup for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(stateStore *oauthstate.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour, // Run hourly
		Run: func(ctx context.Context) error {
			count, err := stateStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}
