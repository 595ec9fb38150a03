package scheduler

import (
	"context"
	"time"

	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/robfig/cron/v3"
)

const jobTimeout = 5 * time.Minute

type DeadlineScanner interface {
	RunScan(ctx context.Context) error
}

type StreakResetter interface {
	ResetBrokenStreaks(ctx context.Context) (int64, error)
}

type NotificationCleaner interface {
	DeleteExpiredNotifications(ctx context.Context) error
}

type ActivityPruner interface {
	PruneActivities(ctx context.Context) (int64, error)
}

// Jobs groups everything run on a schedule. Nil members are skipped.
type Jobs struct {
	Deadlines     DeadlineScanner
	Streaks       StreakResetter
	Notifications NotificationCleaner
	Activities    ActivityPruner
	// Sweep runs hourly next to the deadline scan, e.g. rate limiter cleanup.
	Sweep func()
	// Location is the zone daily schedules are read in. Nil means local time.
	Location *time.Location
}

// StartCronJobs registers the jobs and starts the scheduler. The caller stops
// it on shutdown.
func StartCronJobs(jobs Jobs) *cron.Cron {
	var opts []cron.Option
	if jobs.Location != nil {
		opts = append(opts, cron.WithLocation(jobs.Location))
	}
	c := cron.New(opts...)

	if jobs.Deadlines != nil {
		add(c, "@hourly", "ChallengeDeadlineScan", jobs.Deadlines.RunScan)
	}

	// Just after midnight so yesterday is complete.
	if jobs.Streaks != nil {
		add(c, "5 0 * * *", "ResetBrokenStreaks", func(ctx context.Context) error {
			_, err := jobs.Streaks.ResetBrokenStreaks(ctx)
			return err
		})
	}

	if jobs.Notifications != nil {
		add(c, "30 3 * * *", "DeleteExpiredNotifications", jobs.Notifications.DeleteExpiredNotifications)
	}

	if jobs.Activities != nil {
		add(c, "45 3 * * *", "PruneActivities", func(ctx context.Context) error {
			_, err := jobs.Activities.PruneActivities(ctx)
			return err
		})
	}

	if jobs.Sweep != nil {
		if _, err := c.AddFunc("@hourly", jobs.Sweep); err != nil {
			logger.Log.WithError(err).Error("Failed to schedule sweep")
		}
	}

	c.Start()
	logger.Log.WithField("entries", len(c.Entries())).Info("Cron jobs started")
	return c
}

func add(c *cron.Cron, schedule, name string, job func(ctx context.Context) error) {
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := job(ctx); err != nil {
			logger.Log.WithError(err).WithField("job", name).Error("Cron job failed")
		}
	})
	if err != nil {
		logger.Log.WithError(err).WithField("job", name).Error("Failed to schedule cron job")
	}
}
