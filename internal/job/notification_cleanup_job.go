package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type NotificationCleaner interface {
	Cleanup(ctx context.Context, keep time.Duration) (int64, error)
}

type NotificationCleanupJob struct {
	notifications NotificationCleaner
	keep          time.Duration
}

func NewNotificationCleanupJob(notifications NotificationCleaner, keep time.Duration) *NotificationCleanupJob {
	return &NotificationCleanupJob{notifications: notifications, keep: keep}
}

func (j *NotificationCleanupJob) Name() string {
	return "notification_cleanup"
}

func (j *NotificationCleanupJob) Run(ctx context.Context) error {
	if j.notifications == nil {
		return nil
	}
	keep := j.keep
	if keep <= 0 {
		keep = 30 * 24 * time.Hour
	}
	removed, err := j.notifications.Cleanup(ctx, keep)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("read notifications removed", zap.Int64("count", removed))
	return nil
}
