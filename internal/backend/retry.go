package backend

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Retry runs fn once and then up to retries more times, sleeping delay
// between attempts. It stops early when ctx is done.
func Retry(ctx context.Context, retries int, delay time.Duration, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= retries {
			return err
		}
		logutil.GetLogger(ctx).Debug("retrying backend call",
			zap.Int("attempt", attempt+1),
			zap.Int("left", retries-attempt),
			zap.Error(err),
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
