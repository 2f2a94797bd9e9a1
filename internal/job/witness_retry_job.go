package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type WitnessRetrier interface {
	RetryFailed(ctx context.Context) (int, error)
}

// WitnessRetryJob re-requests notarization for executed documents whose
// witness call failed or never reported back.
type WitnessRetryJob struct {
	witness WitnessRetrier
}

func NewWitnessRetryJob(witness WitnessRetrier) *WitnessRetryJob {
	return &WitnessRetryJob{witness: witness}
}

func (j *WitnessRetryJob) Name() string {
	return "witness_retry"
}

func (j *WitnessRetryJob) Run(ctx context.Context) error {
	if j.witness == nil {
		return nil
	}
	retried, err := j.witness.RetryFailed(ctx)
	if retried > 0 {
		logutil.GetLogger(ctx).Info("witness requests retried", zap.Int("count", retried))
	}
	return err
}
