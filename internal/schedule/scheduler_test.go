package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	block chan struct{}
	err   error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		<-j.block
	}
	return j.err
}

func TestAddJobRejectsBadSpecAndDuplicates(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{name: "retry"}
	require.Error(t, s.AddJob(job, "not a spec"))
	require.NoError(t, s.AddJob(job, "*/5 * * * *"))
	require.Error(t, s.AddJob(job, "*/5 * * * *"))
}

func TestRunNow(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{name: "cleanup", err: errors.New("db down")}
	require.NoError(t, s.AddJob(job, "30 3 * * *"))
	require.True(t, s.RunNow("cleanup"))
	require.False(t, s.RunNow("missing"))
	require.Equal(t, int32(1), job.runs.Load())
}

func TestOverlappingRunIsSkipped(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{name: "slow", block: make(chan struct{})}
	runner := s.wrap(job, "* * * * *")

	done := make(chan struct{})
	go func() {
		runner()
		close(done)
	}()
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)
	runner()
	close(job.block)
	<-done
	require.Equal(t, int32(1), job.runs.Load())
}

func TestCancelledContextSkipsRun(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{name: "retry"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.ctx = ctx
	s.wrap(job, "* * * * *")()
	require.Zero(t, job.runs.Load())
}
