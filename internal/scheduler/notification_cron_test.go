package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopScanner struct{}

func (noopScanner) RunScan(ctx context.Context) error { return nil }

type noopStreaks struct{}

func (noopStreaks) ResetBrokenStreaks(ctx context.Context) (int64, error) { return 0, nil }

func TestStartCronJobsSkipsMissing(t *testing.T) {
	c := StartCronJobs(Jobs{Deadlines: noopScanner{}})
	defer c.Stop()
	assert.Len(t, c.Entries(), 1)

	all := StartCronJobs(Jobs{Deadlines: noopScanner{}, Streaks: noopStreaks{}, Sweep: func() {}})
	defer all.Stop()
	assert.Len(t, all.Entries(), 3)
}

type countingStreaks struct {
	calls       int
	hadDeadline bool
}

func (c *countingStreaks) ResetBrokenStreaks(ctx context.Context) (int64, error) {
	c.calls++
	_, c.hadDeadline = ctx.Deadline()
	return 3, nil
}

func TestStreakJobRunsResetter(t *testing.T) {
	streaks := &countingStreaks{}
	c := StartCronJobs(Jobs{Streaks: streaks})
	defer c.Stop()

	entries := c.Entries()
	require.Len(t, entries, 1)
	entries[0].Job.Run()
	assert.Equal(t, 1, streaks.calls)
	assert.True(t, streaks.hadDeadline)
}

type countingPruner struct {
	calls int
}

func (c *countingPruner) PruneActivities(ctx context.Context) (int64, error) {
	c.calls++
	return 0, nil
}

func TestActivityPruneJob(t *testing.T) {
	pruner := &countingPruner{}
	c := StartCronJobs(Jobs{Activities: pruner})
	defer c.Stop()

	entries := c.Entries()
	require.Len(t, entries, 1)
	entries[0].Job.Run()
	assert.Equal(t, 1, pruner.calls)
}

func TestDailyJobsUseLocation(t *testing.T) {
	brt := time.FixedZone("BRT", -3*3600)
	c := StartCronJobs(Jobs{Streaks: noopStreaks{}, Location: brt})
	defer c.Stop()

	require.Equal(t, brt, c.Location())
	next := c.Entries()[0].Next.In(brt)
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, 5, next.Minute())
}
