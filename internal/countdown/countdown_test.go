package countdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemaining(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		want     Countdown
	}{
		{"ninety seconds", now.Add(90 * time.Second), Countdown{Minutes: 1, Seconds: 30}},
		{"one second ago", now.Add(-time.Second), Countdown{Expired: true}},
		{"exactly now", now, Countdown{Expired: true}},
		{"mixed", now.Add(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second), Countdown{Days: 2, Hours: 3, Minutes: 4, Seconds: 5}},
		{"sub second rounds down", now.Add(999 * time.Millisecond), Countdown{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Remaining(tt.deadline, now))
		})
	}
}

func TestRemainingAgainstWallClock(t *testing.T) {
	c := Remaining(time.Now().Add(90*time.Second), time.Now())
	assert.False(t, c.Expired)
	assert.Equal(t, int64(1), c.Minutes)
	assert.InDelta(t, 30, c.Seconds, 1)
}

func TestPercentRemaining(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	deadline := start.Add(10 * time.Hour)

	assert.InDelta(t, 100, PercentRemaining(start, deadline, start), 0.001)
	assert.InDelta(t, 75, PercentRemaining(start, deadline, start.Add(150*time.Minute)), 0.001)
	assert.Equal(t, float64(0), PercentRemaining(start, deadline, deadline.Add(time.Hour)))
	assert.Equal(t, float64(100), PercentRemaining(start, deadline, start.Add(-time.Hour)))
	assert.Equal(t, float64(0), PercentRemaining(deadline, start, start))
}

func TestRunStopsOnExpiry(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	deadline := start.Add(3 * time.Second)

	// Each call advances the fake clock by one second.
	now := start
	clock := func() time.Time {
		t := now
		now = now.Add(time.Second)
		return t
	}

	var frames []Tick
	err := Run(context.Background(), start, deadline, time.Millisecond, clock, func(f Tick) error {
		frames = append(frames, f)
		return nil
	})

	require.NoError(t, err)
	require.Len(t, frames, 4)
	assert.Equal(t, int64(3), frames[0].Seconds)
	assert.True(t, frames[3].Expired)
	assert.Equal(t, float64(0), frames[3].Percent)
}

func TestRunPropagatesEmitError(t *testing.T) {
	boom := errors.New("closed")
	err := Run(context.Background(), time.Now(), time.Now().Add(time.Hour), time.Millisecond, nil, func(Tick) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Run(ctx, time.Now(), time.Now().Add(time.Hour), time.Hour, nil, func(Tick) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
