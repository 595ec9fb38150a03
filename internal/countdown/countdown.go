// Package countdown derives the remaining time and the share of the time box
// left for an active challenge.
package countdown

import (
	"context"
	"time"
)

// Countdown is the remainder decomposition of deadline - now.
type Countdown struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
	Expired bool  `json:"expired"`
}

// Remaining computes the countdown to deadline. All components are zero once
// the deadline has passed.
func Remaining(deadline, now time.Time) Countdown {
	diff := deadline.Sub(now).Milliseconds()
	if diff <= 0 {
		return Countdown{Expired: true}
	}

	const (
		second = int64(1000)
		minute = 60 * second
		hour   = 60 * minute
		day    = 24 * hour
	)
	return Countdown{
		Days:    diff / day,
		Hours:   diff % day / hour,
		Minutes: diff % hour / minute,
		Seconds: diff % minute / second,
	}
}

// PercentRemaining returns 100 * (deadline-now) / (deadline-startedAt),
// clamped to [0, 100]. An empty or inverted window yields 0.
func PercentRemaining(startedAt, deadline, now time.Time) float64 {
	window := deadline.Sub(startedAt)
	if window <= 0 {
		return 0
	}
	pct := 100 * float64(deadline.Sub(now)) / float64(window)
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// Tick is one frame pushed to a live countdown display.
type Tick struct {
	Countdown
	Percent float64 `json:"percent"`
}

// Frame builds the tick for now.
func Frame(startedAt, deadline, now time.Time) Tick {
	return Tick{
		Countdown: Remaining(deadline, now),
		Percent:   PercentRemaining(startedAt, deadline, now),
	}
}

// Run calls emit with a fresh frame immediately and then every interval until
// the countdown expires, ctx is done, or emit returns an error. The expired
// frame is always emitted last.
func Run(ctx context.Context, startedAt, deadline time.Time, interval time.Duration, clock func() time.Time, emit func(Tick) error) error {
	if clock == nil {
		clock = time.Now
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		frame := Frame(startedAt, deadline, clock())
		if err := emit(frame); err != nil {
			return err
		}
		if frame.Expired {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
