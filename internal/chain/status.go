package chain

import "time"

// Status is the state of a challenge for one user.
type Status string

const (
	StatusLocked    Status = "locked"
	StatusAvailable Status = "available"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCompleted Status = "completed"
)

// Attempt is one progress row of a user on a challenge.
type Attempt struct {
	ChallengeID string
	StartedAt   time.Time
	Deadline    time.Time
	CompletedAt *time.Time
}

// Active reports whether the attempt is neither completed nor past its deadline.
func (a Attempt) Active(now time.Time) bool {
	return a.CompletedAt == nil && a.Deadline.After(now)
}

// AttemptStatus derives the status of a challenge from its attempts alone.
// ok is false when there are no attempts.
func AttemptStatus(attempts []Attempt, now time.Time) (status Status, ok bool) {
	if len(attempts) == 0 {
		return "", false
	}
	for _, a := range attempts {
		if a.CompletedAt != nil {
			return StatusCompleted, true
		}
	}
	for _, a := range attempts {
		if a.Active(now) {
			return StatusActive, true
		}
	}
	return StatusExpired, true
}

// Statuses computes the status of every linked challenge. A challenge without
// attempts is available when it is initial, when its predecessor is completed,
// or when its predecessor is not part of links; otherwise it is locked.
func Statuses(links []Link, attempts []Attempt, now time.Time) map[string]Status {
	byChallenge := make(map[string][]Attempt, len(attempts))
	for _, a := range attempts {
		byChallenge[a.ChallengeID] = append(byChallenge[a.ChallengeID], a)
	}

	known := make(map[string]bool, len(links))
	for _, l := range links {
		known[l.ChallengeID] = true
	}

	out := make(map[string]Status, len(links))
	for _, l := range links {
		if st, ok := AttemptStatus(byChallenge[l.ChallengeID], now); ok {
			out[l.ChallengeID] = st
		}
	}

	for _, l := range links {
		if _, done := out[l.ChallengeID]; done {
			continue
		}
		switch {
		case l.isInitial():
			out[l.ChallengeID] = StatusAvailable
		case !known[*l.PredecessorID]:
			out[l.ChallengeID] = StatusAvailable
		default:
			pred, _ := AttemptStatus(byChallenge[*l.PredecessorID], now)
			if pred == StatusCompleted {
				out[l.ChallengeID] = StatusAvailable
			} else {
				out[l.ChallengeID] = StatusLocked
			}
		}
	}
	return out
}

// Startable reports whether a challenge in status st may get a new attempt.
func Startable(st Status) bool {
	return st == StatusAvailable || st == StatusExpired
}
