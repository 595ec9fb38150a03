package gamification

// Criteria types a badge can be earned by.
const (
	CriteriaXPTotal             = "xp_total"
	CriteriaStreakDays          = "streak_days"
	CriteriaChallengesCompleted = "challenges_completed"
	CriteriaLessonsCompleted    = "lessons_completed"
)

// ValidCriteria reports whether t is a known criteria type.
func ValidCriteria(t string) bool {
	switch t {
	case CriteriaXPTotal, CriteriaStreakDays, CriteriaChallengesCompleted, CriteriaLessonsCompleted:
		return true
	}
	return false
}

// Stats are the counters badges are evaluated against.
type Stats struct {
	TotalXP             int64
	LongestStreak       int
	ChallengesCompleted int64
	LessonsCompleted    int64
}

// Rule is a badge criterion.
type Rule struct {
	ID            string
	CriteriaType  string
	CriteriaValue int64
}

// Met reports whether stats satisfy r.
func (r Rule) Met(s Stats) bool {
	switch r.CriteriaType {
	case CriteriaXPTotal:
		return s.TotalXP >= r.CriteriaValue
	case CriteriaStreakDays:
		return int64(s.LongestStreak) >= r.CriteriaValue
	case CriteriaChallengesCompleted:
		return s.ChallengesCompleted >= r.CriteriaValue
	case CriteriaLessonsCompleted:
		return s.LessonsCompleted >= r.CriteriaValue
	}
	return false
}

// Earned returns the IDs of rules satisfied by stats that are not in owned.
func Earned(rules []Rule, stats Stats, owned map[string]bool) []string {
	var out []string
	for _, r := range rules {
		if owned[r.ID] {
			continue
		}
		if r.Met(stats) {
			out = append(out, r.ID)
		}
	}
	return out
}
