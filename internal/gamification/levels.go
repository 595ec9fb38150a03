// Package gamification holds the static XP, level and streak tables and the
// badge criteria evaluation. Everything here is pure.
package gamification

import "time"

// Level is one row of the level table.
type Level struct {
	Number int    `json:"level"`
	MinXP  int64  `json:"min_xp"`
	Title  string `json:"title"`
}

var levels = [...]Level{
	{1, 0, "Iniciante"},
	{2, 100, "Explorador"},
	{3, 250, "Construtor"},
	{4, 500, "Automatizador"},
	{5, 1000, "Integrador"},
	{6, 2000, "Arquiteto de Fluxos"},
	{7, 3500, "Especialista"},
	{8, 5500, "Mestre n8n"},
	{9, 8000, "Mentor da Comunidade"},
	{10, 12000, "Lenda"},
}

// Levels returns a copy of the level table.
func Levels() []Level {
	out := make([]Level, len(levels))
	copy(out, levels[:])
	return out
}

// LevelFor returns the highest level whose threshold xp reaches.
func LevelFor(xp int64) Level {
	lvl := levels[0]
	for _, l := range levels {
		if xp >= l.MinXP {
			lvl = l
		}
	}
	return lvl
}

// LevelProgress describes where xp sits between two levels.
type LevelProgress struct {
	Level     int     `json:"level"`
	Title     string  `json:"title"`
	TotalXP   int64   `json:"total_xp"`
	CurrentXP int64   `json:"current_level_xp"`
	NextXP    int64   `json:"next_level_xp"`
	Percent   float64 `json:"percent"`
	MaxLevel  bool    `json:"max_level"`
}

// Progress returns the progress towards the next level.
func Progress(xp int64) LevelProgress {
	cur := LevelFor(xp)
	p := LevelProgress{
		Level:     cur.Number,
		Title:     cur.Title,
		TotalXP:   xp,
		CurrentXP: cur.MinXP,
	}
	if cur.Number == levels[len(levels)-1].Number {
		p.NextXP = cur.MinXP
		p.Percent = 100
		p.MaxLevel = true
		return p
	}
	next := levels[cur.Number]
	p.NextXP = next.MinXP
	p.Percent = 100 * float64(xp-cur.MinXP) / float64(next.MinXP-cur.MinXP)
	return p
}

// Reason identifies why XP was granted.
type Reason string

const (
	ReasonLessonCompleted    Reason = "lesson_completed"
	ReasonModuleCompleted    Reason = "module_completed"
	ReasonChallengeCompleted Reason = "challenge_completed"
	ReasonChallengeBonus     Reason = "challenge_bonus"
	ReasonStreakDay          Reason = "streak_day"
	ReasonManual             Reason = "manual"
)

var rewards = map[Reason]int64{
	ReasonLessonCompleted:    10,
	ReasonModuleCompleted:    50,
	ReasonChallengeCompleted: 50,
	ReasonChallengeBonus:     25,
	ReasonStreakDay:          5,
}

// Reward returns the default XP for reason, or 0 when it has none.
func Reward(r Reason) int64 {
	return rewards[r]
}

// DateLayout is the layout of streak activity dates.
const DateLayout = "2006-01-02"

// Streak is the streak state of one user.
type Streak struct {
	Current      int    `json:"current_streak"`
	Longest      int    `json:"longest_streak"`
	LastActivity string `json:"last_activity_date"`
}

// NextStreak applies activity on day to s. The second result is true when
// day starts or extends the streak, i.e. the first activity of that day.
func NextStreak(s Streak, day time.Time) (Streak, bool) {
	today := day.Format(DateLayout)
	if s.LastActivity == today {
		return s, false
	}

	yesterday := day.AddDate(0, 0, -1).Format(DateLayout)
	if s.LastActivity == yesterday {
		s.Current++
	} else {
		s.Current = 1
	}
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	s.LastActivity = today
	return s, true
}

// Broken reports whether the streak has lapsed as of day: no activity today
// or yesterday.
func Broken(s Streak, day time.Time) bool {
	if s.Current == 0 || s.LastActivity == "" {
		return false
	}
	return s.LastActivity != day.Format(DateLayout) &&
		s.LastActivity != day.AddDate(0, 0, -1).Format(DateLayout)
}
