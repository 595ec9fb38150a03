package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/n8nhub/community_hub/internal/countdown"
)

func TestDuration(t *testing.T) {
	assert.Equal(t, "0min", Duration(0))
	assert.Equal(t, "45min", Duration(45))
	assert.Equal(t, "2h", Duration(120))
	assert.Equal(t, "1h 05min", Duration(65))
}

func TestCountdown(t *testing.T) {
	assert.Equal(t, "Expirado", Countdown(countdown.Countdown{Expired: true}))
	assert.Equal(t, "00:01:30", Countdown(countdown.Countdown{Minutes: 1, Seconds: 30}))
	assert.Equal(t, "2d 03:04:05", Countdown(countdown.Countdown{Days: 2, Hours: 3, Minutes: 4, Seconds: 5}))
}

func TestDifficultyLabel(t *testing.T) {
	assert.Equal(t, "Intermediário", DifficultyLabel("intermediario"))
	assert.Equal(t, "custom", DifficultyLabel("custom"))
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "agora mesmo", RelativeTime(now.Add(-10*time.Second), now))
	assert.Equal(t, "há 5 minutos", RelativeTime(now.Add(-5*time.Minute), now))
	assert.Equal(t, "há 1 hora", RelativeTime(now.Add(-time.Hour), now))
	assert.Equal(t, "há 3 dias", RelativeTime(now.Add(-72*time.Hour), now))
	assert.Equal(t, "há 2 meses", RelativeTime(now.AddDate(0, 0, -61), now))
	assert.Equal(t, "há 1 ano", RelativeTime(now.AddDate(-1, 0, -1), now))
	assert.Equal(t, "agora", RelativeTime(now.Add(time.Hour), now))
}

func TestNumberAndXP(t *testing.T) {
	assert.Equal(t, "1.250", Number(1250))
	assert.Equal(t, "1.250 XP", XP(1250))
	assert.Equal(t, "12 XP", XP(12))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "42%", Percent(41.6))
	assert.Equal(t, "0%", Percent(0))
}
