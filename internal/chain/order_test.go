package chain

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestOrder(t *testing.T) {
	tests := []struct {
		name  string
		links []Link
		want  []string
	}{
		{
			name: "linear chain",
			links: []Link{
				{ChallengeID: "A", IsInitialActive: true},
				{ChallengeID: "B", PredecessorID: ptr("A")},
				{ChallengeID: "C", PredecessorID: ptr("B")},
			},
			want: []string{"A", "B", "C"},
		},
		{
			name: "initials sorted by order index",
			links: []Link{
				{ChallengeID: "A", IsInitialActive: true, OrderIndex: 1},
				{ChallengeID: "B", IsInitialActive: true, OrderIndex: 0},
			},
			want: []string{"B", "A"},
		},
		{
			name: "orphan appended at the end",
			links: []Link{
				{ChallengeID: "D", PredecessorID: ptr("missing-id")},
				{ChallengeID: "A", IsInitialActive: true},
			},
			want: []string{"A", "D"},
		},
		{
			name: "nil predecessor counts as initial",
			links: []Link{
				{ChallengeID: "B", PredecessorID: ptr("A"), OrderIndex: 0},
				{ChallengeID: "A", OrderIndex: 5},
			},
			want: []string{"A", "B"},
		},
		{
			name: "successors visited depth first by order index",
			links: []Link{
				{ChallengeID: "root", IsInitialActive: true},
				{ChallengeID: "right", PredecessorID: ptr("root"), OrderIndex: 2},
				{ChallengeID: "left", PredecessorID: ptr("root"), OrderIndex: 1},
				{ChallengeID: "left-child", PredecessorID: ptr("left")},
			},
			want: []string{"root", "left", "left-child", "right"},
		},
		{
			name: "duplicate ids collapse",
			links: []Link{
				{ChallengeID: "A", IsInitialActive: true},
				{ChallengeID: "A", IsInitialActive: true},
			},
			want: []string{"A"},
		},
		{
			name:  "empty",
			links: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Order(tt.links))
		})
	}
}

func TestResolveTwoCycle(t *testing.T) {
	links := []Link{
		{ChallengeID: "A", PredecessorID: ptr("B")},
		{ChallengeID: "B", PredecessorID: ptr("A")},
	}

	res := Resolve(links)

	assert.ElementsMatch(t, []string{"A", "B"}, res.Order)
	assert.Len(t, res.Order, 2)
	assert.Equal(t, []string{"A", "B"}, res.Unreached)
	require.Len(t, res.Cycles, 1)
	assert.ElementsMatch(t, []string{"A", "B"}, res.Cycles[0])
}

func TestResolveSelfLoopBelowInitial(t *testing.T) {
	links := []Link{
		{ChallengeID: "A", IsInitialActive: true},
		{ChallengeID: "B", PredecessorID: ptr("B")},
	}

	res := Resolve(links)

	assert.Equal(t, []string{"A", "B"}, res.Order)
	require.Len(t, res.Cycles, 1)
	assert.Equal(t, []string{"B"}, res.Cycles[0])
}

func TestResolveAcyclicHasNoDiagnostics(t *testing.T) {
	links := []Link{
		{ChallengeID: "A", IsInitialActive: true},
		{ChallengeID: "B", PredecessorID: ptr("A")},
	}
	res := Resolve(links)
	assert.Empty(t, res.Cycles)
	assert.Empty(t, res.Unreached)
}

// Random forests: every id once, predecessors first.
func TestOrderRandomForests(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		n := rng.Intn(30) + 1
		links := make([]Link, n)
		for i := 0; i < n; i++ {
			links[i] = Link{
				ChallengeID: fmt.Sprintf("c%d", i),
				OrderIndex:  rng.Intn(5),
			}
			// Only point to earlier nodes so the graph stays acyclic.
			if i > 0 && rng.Intn(4) != 0 {
				links[i].PredecessorID = ptr(fmt.Sprintf("c%d", rng.Intn(i)))
			}
			if rng.Intn(6) == 0 {
				links[i].IsInitialActive = true
			}
		}
		rng.Shuffle(n, func(i, j int) { links[i], links[j] = links[j], links[i] })

		order := Order(links)
		require.Len(t, order, n)

		pos := Positions(order)
		require.Len(t, pos, n, "ids must be unique")
		for _, l := range links {
			if l.PredecessorID == nil || l.IsInitialActive {
				continue
			}
			assert.Less(t, pos[*l.PredecessorID], pos[l.ChallengeID],
				"predecessor %s must precede %s", *l.PredecessorID, l.ChallengeID)
		}
	}
}

func TestSortByOrder(t *testing.T) {
	type row struct {
		id  string
		tag int
	}
	rows := []row{{"unknown", 1}, {"C", 2}, {"A", 3}, {"other", 4}, {"B", 5}}

	SortByOrder(rows, func(r row) string { return r.id }, []string{"A", "B", "C"})

	assert.Equal(t, []row{{"A", 3}, {"B", 5}, {"C", 2}, {"unknown", 1}, {"other", 4}}, rows)
}

func TestStatuses(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	done := now.Add(-2 * time.Hour)

	links := []Link{
		{ChallengeID: "A", IsInitialActive: true},
		{ChallengeID: "B", PredecessorID: ptr("A")},
		{ChallengeID: "C", PredecessorID: ptr("B")},
		{ChallengeID: "D", PredecessorID: ptr("C")},
		{ChallengeID: "E", PredecessorID: ptr("gone")},
		{ChallengeID: "F", IsInitialActive: true, OrderIndex: 1},
	}
	attempts := []Attempt{
		{ChallengeID: "A", StartedAt: now.Add(-30 * time.Hour), Deadline: now.Add(-6 * time.Hour), CompletedAt: &done},
		{ChallengeID: "B", StartedAt: now.Add(-time.Hour), Deadline: now.Add(23 * time.Hour)},
		{ChallengeID: "F", StartedAt: now.Add(-48 * time.Hour), Deadline: now.Add(-24 * time.Hour)},
	}

	got := Statuses(links, attempts, now)

	assert.Equal(t, map[string]Status{
		"A": StatusCompleted,
		"B": StatusActive,
		"C": StatusLocked,
		"D": StatusLocked,
		"E": StatusAvailable,
		"F": StatusExpired,
	}, got)

	assert.False(t, Startable(got["C"]))
	assert.True(t, Startable(got["E"]))
	assert.True(t, Startable(got["F"]))
	assert.False(t, Startable(got["B"]))
}

func TestAttemptStatusPrefersCompleted(t *testing.T) {
	now := time.Now()
	done := now.Add(-time.Minute)
	st, ok := AttemptStatus([]Attempt{
		{Deadline: now.Add(-time.Hour)},
		{Deadline: now.Add(time.Hour), CompletedAt: &done},
	}, now)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, st)

	_, ok = AttemptStatus(nil, now)
	assert.False(t, ok)
}
