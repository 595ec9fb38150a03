// Package chain resolves the visiting order of a track's daily challenges from
// their predecessor links and derives each challenge's unlock status.
package chain

import (
	"sort"
)

// Link is the position of one challenge inside a track.
type Link struct {
	ChallengeID     string
	OrderIndex      int
	IsInitialActive bool
	PredecessorID   *string
}

func (l Link) isInitial() bool {
	return l.IsInitialActive || l.PredecessorID == nil
}

// Result is the resolved order plus diagnostics about links that could not be
// placed by walking the predecessor graph.
type Result struct {
	Order []string
	// Unreached holds the IDs appended by the fallback pass, in input order.
	Unreached []string
	// Cycles holds every predecessor cycle found among the links.
	Cycles [][]string
}

// Order returns the challenge IDs in chain order. Each ID appears exactly once.
func Order(links []Link) []string {
	return Resolve(links).Order
}

// Resolve walks the predecessor graph depth-first from the initial links,
// sorted by OrderIndex, appending each link before its successors. Links never
// reached from an initial one are appended at the end in their original order.
func Resolve(links []Link) Result {
	byID := make(map[string]Link, len(links))
	successors := make(map[string][]Link)
	var initials []Link

	for _, l := range links {
		if _, dup := byID[l.ChallengeID]; dup {
			continue
		}
		byID[l.ChallengeID] = l
		if l.PredecessorID != nil {
			successors[*l.PredecessorID] = append(successors[*l.PredecessorID], l)
		}
		if l.isInitial() {
			initials = append(initials, l)
		}
	}

	sortByIndex(initials)
	for id := range successors {
		sortByIndex(successors[id])
	}

	order := make([]string, 0, len(byID))
	processed := make(map[string]bool, len(byID))

	// Iterative DFS so a long chain cannot exhaust the stack.
	visit := func(root Link) {
		stack := []Link{root}
		for len(stack) > 0 {
			l := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if processed[l.ChallengeID] {
				continue
			}
			processed[l.ChallengeID] = true
			order = append(order, l.ChallengeID)

			next := successors[l.ChallengeID]
			for i := len(next) - 1; i >= 0; i-- {
				if !processed[next[i].ChallengeID] {
					stack = append(stack, next[i])
				}
			}
		}
	}

	for _, l := range initials {
		visit(l)
	}

	var unreached []string
	for _, l := range links {
		if processed[l.ChallengeID] {
			continue
		}
		processed[l.ChallengeID] = true
		order = append(order, l.ChallengeID)
		unreached = append(unreached, l.ChallengeID)
	}

	return Result{
		Order:     order,
		Unreached: unreached,
		Cycles:    findCycles(links, byID),
	}
}

// findCycles follows each link's predecessor pointer. Every node has at most
// one predecessor, so a cycle is found by walking until a node repeats.
func findCycles(links []Link, byID map[string]Link) [][]string {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int, len(byID))
	var cycles [][]string

	for _, start := range links {
		if state[start.ChallengeID] != unvisited {
			continue
		}
		var path []string
		pos := make(map[string]int)
		id := start.ChallengeID
		for {
			if state[id] == done {
				break
			}
			if state[id] == onPath {
				cycles = append(cycles, append([]string(nil), path[pos[id]:]...))
				break
			}
			state[id] = onPath
			pos[id] = len(path)
			path = append(path, id)

			l, ok := byID[id]
			if !ok || l.PredecessorID == nil {
				break
			}
			if _, known := byID[*l.PredecessorID]; !known {
				break
			}
			id = *l.PredecessorID
		}
		for _, p := range path {
			state[p] = done
		}
	}
	return cycles
}

func sortByIndex(ls []Link) {
	sort.SliceStable(ls, func(i, j int) bool {
		return ls[i].OrderIndex < ls[j].OrderIndex
	})
}

// Positions maps each ID in order to its index.
func Positions(order []string) map[string]int {
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	return pos
}

// SortByOrder stably sorts items by the position of their challenge ID in
// order. Items whose ID is not in order sort last.
func SortByOrder[T any](items []T, idOf func(T) string, order []string) {
	pos := Positions(order)
	rank := func(item T) int {
		if p, ok := pos[idOf(item)]; ok {
			return p
		}
		return len(order)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return rank(items[i]) < rank(items[j])
	})
}
