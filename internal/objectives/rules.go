// Package objectives holds the selection rules over a user's objective keys.
package objectives

import (
	"errors"
	"sort"
)

// ProposalKey is the objective suggested to anyone selecting a sales objective.
const ProposalKey = "criar_proposta"

// DefaultInfraKey is used when the catalog does not flag an infra objective.
const DefaultInfraKey = "configurar_infra"

// DefaultSalesKeys are the objectives that trigger the proposal suggestion.
var DefaultSalesKeys = []string{"vender_automacoes", "prospectar_clientes", "fechar_contratos"}

// ErrInfraLocked is returned when removing the infra objective while a
// selected objective still requires it.
var ErrInfraLocked = errors.New("infra objective is required by another selection")

// Set is a set of objective keys.
type Set map[string]struct{}

// NewSet builds a set from keys.
func NewSet(keys ...string) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the keys sorted.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s Set) clone() Set {
	out := make(Set, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Item is the subset of an objective item the rules look at.
type Item struct {
	Key           string
	RequiresInfra bool
	IsInfra       bool
}

// Rules are the declarative constraints derived from the catalog.
type Rules struct {
	InfraKey      string
	RequiresInfra Set
	Infra         Set
	SalesKeys     Set
}

// NewRules builds rules from catalog items. The first item flagged is_infra
// becomes the infra key.
func NewRules(items []Item, salesKeys []string) Rules {
	r := Rules{
		RequiresInfra: NewSet(),
		Infra:         NewSet(),
		SalesKeys:     NewSet(salesKeys...),
	}
	for _, it := range items {
		if it.RequiresInfra {
			r.RequiresInfra[it.Key] = struct{}{}
		}
		if it.IsInfra {
			r.Infra[it.Key] = struct{}{}
			if r.InfraKey == "" {
				r.InfraKey = it.Key
			}
		}
	}
	if r.InfraKey == "" {
		r.InfraKey = DefaultInfraKey
		r.Infra[DefaultInfraKey] = struct{}{}
	}
	return r
}

func (r Rules) needsInfra(selected Set) bool {
	for k := range selected {
		if r.RequiresInfra.Has(k) {
			return true
		}
	}
	return false
}

// ApplyConstraints returns selected plus the infra key when any selected
// objective requires it. selected is not modified.
func ApplyConstraints(selected Set, r Rules) Set {
	out := selected.clone()
	if r.needsInfra(out) {
		out[r.InfraKey] = struct{}{}
	}
	return out
}

// CanDeselect reports whether key may be removed from selected.
func CanDeselect(selected Set, key string, r Rules) bool {
	if !r.Infra.Has(key) {
		return true
	}
	return !r.needsInfra(selected)
}

// Toggle adds key when absent and removes it when present, applying the
// constraints to the result.
func Toggle(selected Set, key string, r Rules) (Set, error) {
	if selected.Has(key) {
		if !CanDeselect(selected, key, r) {
			return selected.clone(), ErrInfraLocked
		}
		out := selected.clone()
		delete(out, key)
		return ApplyConstraints(out, r), nil
	}
	out := selected.clone()
	out[key] = struct{}{}
	return ApplyConstraints(out, r), nil
}

// Hint is an advisory message about the selection. It never changes it.
type Hint struct {
	Code       string `json:"code"`
	SuggestKey string `json:"suggest_key"`
	Message    string `json:"message"`
}

// Hints returns the advisory hints for selected.
func Hints(selected Set, r Rules) []Hint {
	if selected.Has(ProposalKey) {
		return nil
	}
	for k := range selected {
		if r.SalesKeys.Has(k) {
			return []Hint{{
				Code:       "suggest_proposal",
				SuggestKey: ProposalKey,
				Message:    "Quem vende automações também precisa de uma boa proposta. Que tal incluir o objetivo \"Criar proposta\"?",
			}}
		}
	}
	return nil
}

// Locked returns the selected infra keys that cannot currently be removed.
func Locked(selected Set, r Rules) []string {
	var out []string
	for _, k := range selected.Keys() {
		if !CanDeselect(selected, k, r) {
			out = append(out, k)
		}
	}
	return out
}
