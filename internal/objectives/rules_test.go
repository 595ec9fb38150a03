package objectives

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRules() Rules {
	return NewRules([]Item{
		{Key: "vps", IsInfra: true},
		{Key: "whatsapp_bot", RequiresInfra: true},
		{Key: "crm_sync", RequiresInfra: true},
		{Key: "vender_automacoes"},
		{Key: ProposalKey},
	}, DefaultSalesKeys)
}

func TestApplyConstraintsAddsInfra(t *testing.T) {
	r := testRules()
	in := NewSet("whatsapp_bot")

	out := ApplyConstraints(in, r)

	assert.Equal(t, []string{"vps", "whatsapp_bot"}, out.Keys())
	assert.Equal(t, []string{"whatsapp_bot"}, in.Keys(), "input must not be mutated")
}

func TestApplyConstraintsLeavesPlainSelection(t *testing.T) {
	out := ApplyConstraints(NewSet("vender_automacoes"), testRules())
	assert.Equal(t, []string{"vender_automacoes"}, out.Keys())
}

func TestCanDeselect(t *testing.T) {
	r := testRules()

	assert.False(t, CanDeselect(NewSet("vps", "crm_sync"), "vps", r))
	assert.True(t, CanDeselect(NewSet("vps"), "vps", r))
	assert.True(t, CanDeselect(NewSet("vps", "crm_sync"), "crm_sync", r))
}

func TestToggle(t *testing.T) {
	r := testRules()

	sel, err := Toggle(NewSet(), "crm_sync", r)
	require.NoError(t, err)
	assert.Equal(t, []string{"crm_sync", "vps"}, sel.Keys())

	_, err = Toggle(sel, "vps", r)
	assert.ErrorIs(t, err, ErrInfraLocked)

	sel, err = Toggle(sel, "crm_sync", r)
	require.NoError(t, err)
	assert.Equal(t, []string{"vps"}, sel.Keys())

	sel, err = Toggle(sel, "vps", r)
	require.NoError(t, err)
	assert.Empty(t, sel.Keys())
}

func TestLocked(t *testing.T) {
	r := testRules()
	assert.Equal(t, []string{"vps"}, Locked(NewSet("vps", "whatsapp_bot"), r))
	assert.Empty(t, Locked(NewSet("vps"), r))
}

func TestHints(t *testing.T) {
	r := testRules()

	hints := Hints(NewSet("vender_automacoes"), r)
	require.Len(t, hints, 1)
	assert.Equal(t, "suggest_proposal", hints[0].Code)
	assert.Equal(t, ProposalKey, hints[0].SuggestKey)

	assert.Empty(t, Hints(NewSet("vender_automacoes", ProposalKey), r))
	assert.Empty(t, Hints(NewSet("crm_sync"), r))
}

func TestNewRulesDefaultsInfraKey(t *testing.T) {
	r := NewRules([]Item{{Key: "x", RequiresInfra: true}}, nil)
	assert.Equal(t, DefaultInfraKey, r.InfraKey)
	assert.Equal(t, []string{DefaultInfraKey, "x"}, ApplyConstraints(NewSet("x"), r).Keys())
}
