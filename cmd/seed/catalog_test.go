package main

import (
	"os"
	"strings"
	"testing"

	"github.com/n8nhub/community_hub/internal/gamification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	c, err := loadCatalog(strings.NewReader(`
[[groups]]
key = "fundamentos"
label = "Fundamentos"

[[items]]
key = "configurar_infra"
group_key = "fundamentos"
label = "Infra"
is_infra = true

[[badges]]
key = "mil_xp"
name = "Mil XP"
criteria_type = "xp_total"
criteria_value = 1000
active = true
`))
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.True(t, c.Items[0].IsInfra)
	assert.Equal(t, int64(1000), c.Badges[0].CriteriaValue)
}

func TestLoadCatalogRejects(t *testing.T) {
	tests := map[string]string{
		"unknown field": "[[groups]]\nkey = \"a\"\ncolour = \"red\"\n",
		"unknown group": "[[items]]\nkey = \"x\"\ngroup_key = \"nope\"\n",
		"duplicate":     "[[groups]]\nkey = \"a\"\n[[groups]]\nkey = \"a\"\n",
		"syntax":        "[[groups]\nkey = \"a\"\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadCatalog(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestBundledCatalog(t *testing.T) {
	f, err := os.Open("../../seed/catalog.toml")
	require.NoError(t, err)
	defer f.Close()

	c, err := loadCatalog(f)
	require.NoError(t, err)
	assert.NotEmpty(t, c.Items)
	for _, b := range c.Badges {
		assert.True(t, gamification.ValidCriteria(b.CriteriaType), b.Key)
	}
}
