package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/n8nhub/community_hub/internal/models"
	"github.com/pelletier/go-toml/v2"
)

// catalog is the static content loaded by the seed command.
type catalog struct {
	Groups  []models.ObjectiveGroup `toml:"groups"`
	Items   []models.ObjectiveItem  `toml:"items"`
	Badges  []models.Badge          `toml:"badges"`
	Sidebar []models.SidebarItem    `toml:"sidebar"`
}

// loadCatalog decodes the TOML catalog. Unknown keys are rejected so typos
// do not silently drop content.
func loadCatalog(r io.Reader) (*catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var c catalog
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("invalid catalog at line %d column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	return &c, nil
}

// check verifies that items point at known groups and keys are unique.
func (c *catalog) check() error {
	groups := make(map[string]bool, len(c.Groups))
	for _, g := range c.Groups {
		if g.Key == "" {
			return errors.New("objective group without key")
		}
		if groups[g.Key] {
			return fmt.Errorf("duplicate objective group %q", g.Key)
		}
		groups[g.Key] = true
	}

	items := make(map[string]bool, len(c.Items))
	for _, it := range c.Items {
		if it.Key == "" {
			return errors.New("objective item without key")
		}
		if items[it.Key] {
			return fmt.Errorf("duplicate objective item %q", it.Key)
		}
		if !groups[it.GroupKey] {
			return fmt.Errorf("objective item %q references unknown group %q", it.Key, it.GroupKey)
		}
		items[it.Key] = true
	}

	badges := make(map[string]bool, len(c.Badges))
	for _, b := range c.Badges {
		if badges[b.Key] {
			return fmt.Errorf("duplicate badge %q", b.Key)
		}
		badges[b.Key] = true
	}
	return nil
}
