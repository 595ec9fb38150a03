package services

import (
	"context"
	"sort"

	lru "github.com/hashicorp/golang-lru"
	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/objectives"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/n8nhub/community_hub/pkg/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ObjectiveStore interface {
	GetGroups(ctx context.Context) ([]models.ObjectiveGroup, error)
	GetItems(ctx context.Context) ([]models.ObjectiveItem, error)
	UpsertGroup(ctx context.Context, g *models.ObjectiveGroup) error
	UpsertItem(ctx context.Context, it *models.ObjectiveItem) error
	GetLinks(ctx context.Context, keys []string) ([]models.ObjectiveChallengeLink, error)
	AddLink(ctx context.Context, key string, challengeID primitive.ObjectID) error
	RemoveLink(ctx context.Context, key string, challengeID primitive.ObjectID) error
	GetSelection(ctx context.Context, userID primitive.ObjectID) ([]string, error)
	SaveSelection(ctx context.Context, userID primitive.ObjectID, keys []string) error
}

// SalesTag marks catalog items that trigger the proposal suggestion.
const SalesTag = "vendas"

type CatalogGroup struct {
	models.ObjectiveGroup
	Items []models.ObjectiveItem `json:"items"`
}

// Catalog is the objective catalog with the rules derived from it.
type Catalog struct {
	Groups []CatalogGroup   `json:"groups"`
	Rules  objectives.Rules `json:"-"`
	keys   map[string]bool
}

func (c *Catalog) known(key string) bool {
	return c.keys[key] || key == c.Rules.InfraKey
}

type SelectionView struct {
	Keys   []string          `json:"keys"`
	Locked []string          `json:"locked"`
	Hints  []objectives.Hint `json:"hints"`
}

const catalogCacheKey = "catalog"

// ObjectiveService serves the objective catalog, the users' selections and
// the objective to challenge links used for recommendations.
type ObjectiveService struct {
	repo  ObjectiveStore
	cache *lru.Cache
}

func NewObjectiveService(repo ObjectiveStore) *ObjectiveService {
	cache, _ := lru.New(1)
	return &ObjectiveService{repo: repo, cache: cache}
}

// Catalog returns the cached catalog, loading it on first use.
func (s *ObjectiveService) Catalog(ctx context.Context) (*Catalog, error) {
	if cached, ok := s.cache.Get(catalogCacheKey); ok {
		return cached.(*Catalog), nil
	}

	groups, err := s.repo.GetGroups(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.GetItems(ctx)
	if err != nil {
		return nil, err
	}

	c := buildCatalog(groups, items)
	s.cache.Add(catalogCacheKey, c)
	return c, nil
}

func buildCatalog(groups []models.ObjectiveGroup, items []models.ObjectiveItem) *Catalog {
	c := &Catalog{Groups: make([]CatalogGroup, 0, len(groups)), keys: make(map[string]bool, len(items))}
	pos := make(map[string]int, len(groups))
	for _, g := range groups {
		pos[g.Key] = len(c.Groups)
		c.Groups = append(c.Groups, CatalogGroup{ObjectiveGroup: g, Items: []models.ObjectiveItem{}})
	}

	ruleItems := make([]objectives.Item, 0, len(items))
	salesKeys := append([]string{}, objectives.DefaultSalesKeys...)
	for _, it := range items {
		c.keys[it.Key] = true
		ruleItems = append(ruleItems, objectives.Item{Key: it.Key, RequiresInfra: it.RequiresInfra, IsInfra: it.IsInfra})
		for _, t := range it.Tags {
			if t == SalesTag {
				salesKeys = append(salesKeys, it.Key)
			}
		}
		if i, ok := pos[it.GroupKey]; ok {
			c.Groups[i].Items = append(c.Groups[i].Items, it)
		}
	}
	c.Rules = objectives.NewRules(ruleItems, salesKeys)
	return c
}

// InvalidateCatalog drops the cached catalog.
func (s *ObjectiveService) InvalidateCatalog() {
	s.cache.Purge()
}

func (s *ObjectiveService) UpsertGroup(ctx context.Context, g *models.ObjectiveGroup) error {
	if g.Key == "" {
		return validation.NewError("key", "key é um campo obrigatório")
	}
	defer s.InvalidateCatalog()
	return s.repo.UpsertGroup(ctx, g)
}

func (s *ObjectiveService) UpsertItem(ctx context.Context, it *models.ObjectiveItem) error {
	if it.Key == "" {
		return validation.NewError("key", "key é um campo obrigatório")
	}
	defer s.InvalidateCatalog()
	return s.repo.UpsertItem(ctx, it)
}

func view(sel objectives.Set, r objectives.Rules) *SelectionView {
	v := &SelectionView{
		Keys:   sel.Keys(),
		Locked: objectives.Locked(sel, r),
		Hints:  objectives.Hints(sel, r),
	}
	if v.Locked == nil {
		v.Locked = []string{}
	}
	if v.Hints == nil {
		v.Hints = []objectives.Hint{}
	}
	return v
}

// Selection returns the user's saved objectives with constraints applied.
func (s *ObjectiveService) Selection(ctx context.Context, userID primitive.ObjectID) (*SelectionView, error) {
	c, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := s.repo.GetSelection(ctx, userID)
	if err != nil {
		return nil, err
	}
	sel := objectives.ApplyConstraints(objectives.NewSet(keys...), c.Rules)
	return view(sel, c.Rules), nil
}

// Save replaces the user's selection. Unknown keys are rejected and the
// infra objective is added when required.
func (s *ObjectiveService) Save(ctx context.Context, userID primitive.ObjectID, keys []string) (*SelectionView, error) {
	c, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		if !c.known(k) {
			return nil, validation.NewError("keys", "objetivo desconhecido: "+k)
		}
	}

	sel := objectives.ApplyConstraints(objectives.NewSet(keys...), c.Rules)
	if err := s.repo.SaveSelection(ctx, userID, sel.Keys()); err != nil {
		return nil, err
	}
	logger.Log.WithField("user_id", userID.Hex()).WithField("count", len(sel)).Info("Objectives saved")
	return view(sel, c.Rules), nil
}

// Toggle flips one key of the user's selection. Removing the infra objective
// while another selection requires it fails with ErrInfraLocked.
func (s *ObjectiveService) Toggle(ctx context.Context, userID primitive.ObjectID, key string) (*SelectionView, error) {
	c, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if !c.known(key) {
		return nil, validation.NewError("key", "objetivo desconhecido: "+key)
	}
	keys, err := s.repo.GetSelection(ctx, userID)
	if err != nil {
		return nil, err
	}

	sel, err := objectives.Toggle(objectives.ApplyConstraints(objectives.NewSet(keys...), c.Rules), key, c.Rules)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveSelection(ctx, userID, sel.Keys()); err != nil {
		return nil, err
	}
	return view(sel, c.Rules), nil
}

func (s *ObjectiveService) LinkChallenge(ctx context.Context, key string, challengeID primitive.ObjectID) error {
	c, err := s.Catalog(ctx)
	if err != nil {
		return err
	}
	if !c.known(key) {
		return validation.NewError("objective_key", "objetivo desconhecido: "+key)
	}
	return s.repo.AddLink(ctx, key, challengeID)
}

func (s *ObjectiveService) UnlinkChallenge(ctx context.Context, key string, challengeID primitive.ObjectID) error {
	return s.repo.RemoveLink(ctx, key, challengeID)
}

func (s *ObjectiveService) Links(ctx context.Context) ([]models.ObjectiveChallengeLink, error) {
	links, err := s.repo.GetLinks(ctx, nil)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []models.ObjectiveChallengeLink{}
	}
	return links, nil
}

// RecommendedChallengeIDs returns the challenges linked to the user's
// selected objectives, without duplicates.
func (s *ObjectiveService) RecommendedChallengeIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	sel, err := s.Selection(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(sel.Keys) == 0 {
		return nil, nil
	}
	links, err := s.repo.GetLinks(ctx, sel.Keys)
	if err != nil {
		return nil, err
	}

	seen := make(map[primitive.ObjectID]bool, len(links))
	var ids []primitive.ObjectID
	for _, l := range links {
		if seen[l.ChallengeID] {
			continue
		}
		seen[l.ChallengeID] = true
		ids = append(ids, l.ChallengeID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Hex() < ids[j].Hex() })
	return ids, nil
}
