package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/objectives"
	"github.com/n8nhub/community_hub/pkg/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeObjectiveStore struct {
	groups     []models.ObjectiveGroup
	items      []models.ObjectiveItem
	links      []models.ObjectiveChallengeLink
	selections map[primitive.ObjectID][]string
	loads      int
}

func (f *fakeObjectiveStore) GetGroups(ctx context.Context) ([]models.ObjectiveGroup, error) {
	f.loads++
	return f.groups, nil
}

func (f *fakeObjectiveStore) GetItems(ctx context.Context) ([]models.ObjectiveItem, error) {
	return f.items, nil
}

func (f *fakeObjectiveStore) UpsertGroup(ctx context.Context, g *models.ObjectiveGroup) error {
	f.groups = append(f.groups, *g)
	return nil
}

func (f *fakeObjectiveStore) UpsertItem(ctx context.Context, it *models.ObjectiveItem) error {
	f.items = append(f.items, *it)
	return nil
}

func (f *fakeObjectiveStore) GetLinks(ctx context.Context, keys []string) ([]models.ObjectiveChallengeLink, error) {
	if keys == nil {
		return f.links, nil
	}
	want := objectives.NewSet(keys...)
	var out []models.ObjectiveChallengeLink
	for _, l := range f.links {
		if want.Has(l.ObjectiveKey) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeObjectiveStore) AddLink(ctx context.Context, key string, challengeID primitive.ObjectID) error {
	f.links = append(f.links, models.ObjectiveChallengeLink{ObjectiveKey: key, ChallengeID: challengeID})
	return nil
}

func (f *fakeObjectiveStore) RemoveLink(ctx context.Context, key string, challengeID primitive.ObjectID) error {
	return nil
}

func (f *fakeObjectiveStore) GetSelection(ctx context.Context, userID primitive.ObjectID) ([]string, error) {
	return f.selections[userID], nil
}

func (f *fakeObjectiveStore) SaveSelection(ctx context.Context, userID primitive.ObjectID, keys []string) error {
	f.selections[userID] = keys
	return nil
}

func newObjectiveStore() *fakeObjectiveStore {
	return &fakeObjectiveStore{
		groups: []models.ObjectiveGroup{{Key: "negocio", Label: "Negócio"}, {Key: "tecnico", Label: "Técnico"}},
		items: []models.ObjectiveItem{
			{Key: "configurar_infra", GroupKey: "tecnico", IsInfra: true},
			{Key: "automatizar_whatsapp", GroupKey: "tecnico", RequiresInfra: true},
			{Key: "vender_automacoes", GroupKey: "negocio"},
			{Key: "criar_proposta", GroupKey: "negocio"},
			{Key: "captar_leads", GroupKey: "negocio", Tags: []string{SalesTag}},
		},
		selections: map[primitive.ObjectID][]string{},
	}
}

func TestCatalogIsCached(t *testing.T) {
	store := newObjectiveStore()
	svc := NewObjectiveService(store)
	ctx := context.Background()

	c, err := svc.Catalog(ctx)
	require.NoError(t, err)
	require.Len(t, c.Groups, 2)
	assert.Len(t, c.Groups[0].Items, 3)
	assert.True(t, c.Rules.SalesKeys.Has("captar_leads"))

	_, _ = svc.Catalog(ctx)
	assert.Equal(t, 1, store.loads)

	require.NoError(t, svc.UpsertGroup(ctx, &models.ObjectiveGroup{Key: "extra"}))
	c, err = svc.Catalog(ctx)
	require.NoError(t, err)
	assert.Len(t, c.Groups, 3)
	assert.Equal(t, 2, store.loads)
}

func TestSaveAddsInfraAndHints(t *testing.T) {
	svc := NewObjectiveService(newObjectiveStore())
	user := primitive.NewObjectID()

	v, err := svc.Save(context.Background(), user, []string{"automatizar_whatsapp", "captar_leads"})
	require.NoError(t, err)
	assert.Equal(t, []string{"automatizar_whatsapp", "captar_leads", "configurar_infra"}, v.Keys)
	assert.Equal(t, []string{"configurar_infra"}, v.Locked)
	require.Len(t, v.Hints, 1)
	assert.Equal(t, objectives.ProposalKey, v.Hints[0].SuggestKey)
}

func TestSaveRejectsUnknownKeys(t *testing.T) {
	svc := NewObjectiveService(newObjectiveStore())

	_, err := svc.Save(context.Background(), primitive.NewObjectID(), []string{"voar"})
	_, ok := validation.AsError(err)
	assert.True(t, ok)
}

func TestToggleInfraLocked(t *testing.T) {
	svc := NewObjectiveService(newObjectiveStore())
	user := primitive.NewObjectID()
	ctx := context.Background()

	_, err := svc.Toggle(ctx, user, "automatizar_whatsapp")
	require.NoError(t, err)

	_, err = svc.Toggle(ctx, user, "configurar_infra")
	assert.ErrorIs(t, err, ErrInfraLocked)

	v, err := svc.Toggle(ctx, user, "automatizar_whatsapp")
	require.NoError(t, err)
	assert.Equal(t, []string{"configurar_infra"}, v.Keys)
	assert.Empty(t, v.Locked)

	v, err = svc.Toggle(ctx, user, "configurar_infra")
	require.NoError(t, err)
	assert.Empty(t, v.Keys)
}

func TestRecommendedChallengeIDs(t *testing.T) {
	store := newObjectiveStore()
	svc := NewObjectiveService(store)
	user := primitive.NewObjectID()
	ctx := context.Background()
	shared, other := primitive.NewObjectID(), primitive.NewObjectID()

	require.NoError(t, svc.LinkChallenge(ctx, "automatizar_whatsapp", shared))
	require.NoError(t, svc.LinkChallenge(ctx, "configurar_infra", shared))
	require.NoError(t, svc.LinkChallenge(ctx, "vender_automacoes", other))
	_, err := svc.Save(ctx, user, []string{"automatizar_whatsapp"})
	require.NoError(t, err)

	ids, err := svc.RecommendedChallengeIDs(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{shared}, ids)

	err = svc.LinkChallenge(ctx, "desconhecido", other)
	_, ok := validation.AsError(err)
	assert.True(t, ok)
}
