package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/repository"
	"github.com/n8nhub/community_hub/pkg/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeTemplates struct {
	items []models.Template
}

func (f *fakeTemplates) CreateTemplate(ctx context.Context, t *models.Template) (*models.Template, error) {
	t.ID = primitive.NewObjectID()
	f.items = append(f.items, *t)
	return t, nil
}

func (f *fakeTemplates) UpdateTemplate(ctx context.Context, t *models.Template) error { return nil }

func (f *fakeTemplates) DeleteTemplate(ctx context.Context, id primitive.ObjectID) error { return nil }

func (f *fakeTemplates) GetTemplateByID(ctx context.Context, id primitive.ObjectID) (*models.Template, error) {
	for _, t := range f.items {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTemplates) GetTemplates(ctx context.Context, publishedOnly bool, category string) ([]models.Template, error) {
	var out []models.Template
	for _, t := range f.items {
		if (!publishedOnly || t.Published) && (category == "" || t.Category == category) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTemplates) IncrementCopies(ctx context.Context, id primitive.ObjectID) (int64, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Copies++
			return f.items[i].Copies, nil
		}
	}
	return 0, repository.ErrNotFound
}

type fakePrompts struct {
	items []models.Prompt
}

func (f *fakePrompts) CreatePrompt(ctx context.Context, p *models.Prompt) (*models.Prompt, error) {
	p.ID = primitive.NewObjectID()
	f.items = append(f.items, *p)
	return p, nil
}

func (f *fakePrompts) UpdatePrompt(ctx context.Context, p *models.Prompt) error { return nil }

func (f *fakePrompts) DeletePrompt(ctx context.Context, id primitive.ObjectID) error { return nil }

func (f *fakePrompts) GetPromptByID(ctx context.Context, id primitive.ObjectID) (*models.Prompt, error) {
	for _, p := range f.items {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePrompts) GetPrompts(ctx context.Context, publishedOnly bool, category string) ([]models.Prompt, error) {
	var out []models.Prompt
	for _, p := range f.items {
		if !publishedOnly || p.Published {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePrompts) SetVariationMedia(ctx context.Context, promptID primitive.ObjectID, variationID, field, url string) error {
	for i := range f.items {
		if f.items[i].ID != promptID {
			continue
		}
		for j := range f.items[i].Variations {
			v := &f.items[i].Variations[j]
			if v.ID != variationID {
				continue
			}
			if field == "video_url" {
				v.VideoURL = url
			} else {
				v.ImageURL = url
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

type favKey struct {
	user     primitive.ObjectID
	itemType string
	item     primitive.ObjectID
}

type fakeFavorites struct {
	set map[favKey]bool
}

func newFakeFavorites() *fakeFavorites {
	return &fakeFavorites{set: map[favKey]bool{}}
}

func (f *fakeFavorites) AddFavorite(ctx context.Context, userID primitive.ObjectID, itemType string, itemID primitive.ObjectID) (bool, error) {
	k := favKey{userID, itemType, itemID}
	if f.set[k] {
		return false, nil
	}
	f.set[k] = true
	return true, nil
}

func (f *fakeFavorites) RemoveFavorite(ctx context.Context, userID primitive.ObjectID, itemType string, itemID primitive.ObjectID) (bool, error) {
	k := favKey{userID, itemType, itemID}
	existed := f.set[k]
	delete(f.set, k)
	return existed, nil
}

func (f *fakeFavorites) IsFavorite(ctx context.Context, userID primitive.ObjectID, itemType string, itemID primitive.ObjectID) (bool, error) {
	return f.set[favKey{userID, itemType, itemID}], nil
}

func (f *fakeFavorites) GetFavorites(ctx context.Context, userID primitive.ObjectID, itemType string) ([]models.Favorite, error) {
	var out []models.Favorite
	for k := range f.set {
		if k.user == userID && (itemType == "" || k.itemType == itemType) {
			out = append(out, models.Favorite{UserID: k.user, ItemType: k.itemType, ItemID: k.item})
		}
	}
	return out, nil
}

type fakeUploader struct {
	base    string
	keys    []string
	deleted []string
}

func (u *fakeUploader) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	u.keys = append(u.keys, key)
	return fmt.Sprintf("%s/%s", u.base, key), nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	return nil
}

func newLibraryFixture() (*LibraryService, *fakeTemplates, *fakePrompts, *fakeUploader) {
	templates := &fakeTemplates{items: []models.Template{
		{ID: primitive.NewObjectID(), Title: "Automação de WhatsApp", Category: "atendimento", Published: true, WorkflowJSON: `{"nodes":[]}`},
		{ID: primitive.NewObjectID(), Title: "Relatório diário no Slack", Category: "produtividade", Tags: []string{"slack"}, Published: true},
		{ID: primitive.NewObjectID(), Title: "Rascunho secreto", Published: false},
	}}
	prompts := &fakePrompts{items: []models.Prompt{
		{ID: primitive.NewObjectID(), Title: "Resumo de reunião", Content: "Resuma", Published: true,
			Variations: []models.PromptVariation{{ID: "v1", Label: "Curta"}}},
	}}
	uploader := &fakeUploader{base: "https://cdn.test"}
	return NewLibraryService(templates, prompts, newFakeFavorites(), uploader), templates, prompts, uploader
}

func TestListTemplatesSearchIgnoresAccents(t *testing.T) {
	svc, _, _, _ := newLibraryFixture()
	user := primitive.NewObjectID()

	all, err := svc.ListTemplates(context.Background(), user, LibraryQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Empty(t, all[0].WorkflowJSON)

	found, err := svc.ListTemplates(context.Background(), user, LibraryQuery{Search: "automacao"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Automação de WhatsApp", found[0].Title)

	bySlackTag, err := svc.ListTemplates(context.Background(), user, LibraryQuery{Search: "slack"})
	require.NoError(t, err)
	require.Len(t, bySlackTag, 1)

	drafts, err := svc.ListTemplates(context.Background(), user, LibraryQuery{IncludeDrafts: true, Search: "secreto"})
	require.NoError(t, err)
	assert.Len(t, drafts, 1)
}

func TestToggleFavorite(t *testing.T) {
	svc, templates, _, _ := newLibraryFixture()
	user := primitive.NewObjectID()
	ctx := context.Background()
	id := templates.items[1].ID

	on, err := svc.ToggleFavorite(ctx, user, models.FavoriteTemplate, id)
	require.NoError(t, err)
	assert.True(t, on)

	favs, err := svc.ListTemplates(ctx, user, LibraryQuery{FavoritesOnly: true})
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.True(t, favs[0].Favorite)

	off, err := svc.ToggleFavorite(ctx, user, models.FavoriteTemplate, id)
	require.NoError(t, err)
	assert.False(t, off)

	list, err := svc.Favorites(ctx, user, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.ToggleFavorite(ctx, user, "video", id)
	assert.Error(t, err)
}

func TestCopyTemplateCounts(t *testing.T) {
	svc, templates, _, _ := newLibraryFixture()
	ctx := context.Background()

	tpl, err := svc.CopyTemplate(ctx, templates.items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), tpl.Copies)
	assert.Equal(t, `{"nodes":[]}`, tpl.WorkflowJSON)

	_, err = svc.CopyTemplate(ctx, templates.items[2].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreatePromptAssignsVariationIDs(t *testing.T) {
	svc, _, _, _ := newLibraryFixture()
	author := primitive.NewObjectID()

	p, err := svc.CreatePrompt(context.Background(), author, &models.Prompt{
		Title: "Email frio", Content: "Escreva",
		Variations: []models.PromptVariation{{Label: "Formal"}, {ID: "keep", Label: "Casual"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.Variations[0].ID)
	assert.Equal(t, "keep", p.Variations[1].ID)
	assert.Equal(t, author, p.AuthorID)
}

func TestUploadVariationMedia(t *testing.T) {
	svc, _, prompts, uploader := newLibraryFixture()
	ctx := context.Background()
	id := prompts.items[0].ID

	p, err := svc.UploadVariationMedia(ctx, id, "v1", MediaUpload{
		Filename: "demo.MP4", ContentType: "video/mp4", Size: 20 * storage.MB, Body: strings.NewReader("x"),
	})
	require.NoError(t, err)
	require.Len(t, uploader.keys, 1)
	assert.True(t, strings.HasPrefix(uploader.keys[0], "prompts/"+id.Hex()+"/"))
	assert.True(t, strings.HasSuffix(uploader.keys[0], ".mp4"))
	assert.Equal(t, "https://cdn.test/"+uploader.keys[0], p.Variations[0].VideoURL)

	_, err = svc.UploadVariationMedia(ctx, id, "v1", MediaUpload{ContentType: "video/webm", Size: 10})
	assert.ErrorIs(t, err, ErrInvalidMedia)

	_, err = svc.UploadVariationMedia(ctx, id, "missing", MediaUpload{ContentType: "image/png", Size: 10})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadWithoutStorage(t *testing.T) {
	_, templates, prompts, _ := newLibraryFixture()
	svc := NewLibraryService(templates, prompts, newFakeFavorites(), nil)

	_, err := svc.UploadVariationMedia(context.Background(), prompts.items[0].ID, "v1", MediaUpload{ContentType: "image/png", Size: 10})
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}
