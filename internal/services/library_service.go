package services

import (
	"context"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/n8nhub/community_hub/pkg/storage"
	"github.com/n8nhub/community_hub/pkg/validation"
	"github.com/sahilm/fuzzy"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type TemplateStore interface {
	CreateTemplate(ctx context.Context, t *models.Template) (*models.Template, error)
	UpdateTemplate(ctx context.Context, t *models.Template) error
	DeleteTemplate(ctx context.Context, id primitive.ObjectID) error
	GetTemplateByID(ctx context.Context, id primitive.ObjectID) (*models.Template, error)
	GetTemplates(ctx context.Context, publishedOnly bool, category string) ([]models.Template, error)
	IncrementCopies(ctx context.Context, id primitive.ObjectID) (int64, error)
}

type PromptStore interface {
	CreatePrompt(ctx context.Context, p *models.Prompt) (*models.Prompt, error)
	UpdatePrompt(ctx context.Context, p *models.Prompt) error
	DeletePrompt(ctx context.Context, id primitive.ObjectID) error
	GetPromptByID(ctx context.Context, id primitive.ObjectID) (*models.Prompt, error)
	GetPrompts(ctx context.Context, publishedOnly bool, category string) ([]models.Prompt, error)
	SetVariationMedia(ctx context.Context, promptID primitive.ObjectID, variationID, field, url string) error
}

type FavoriteStore interface {
	AddFavorite(ctx context.Context, userID primitive.ObjectID, itemType string, itemID primitive.ObjectID) (bool, error)
	RemoveFavorite(ctx context.Context, userID primitive.ObjectID, itemType string, itemID primitive.ObjectID) (bool, error)
	IsFavorite(ctx context.Context, userID primitive.ObjectID, itemType string, itemID primitive.ObjectID) (bool, error)
	GetFavorites(ctx context.Context, userID primitive.ObjectID, itemType string) ([]models.Favorite, error)
}

// LibraryQuery filters the template and prompt listings.
type LibraryQuery struct {
	Category      string
	Search        string
	FavoritesOnly bool
	IncludeDrafts bool
}

type TemplateView struct {
	models.Template
	Favorite bool `json:"favorite"`
}

type PromptView struct {
	models.Prompt
	Favorite bool `json:"favorite"`
}

// LibraryService serves the template and prompt library.
type LibraryService struct {
	templates TemplateStore
	prompts   PromptStore
	favorites FavoriteStore
	uploader  storage.Uploader
}

func NewLibraryService(templates TemplateStore, prompts PromptStore, favorites FavoriteStore, uploader storage.Uploader) *LibraryService {
	return &LibraryService{templates: templates, prompts: prompts, favorites: favorites, uploader: uploader}
}

var folder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalize lowercases s and strips accents so "automação" matches "automacao".
func normalize(s string) string {
	out, _, err := transform.String(folder, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

type searchItems []string

func (s searchItems) String(i int) string { return s[i] }
func (s searchItems) Len() int            { return len(s) }

// rank returns the indexes of texts matching query, best match first. An
// empty query keeps every index in order.
func rank(query string, texts []string) []int {
	query = normalize(strings.TrimSpace(query))
	if query == "" {
		idx := make([]int, len(texts))
		for i := range texts {
			idx[i] = i
		}
		return idx
	}
	items := make(searchItems, len(texts))
	for i, t := range texts {
		items[i] = normalize(t)
	}
	matches := fuzzy.FindFrom(query, items)
	idx := make([]int, len(matches))
	for i, m := range matches {
		idx[i] = m.Index
	}
	return idx
}

func searchText(title, category string, tags []string) string {
	return title + " " + category + " " + strings.Join(tags, " ")
}

func (s *LibraryService) favoriteSet(ctx context.Context, userID primitive.ObjectID, itemType string) (map[primitive.ObjectID]bool, error) {
	favs, err := s.favorites.GetFavorites(ctx, userID, itemType)
	if err != nil {
		return nil, err
	}
	set := make(map[primitive.ObjectID]bool, len(favs))
	for _, f := range favs {
		set[f.ItemID] = true
	}
	return set, nil
}

func (s *LibraryService) ListTemplates(ctx context.Context, userID primitive.ObjectID, q LibraryQuery) ([]TemplateView, error) {
	all, err := s.templates.GetTemplates(ctx, !q.IncludeDrafts, q.Category)
	if err != nil {
		return nil, err
	}
	favs, err := s.favoriteSet(ctx, userID, models.FavoriteTemplate)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(all))
	for i, t := range all {
		texts[i] = searchText(t.Title, t.Category, t.Tags)
	}
	out := []TemplateView{}
	for _, i := range rank(q.Search, texts) {
		t := all[i]
		if q.FavoritesOnly && !favs[t.ID] {
			continue
		}
		t.WorkflowJSON = ""
		out = append(out, TemplateView{Template: t, Favorite: favs[t.ID]})
	}
	return out, nil
}

func (s *LibraryService) GetTemplate(ctx context.Context, userID, id primitive.ObjectID, includeDrafts bool) (*TemplateView, error) {
	t, err := s.templates.GetTemplateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.Published && !includeDrafts {
		return nil, ErrNotFound
	}
	fav, err := s.favorites.IsFavorite(ctx, userID, models.FavoriteTemplate, id)
	if err != nil {
		return nil, err
	}
	return &TemplateView{Template: *t, Favorite: fav}, nil
}

// CopyTemplate returns the template workflow and counts the copy.
func (s *LibraryService) CopyTemplate(ctx context.Context, id primitive.ObjectID) (*models.Template, error) {
	t, err := s.templates.GetTemplateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.Published {
		return nil, ErrNotFound
	}
	copies, err := s.templates.IncrementCopies(ctx, id)
	if err != nil {
		logger.Log.WithError(err).WithField("template_id", id.Hex()).Warn("Failed to count template copy")
	} else {
		t.Copies = copies
	}
	return t, nil
}

func (s *LibraryService) CreateTemplate(ctx context.Context, authorID primitive.ObjectID, t *models.Template) (*models.Template, error) {
	if err := validation.Struct(t); err != nil {
		return nil, err
	}
	t.AuthorID = authorID
	t.Copies = 0
	return s.templates.CreateTemplate(ctx, t)
}

func (s *LibraryService) UpdateTemplate(ctx context.Context, t *models.Template) error {
	if err := validation.Struct(t); err != nil {
		return err
	}
	return s.templates.UpdateTemplate(ctx, t)
}

func (s *LibraryService) DeleteTemplate(ctx context.Context, id primitive.ObjectID) error {
	return s.templates.DeleteTemplate(ctx, id)
}

func (s *LibraryService) ListPrompts(ctx context.Context, userID primitive.ObjectID, q LibraryQuery) ([]PromptView, error) {
	all, err := s.prompts.GetPrompts(ctx, !q.IncludeDrafts, q.Category)
	if err != nil {
		return nil, err
	}
	favs, err := s.favoriteSet(ctx, userID, models.FavoritePrompt)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(all))
	for i, p := range all {
		texts[i] = searchText(p.Title, p.Category, p.Tags)
	}
	out := []PromptView{}
	for _, i := range rank(q.Search, texts) {
		p := all[i]
		if q.FavoritesOnly && !favs[p.ID] {
			continue
		}
		out = append(out, PromptView{Prompt: p, Favorite: favs[p.ID]})
	}
	return out, nil
}

func (s *LibraryService) GetPrompt(ctx context.Context, userID, id primitive.ObjectID, includeDrafts bool) (*PromptView, error) {
	p, err := s.prompts.GetPromptByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Published && !includeDrafts {
		return nil, ErrNotFound
	}
	fav, err := s.favorites.IsFavorite(ctx, userID, models.FavoritePrompt, id)
	if err != nil {
		return nil, err
	}
	return &PromptView{Prompt: *p, Favorite: fav}, nil
}

func assignVariationIDs(p *models.Prompt) {
	for i := range p.Variations {
		if p.Variations[i].ID == "" {
			p.Variations[i].ID = uuid.NewString()
		}
	}
}

func (s *LibraryService) CreatePrompt(ctx context.Context, authorID primitive.ObjectID, p *models.Prompt) (*models.Prompt, error) {
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	p.AuthorID = authorID
	assignVariationIDs(p)
	return s.prompts.CreatePrompt(ctx, p)
}

func (s *LibraryService) UpdatePrompt(ctx context.Context, p *models.Prompt) error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	assignVariationIDs(p)
	return s.prompts.UpdatePrompt(ctx, p)
}

func (s *LibraryService) DeletePrompt(ctx context.Context, id primitive.ObjectID) error {
	return s.prompts.DeletePrompt(ctx, id)
}

// UploadVariationMedia stores an image or MP4 video for one prompt
// variation and returns the updated prompt.
func (s *LibraryService) UploadVariationMedia(ctx context.Context, promptID primitive.ObjectID, variationID string, u MediaUpload) (*models.Prompt, error) {
	p, err := s.prompts.GetPromptByID(ctx, promptID)
	if err != nil {
		return nil, err
	}
	found := false
	for _, v := range p.Variations {
		if v.ID == variationID {
			found = true
		}
	}
	if !found {
		return nil, ErrNotFound
	}

	m, err := storeMedia(ctx, s.uploader, storage.PromptVariationPolicy, "prompts/"+promptID.Hex(), u)
	if err != nil {
		return nil, err
	}
	field := "image_url"
	if m.Kind == storage.KindVideo {
		field = "video_url"
	}
	if err := s.prompts.SetVariationMedia(ctx, promptID, variationID, field, m.URL); err != nil {
		return nil, err
	}
	return s.prompts.GetPromptByID(ctx, promptID)
}

// ToggleFavorite flips the favorite flag of an item and returns the new state.
func (s *LibraryService) ToggleFavorite(ctx context.Context, userID primitive.ObjectID, itemType string, itemID primitive.ObjectID) (bool, error) {
	if !models.ValidFavoriteType(itemType) {
		return false, validation.NewError("item_type", "tipo de item inválido")
	}
	fav, err := s.favorites.IsFavorite(ctx, userID, itemType, itemID)
	if err != nil {
		return false, err
	}
	if fav {
		_, err = s.favorites.RemoveFavorite(ctx, userID, itemType, itemID)
		return false, err
	}
	_, err = s.favorites.AddFavorite(ctx, userID, itemType, itemID)
	return err == nil, err
}

func (s *LibraryService) Favorites(ctx context.Context, userID primitive.ObjectID, itemType string) ([]models.Favorite, error) {
	if itemType != "" && !models.ValidFavoriteType(itemType) {
		return nil, validation.NewError("item_type", "tipo de item inválido")
	}
	favs, err := s.favorites.GetFavorites(ctx, userID, itemType)
	if err != nil {
		return nil, err
	}
	if favs == nil {
		favs = []models.Favorite{}
	}
	return favs, nil
}
