package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/services"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/n8nhub/community_hub/pkg/storage"
	"github.com/sirupsen/logrus"
)

// LibraryHandler handles the template and prompt library and favorites.
type LibraryHandler struct {
	Service *services.LibraryService
}

func NewLibraryHandler(service *services.LibraryService) *LibraryHandler {
	return &LibraryHandler{Service: service}
}

func libraryQuery(r *http.Request, includeDrafts bool) services.LibraryQuery {
	q := r.URL.Query()
	return services.LibraryQuery{
		Category:      q.Get("category"),
		Search:        q.Get("q"),
		FavoritesOnly: queryBool(r, "favorites"),
		IncludeDrafts: includeDrafts,
	}
}

func (h *LibraryHandler) listTemplates(w http.ResponseWriter, r *http.Request, includeDrafts bool) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	list, err := h.Service.ListTemplates(r.Context(), userID, libraryQuery(r, includeDrafts))
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar os templates.")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *LibraryHandler) getTemplate(w http.ResponseWriter, r *http.Request, includeDrafts bool) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.Service.GetTemplate(r.Context(), userID, id, includeDrafts)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar o template.")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// GET /templates?category=&q=&favorites=
func (h *LibraryHandler) ListTemplatesHandler(w http.ResponseWriter, r *http.Request) {
	h.listTemplates(w, r, false)
}

// GET /templates/{id}
func (h *LibraryHandler) GetTemplateHandler(w http.ResponseWriter, r *http.Request) {
	h.getTemplate(w, r, false)
}

// GET /admin/templates
func (h *LibraryHandler) AdminListTemplatesHandler(w http.ResponseWriter, r *http.Request) {
	h.listTemplates(w, r, true)
}

// GET /admin/templates/{id}
func (h *LibraryHandler) AdminGetTemplateHandler(w http.ResponseWriter, r *http.Request) {
	h.getTemplate(w, r, true)
}

// POST /templates/{id}/copy
func (h *LibraryHandler) CopyTemplateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.Service.CopyTemplate(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "Não foi possível copiar o template.")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// POST /admin/templates
func (h *LibraryHandler) CreateTemplateHandler(w http.ResponseWriter, r *http.Request) {
	authorID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var t models.Template
	if !decodeJSON(w, r, &t) {
		return
	}
	created, err := h.Service.CreateTemplate(r.Context(), authorID, &t)
	if err != nil {
		respondError(w, r, err, "Não foi possível criar o template.")
		return
	}
	logger.Log.WithField("template_id", created.ID.Hex()).Info("Template created")
	writeJSON(w, http.StatusCreated, created)
}

// PUT /admin/templates/{id}
func (h *LibraryHandler) UpdateTemplateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var t models.Template
	if !decodeJSON(w, r, &t) {
		return
	}
	t.ID = id
	if err := h.Service.UpdateTemplate(r.Context(), &t); err != nil {
		respondError(w, r, err, "Não foi possível atualizar o template.")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DELETE /admin/templates/{id}
func (h *LibraryHandler) DeleteTemplateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteTemplate(r.Context(), id); err != nil {
		respondError(w, r, err, "Não foi possível excluir o template.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LibraryHandler) listPrompts(w http.ResponseWriter, r *http.Request, includeDrafts bool) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	list, err := h.Service.ListPrompts(r.Context(), userID, libraryQuery(r, includeDrafts))
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar os prompts.")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *LibraryHandler) getPrompt(w http.ResponseWriter, r *http.Request, includeDrafts bool) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.Service.GetPrompt(r.Context(), userID, id, includeDrafts)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar o prompt.")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GET /prompts
func (h *LibraryHandler) ListPromptsHandler(w http.ResponseWriter, r *http.Request) {
	h.listPrompts(w, r, false)
}

// GET /prompts/{id}
func (h *LibraryHandler) GetPromptHandler(w http.ResponseWriter, r *http.Request) {
	h.getPrompt(w, r, false)
}

// GET /admin/prompts
func (h *LibraryHandler) AdminListPromptsHandler(w http.ResponseWriter, r *http.Request) {
	h.listPrompts(w, r, true)
}

// GET /admin/prompts/{id}
func (h *LibraryHandler) AdminGetPromptHandler(w http.ResponseWriter, r *http.Request) {
	h.getPrompt(w, r, true)
}

// POST /admin/prompts
func (h *LibraryHandler) CreatePromptHandler(w http.ResponseWriter, r *http.Request) {
	authorID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var p models.Prompt
	if !decodeJSON(w, r, &p) {
		return
	}
	created, err := h.Service.CreatePrompt(r.Context(), authorID, &p)
	if err != nil {
		respondError(w, r, err, "Não foi possível criar o prompt.")
		return
	}
	logger.Log.WithField("prompt_id", created.ID.Hex()).Info("Prompt created")
	writeJSON(w, http.StatusCreated, created)
}

// PUT /admin/prompts/{id}
func (h *LibraryHandler) UpdatePromptHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var p models.Prompt
	if !decodeJSON(w, r, &p) {
		return
	}
	p.ID = id
	if err := h.Service.UpdatePrompt(r.Context(), &p); err != nil {
		respondError(w, r, err, "Não foi possível atualizar o prompt.")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DELETE /admin/prompts/{id}
func (h *LibraryHandler) DeletePromptHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeletePrompt(r.Context(), id); err != nil {
		respondError(w, r, err, "Não foi possível excluir o prompt.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /admin/prompts/{id}/variations/{variationId}/media (multipart "file")
func (h *LibraryHandler) UploadVariationMediaHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	variationID := mux.Vars(r)["variationId"]

	upload, done, ok := readUpload(w, r, storage.PromptVariationPolicy.MaxVideoBytes)
	if !ok {
		return
	}
	defer done()

	p, err := h.Service.UploadVariationMedia(r.Context(), id, variationID, upload)
	if err != nil {
		respondError(w, r, err, "Não foi possível enviar o arquivo.")
		return
	}
	logger.Log.WithFields(logrus.Fields{
		"prompt_id":    id.Hex(),
		"variation_id": variationID,
		"size":         upload.Size,
	}).Info("Prompt variation media uploaded")
	writeJSON(w, http.StatusOK, p)
}

// GET /favorites?type=
func (h *LibraryHandler) FavoritesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	favs, err := h.Service.Favorites(r.Context(), userID, r.URL.Query().Get("type"))
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar seus favoritos.")
		return
	}
	writeJSON(w, http.StatusOK, favs)
}

// POST /favorites/toggle
func (h *LibraryHandler) ToggleFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var body struct {
		ItemType string `json:"item_type"`
		ItemID   string `json:"item_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	itemID, err := services.ParseID(body.ItemID)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	fav, err := h.Service.ToggleFavorite(r.Context(), userID, body.ItemType, itemID)
	if err != nil {
		respondError(w, r, err, "Não foi possível atualizar seus favoritos.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorite": fav})
}
