package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/services"
)

type ObjectiveHandler struct {
	Service *services.ObjectiveService
}

func NewObjectiveHandler(service *services.ObjectiveService) *ObjectiveHandler {
	return &ObjectiveHandler{Service: service}
}

// GET /objectives/catalog
func (h *ObjectiveHandler) CatalogHandler(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.Catalog(r.Context())
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar os objetivos.")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// GET /objectives/me
func (h *ObjectiveHandler) SelectionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	sel, err := h.Service.Selection(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar seus objetivos.")
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// PUT /objectives/me
func (h *ObjectiveHandler) SaveHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var body struct {
		Keys []string `json:"keys"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	sel, err := h.Service.Save(r.Context(), userID, body.Keys)
	if err != nil {
		respondError(w, r, err, "Não foi possível salvar seus objetivos.")
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// POST /objectives/me/toggle
func (h *ObjectiveHandler) ToggleHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var body struct {
		Key string `json:"key"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	sel, err := h.Service.Toggle(r.Context(), userID, body.Key)
	if err != nil {
		respondError(w, r, err, "Não foi possível atualizar seus objetivos.")
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// PUT /admin/objectives/groups
func (h *ObjectiveHandler) UpsertGroupHandler(w http.ResponseWriter, r *http.Request) {
	var g models.ObjectiveGroup
	if !decodeJSON(w, r, &g) {
		return
	}
	if err := h.Service.UpsertGroup(r.Context(), &g); err != nil {
		respondError(w, r, err, "Não foi possível salvar o grupo.")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// PUT /admin/objectives/items
func (h *ObjectiveHandler) UpsertItemHandler(w http.ResponseWriter, r *http.Request) {
	var it models.ObjectiveItem
	if !decodeJSON(w, r, &it) {
		return
	}
	if err := h.Service.UpsertItem(r.Context(), &it); err != nil {
		respondError(w, r, err, "Não foi possível salvar o objetivo.")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// GET /admin/objectives/links
func (h *ObjectiveHandler) LinksHandler(w http.ResponseWriter, r *http.Request) {
	links, err := h.Service.Links(r.Context())
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar os vínculos.")
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// POST /admin/objectives/links
func (h *ObjectiveHandler) LinkHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ObjectiveKey string `json:"objective_key"`
		ChallengeID  string `json:"challenge_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	challengeID, err := services.ParseID(body.ChallengeID)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := h.Service.LinkChallenge(r.Context(), body.ObjectiveKey, challengeID); err != nil {
		respondError(w, r, err, "Não foi possível vincular o desafio.")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"objective_key": body.ObjectiveKey,
		"challenge_id":  challengeID.Hex(),
	})
}

// DELETE /admin/objectives/links/{key}/{challengeId}
func (h *ObjectiveHandler) UnlinkHandler(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := pathID(w, r, "challengeId")
	if !ok {
		return
	}
	if err := h.Service.UnlinkChallenge(r.Context(), mux.Vars(r)["key"], challengeID); err != nil {
		respondError(w, r, err, "Não foi possível remover o vínculo.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
