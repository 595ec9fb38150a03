package handlers

import (
	"net/http"

	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/services"
)

type GamificationHandler struct {
	Service *services.GamificationService
}

func NewGamificationHandler(service *services.GamificationService) *GamificationHandler {
	return &GamificationHandler{Service: service}
}

// GET /gamification/me
func (h *GamificationHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	sum, err := h.Service.Summary(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar sua pontuação.")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// GET /gamification/me/badges
func (h *GamificationHandler) MyBadgesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	badges, err := h.Service.UserBadges(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar suas conquistas.")
		return
	}
	writeJSON(w, http.StatusOK, badges)
}

// GET /gamification/leaderboard?limit=
func (h *GamificationHandler) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	board, err := h.Service.Leaderboard(r.Context(), queryInt(r, "limit", 10))
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar o ranking.")
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// GET /gamification/badges
func (h *GamificationHandler) BadgesHandler(w http.ResponseWriter, r *http.Request) {
	badges, err := h.Service.ListBadges(r.Context(), true)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar as conquistas.")
		return
	}
	writeJSON(w, http.StatusOK, badges)
}

// GET /admin/badges
func (h *GamificationHandler) AdminBadgesHandler(w http.ResponseWriter, r *http.Request) {
	badges, err := h.Service.ListBadges(r.Context(), false)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar as conquistas.")
		return
	}
	writeJSON(w, http.StatusOK, badges)
}

// POST /admin/badges
func (h *GamificationHandler) CreateBadgeHandler(w http.ResponseWriter, r *http.Request) {
	var b models.Badge
	if !decodeJSON(w, r, &b) {
		return
	}
	created, err := h.Service.CreateBadge(r.Context(), &b)
	if err != nil {
		respondError(w, r, err, "Não foi possível criar a conquista.")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// PUT /admin/badges/{id}
func (h *GamificationHandler) UpdateBadgeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var b models.Badge
	if !decodeJSON(w, r, &b) {
		return
	}
	b.ID = id
	if err := h.Service.UpdateBadge(r.Context(), &b); err != nil {
		respondError(w, r, err, "Não foi possível atualizar a conquista.")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// DELETE /admin/badges/{id}
func (h *GamificationHandler) DeleteBadgeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteBadge(r.Context(), id); err != nil {
		respondError(w, r, err, "Não foi possível excluir a conquista.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
