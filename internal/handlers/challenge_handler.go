package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/services"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/sirupsen/logrus"
)

// ChallengeHandler handles daily challenge requests.
type ChallengeHandler struct {
	Service *services.ChallengeService
}

func NewChallengeHandler(service *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{Service: service}
}

// GET /challenges/tracks
func (h *ChallengeHandler) TracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.Service.Tracks(r.Context())
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar as trilhas.")
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// GET /challenges/tracks/{track}
func (h *ChallengeHandler) TrackHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	view, err := h.Service.Track(r.Context(), userID, mux.Vars(r)["track"])
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar a trilha.")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GET /challenges/progress
func (h *ChallengeHandler) ProgressHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	progress, err := h.Service.Progress(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar seu progresso.")
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// GET /challenges/recommended
func (h *ChallengeHandler) RecommendedHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	recs, err := h.Service.Recommended(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar as recomendações.")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// GET /challenges/{id}
func (h *ChallengeHandler) GetChallengeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.Service.GetChallenge(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar o desafio.")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// GET /challenges/{id}/attempt
func (h *ChallengeHandler) AttemptHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	attempt, err := h.Service.CurrentAttempt(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar a tentativa.")
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

// POST /challenges/{id}/start
func (h *ChallengeHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	attempt, err := h.Service.Start(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err, "Não foi possível iniciar o desafio.")
		return
	}
	writeJSON(w, http.StatusCreated, attempt)
}

// POST /challenges/{id}/complete
func (h *ChallengeHandler) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := h.Service.Complete(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err, "Não foi possível concluir o desafio.")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /manage/challenges?track=
func (h *ChallengeHandler) ListChallengesHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListChallenges(r.Context(), r.URL.Query().Get("track"))
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar os desafios.")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /manage/challenges
func (h *ChallengeHandler) CreateChallengeHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var c models.DailyChallenge
	if !decodeJSON(w, r, &c) {
		return
	}
	created, err := h.Service.CreateChallenge(r.Context(), actorID, &c)
	if err != nil {
		respondError(w, r, err, "Não foi possível criar o desafio.")
		return
	}
	logger.Log.WithFields(logrus.Fields{
		"challenge_id": created.ID.Hex(),
		"track":        created.Track,
		"actor_id":     actorID.Hex(),
	}).Info("Challenge created")
	writeJSON(w, http.StatusCreated, created)
}

// PUT /manage/challenges/{id}
func (h *ChallengeHandler) UpdateChallengeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var c models.DailyChallenge
	if !decodeJSON(w, r, &c) {
		return
	}
	c.ID = id
	if err := h.Service.UpdateChallenge(r.Context(), &c); err != nil {
		respondError(w, r, err, "Não foi possível atualizar o desafio.")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// PUT /manage/challenges/{id}/link
func (h *ChallengeHandler) UpdateLinkHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.LinkInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.Service.UpdateLink(r.Context(), id, in)
	if err != nil {
		respondError(w, r, err, "Não foi possível atualizar a ordem do desafio.")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DELETE /manage/challenges/{id}
func (h *ChallengeHandler) DeleteChallengeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteChallenge(r.Context(), id); err != nil {
		respondError(w, r, err, "Não foi possível excluir o desafio.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
