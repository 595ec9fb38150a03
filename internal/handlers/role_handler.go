package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/n8nhub/community_hub/internal/services"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/sirupsen/logrus"
)

// RoleHandler exposes role administration. All routes are admin only.
type RoleHandler struct {
	Service *services.RoleService
}

func NewRoleHandler(service *services.RoleService) *RoleHandler {
	return &RoleHandler{Service: service}
}

// GET /admin/users/{id}/roles
func (h *RoleHandler) GetRolesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	roles, err := h.Service.Roles(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar os papéis.")
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

// POST /admin/users/{id}/roles
func (h *RoleHandler) GrantHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Role string `json:"role"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.Service.Grant(r.Context(), actorID, userID, body.Role); err != nil {
		respondError(w, r, err, "Não foi possível conceder o papel.")
		return
	}
	logger.Log.WithFields(logrus.Fields{
		"actor_id": actorID.Hex(),
		"user_id":  userID.Hex(),
		"role":     body.Role,
	}).Info("Role grant requested")
	h.GetRolesHandler(w, r)
}

// DELETE /admin/users/{id}/roles/{role}
func (h *RoleHandler) RevokeHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Revoke(r.Context(), actorID, userID, mux.Vars(r)["role"]); err != nil {
		respondError(w, r, err, "Não foi possível remover o papel.")
		return
	}
	h.GetRolesHandler(w, r)
}

// GET /admin/users/{id}/roles/history
func (h *RoleHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.Service.History(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar o histórico.")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GET /admin/roles/{role}/users
func (h *RoleHandler) UsersWithRoleHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Service.UsersWithRole(r.Context(), mux.Vars(r)["role"])
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar os usuários.")
		return
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	writeJSON(w, http.StatusOK, out)
}
