package handlers

import (
	"net/http"
	"time"

	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/services"
)

// DashboardHandler serves the learner home screen and its admin settings.
type DashboardHandler struct {
	Service    *services.DashboardService
	Activities *services.ActivityService
}

func NewDashboardHandler(service *services.DashboardService, activities *services.ActivityService) *DashboardHandler {
	return &DashboardHandler{Service: service, Activities: activities}
}

// GET /dashboard
func (h *DashboardHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Service.Summary(r.Context(), userID))
}

// GET /dashboard/banners
func (h *DashboardHandler) BannersHandler(w http.ResponseWriter, r *http.Request) {
	banners, err := h.Service.Banners(r.Context())
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar os avisos.")
		return
	}
	writeJSON(w, http.StatusOK, banners)
}

// GET /dashboard/sidebar
func (h *DashboardHandler) SidebarHandler(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.Sidebar(r.Context(), false)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar o menu.")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GET /activities?limit=&type=a,b&before=RFC3339
func (h *DashboardHandler) ActivitiesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	f := models.ActivityFilter{
		UserID: userID,
		Types:  splitQuery(r, "type"),
		Limit:  queryInt(r, "limit", 20),
	}
	if v := r.URL.Query().Get("before"); v != "" {
		before, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Parâmetro 'before' inválido.")
			return
		}
		f.Before = before
	}
	acts, err := h.Activities.Feed(r.Context(), f)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar suas atividades.")
		return
	}
	writeJSON(w, http.StatusOK, acts)
}

// GET /admin/banners
func (h *DashboardHandler) AdminBannersHandler(w http.ResponseWriter, r *http.Request) {
	banners, err := h.Service.AllBanners(r.Context())
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar os avisos.")
		return
	}
	writeJSON(w, http.StatusOK, banners)
}

// POST /admin/banners
func (h *DashboardHandler) CreateBannerHandler(w http.ResponseWriter, r *http.Request) {
	var b models.DashboardBanner
	if !decodeJSON(w, r, &b) {
		return
	}
	created, err := h.Service.CreateBanner(r.Context(), &b)
	if err != nil {
		respondError(w, r, err, "Não foi possível criar o aviso.")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// PUT /admin/banners/{id}
func (h *DashboardHandler) UpdateBannerHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var b models.DashboardBanner
	if !decodeJSON(w, r, &b) {
		return
	}
	b.ID = id
	if err := h.Service.UpdateBanner(r.Context(), &b); err != nil {
		respondError(w, r, err, "Não foi possível atualizar o aviso.")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// DELETE /admin/banners/{id}
func (h *DashboardHandler) DeleteBannerHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteBanner(r.Context(), id); err != nil {
		respondError(w, r, err, "Não foi possível excluir o aviso.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /admin/sidebar
func (h *DashboardHandler) AdminSidebarHandler(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.Sidebar(r.Context(), true)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar o menu.")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// PUT /admin/sidebar
func (h *DashboardHandler) SaveSidebarHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Items []models.SidebarItem `json:"items"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	items, err := h.Service.SaveSidebar(r.Context(), body.Items)
	if err != nil {
		respondError(w, r, err, "Não foi possível salvar o menu.")
		return
	}
	writeJSON(w, http.StatusOK, items)
}
