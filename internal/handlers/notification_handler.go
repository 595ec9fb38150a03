package handlers

import (
	"net/http"

	"github.com/n8nhub/community_hub/internal/services"
)

type NotificationHandler struct {
	Service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

// GET /notifications
func (h *NotificationHandler) GetUserNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	notifications, err := h.Service.GetUserNotifications(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar as notificações.")
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

// POST /notifications/{id}/read
func (h *NotificationHandler) MarkAsReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	notifID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.MarkNotificationAsRead(r.Context(), userID, notifID); err != nil {
		respondError(w, r, err, "Não foi possível marcar como lida.")
		return
	}
	writeMessage(w, "Notificação marcada como lida.")
}

// POST /notifications/read-all
func (h *NotificationHandler) MarkAllAsReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if err := h.Service.MarkAllAsRead(r.Context(), userID); err != nil {
		respondError(w, r, err, "Não foi possível marcar as notificações como lidas.")
		return
	}
	writeMessage(w, "Notificações marcadas como lidas.")
}

// DELETE /notifications/{id}
func (h *NotificationHandler) DeleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	notifID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteNotification(r.Context(), userID, notifID); err != nil {
		respondError(w, r, err, "Não foi possível excluir a notificação.")
		return
	}
	writeMessage(w, "Notificação excluída.")
}
