package handlers

import (
	"net/http"

	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MentorshipHandler serves the mentor area under /manage/mentees and the
// mentee's own board under /mentorship/me.
type MentorshipHandler struct {
	Service *services.MentorshipService
	Roles   *services.RoleService
}

func NewMentorshipHandler(service *services.MentorshipService, roles *services.RoleService) *MentorshipHandler {
	return &MentorshipHandler{Service: service, Roles: roles}
}

func (h *MentorshipHandler) viewer(w http.ResponseWriter, r *http.Request) (services.Viewer, bool) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return services.Viewer{}, false
	}
	admin, err := h.Roles.HasRole(r.Context(), userID, models.RoleAdmin)
	if err != nil {
		respondError(w, r, err, "Não foi possível verificar suas permissões.")
		return services.Viewer{}, false
	}
	return services.Viewer{UserID: userID, Admin: admin}, true
}

// viewerAndMentee resolves the viewer and the {id} mentee of the route.
func (h *MentorshipHandler) viewerAndMentee(w http.ResponseWriter, r *http.Request) (services.Viewer, primitive.ObjectID, bool) {
	v, ok := h.viewer(w, r)
	if !ok {
		return v, primitive.NilObjectID, false
	}
	menteeID, ok := pathID(w, r, "id")
	return v, menteeID, ok
}

type doneBody struct {
	Done bool `json:"done"`
}

// GET /mentorship/me
func (h *MentorshipHandler) MyMentorshipHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	d, err := h.Service.MyMentorship(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar sua mentoria.")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// PATCH /mentorship/me/todos/{todoId}
func (h *MentorshipHandler) SetMyTodoDoneHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	todoID, ok := pathID(w, r, "todoId")
	if !ok {
		return
	}
	var body doneBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.Service.SetMyTodoDone(r.Context(), userID, todoID, body.Done); err != nil {
		respondError(w, r, err, "Não foi possível atualizar a tarefa.")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// GET /manage/mentees?status=
func (h *MentorshipHandler) ListMenteesHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	list, err := h.Service.ListMentees(r.Context(), v, r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar os mentorados.")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /manage/mentees/{id}
func (h *MentorshipHandler) GetMenteeHandler(w http.ResponseWriter, r *http.Request) {
	v, menteeID, ok := h.viewerAndMentee(w, r)
	if !ok {
		return
	}
	d, err := h.Service.GetMentee(r.Context(), v, menteeID)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar o mentorado.")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// PATCH /manage/mentees/{id}
func (h *MentorshipHandler) UpdateMenteeHandler(w http.ResponseWriter, r *http.Request) {
	v, menteeID, ok := h.viewerAndMentee(w, r)
	if !ok {
		return
	}
	var in services.MenteeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	m, err := h.Service.UpdateMentee(r.Context(), v, menteeID, in)
	if err != nil {
		respondError(w, r, err, "Não foi possível atualizar o mentorado.")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// GET /manage/mentees/{id}/activity?limit=
func (h *MentorshipHandler) ActivityHandler(w http.ResponseWriter, r *http.Request) {
	v, menteeID, ok := h.viewerAndMentee(w, r)
	if !ok {
		return
	}
	acts, err := h.Service.MenteeActivity(r.Context(), v, menteeID, queryInt(r, "limit", 20))
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar as atividades.")
		return
	}
	writeJSON(w, http.StatusOK, acts)
}

// POST /manage/mentees/{id}/stages
func (h *MentorshipHandler) AddStageHandler(w http.ResponseWriter, r *http.Request) {
	v, menteeID, ok := h.viewerAndMentee(w, r)
	if !ok {
		return
	}
	var st models.MentorshipStage
	if !decodeJSON(w, r, &st) {
		return
	}
	created, err := h.Service.AddStage(r.Context(), v, menteeID, &st)
	if err != nil {
		respondError(w, r, err, "Não foi possível criar a etapa.")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DELETE /manage/mentees/{id}/stages/{stageId}
func (h *MentorshipHandler) DeleteStageHandler(w http.ResponseWriter, r *http.Request) {
	v, menteeID, ok := h.viewerAndMentee(w, r)
	if !ok {
		return
	}
	stageID, ok := pathID(w, r, "stageId")
	if !ok {
		return
	}
	if err := h.Service.DeleteStage(r.Context(), v, menteeID, stageID); err != nil {
		respondError(w, r, err, "Não foi possível excluir a etapa.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /manage/mentees/{id}/tasks
func (h *MentorshipHandler) AddTaskHandler(w http.ResponseWriter, r *http.Request) {
	v, menteeID, ok := h.viewerAndMentee(w, r)
	if !ok {
		return
	}
	var t models.MentorshipTask
	if !decodeJSON(w, r, &t) {
		return
	}
	created, err := h.Service.AddTask(r.Context(), v, menteeID, &t)
	if err != nil {
		respondError(w, r, err, "Não foi possível criar a tarefa.")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// PATCH /manage/mentees/{id}/tasks/{taskId}
func (h *MentorshipHandler) SetTaskDoneHandler(w http.ResponseWriter, r *http.Request) {
	v, menteeID, ok := h.viewerAndMentee(w, r)
	if !ok {
		return
	}
	taskID, ok := pathID(w, r, "taskId")
	if !ok {
		return
	}
	var body doneBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.Service.SetTaskDone(r.Context(), v, menteeID, taskID, body.Done); err != nil {
		respondError(w, r, err, "Não foi possível atualizar a tarefa.")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// DELETE /manage/mentees/{id}/tasks/{taskId}
func (h *MentorshipHandler) DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	v, menteeID, ok := h.viewerAndMentee(w, r)
	if !ok {
		return
	}
	taskID, ok := pathID(w, r, "taskId")
	if !ok {
		return
	}
	if err := h.Service.DeleteTask(r.Context(), v, menteeID, taskID); err != nil {
		respondError(w, r, err, "Não foi possível excluir a tarefa.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /manage/mentees/{id}/notes
func (h *MentorshipHandler) AddNoteHandler(w http.ResponseWriter, r *http.Request) {
	v, menteeID, ok := h.viewerAndMentee(w, r)
	if !ok {
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	n, err := h.Service.AddNote(r.Context(), v, menteeID, body.Content)
	if err != nil {
		respondError(w, r, err, "Não foi possível salvar a nota.")
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// DELETE /manage/mentees/{id}/notes/{noteId}
func (h *MentorshipHandler) DeleteNoteHandler(w http.ResponseWriter, r *http.Request) {
	v, menteeID, ok := h.viewerAndMentee(w, r)
	if !ok {
		return
	}
	noteID, ok := pathID(w, r, "noteId")
	if !ok {
		return
	}
	if err := h.Service.DeleteNote(r.Context(), v, menteeID, noteID); err != nil {
		respondError(w, r, err, "Não foi possível excluir a nota.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /manage/mentees/{id}/todos
func (h *MentorshipHandler) AddTodoHandler(w http.ResponseWriter, r *http.Request) {
	v, menteeID, ok := h.viewerAndMentee(w, r)
	if !ok {
		return
	}
	var t models.MenteeTodo
	if !decodeJSON(w, r, &t) {
		return
	}
	created, err := h.Service.AddTodo(r.Context(), v, menteeID, &t)
	if err != nil {
		respondError(w, r, err, "Não foi possível criar o to-do.")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// PATCH /manage/mentees/{id}/todos/{todoId}
func (h *MentorshipHandler) SetTodoDoneHandler(w http.ResponseWriter, r *http.Request) {
	v, menteeID, ok := h.viewerAndMentee(w, r)
	if !ok {
		return
	}
	todoID, ok := pathID(w, r, "todoId")
	if !ok {
		return
	}
	var body doneBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.Service.SetTodoDone(r.Context(), v, menteeID, todoID, body.Done); err != nil {
		respondError(w, r, err, "Não foi possível atualizar o to-do.")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// DELETE /manage/mentees/{id}/todos/{todoId}
func (h *MentorshipHandler) DeleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	v, menteeID, ok := h.viewerAndMentee(w, r)
	if !ok {
		return
	}
	todoID, ok := pathID(w, r, "todoId")
	if !ok {
		return
	}
	if err := h.Service.DeleteTodo(r.Context(), v, menteeID, todoID); err != nil {
		respondError(w, r, err, "Não foi possível excluir o to-do.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
