package handlers

import (
	"net/http"

	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/services"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/sirupsen/logrus"
)

// CourseHandler serves modules and lessons. Learner routes only see
// published modules; the admin routes include drafts.
type CourseHandler struct {
	Service *services.CourseService
}

func NewCourseHandler(service *services.CourseService) *CourseHandler {
	return &CourseHandler{Service: service}
}

func (h *CourseHandler) listModules(w http.ResponseWriter, r *http.Request, includeDrafts bool) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	modules, err := h.Service.Modules(r.Context(), userID, includeDrafts)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar os cursos.")
		return
	}
	writeJSON(w, http.StatusOK, modules)
}

func (h *CourseHandler) getModule(w http.ResponseWriter, r *http.Request, includeDrafts bool) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	moduleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	module, err := h.Service.Module(r.Context(), userID, moduleID, includeDrafts)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar o módulo.")
		return
	}
	writeJSON(w, http.StatusOK, module)
}

// GET /courses/modules
func (h *CourseHandler) ListModulesHandler(w http.ResponseWriter, r *http.Request) {
	h.listModules(w, r, false)
}

// GET /courses/modules/{id}
func (h *CourseHandler) GetModuleHandler(w http.ResponseWriter, r *http.Request) {
	h.getModule(w, r, false)
}

// GET /admin/courses/modules
func (h *CourseHandler) AdminListModulesHandler(w http.ResponseWriter, r *http.Request) {
	h.listModules(w, r, true)
}

// GET /admin/courses/modules/{id}
func (h *CourseHandler) AdminGetModuleHandler(w http.ResponseWriter, r *http.Request) {
	h.getModule(w, r, true)
}

func (h *CourseHandler) getLesson(w http.ResponseWriter, r *http.Request, includeDrafts bool) {
	lessonID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lesson, err := h.Service.GetLesson(r.Context(), lessonID, includeDrafts)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar a aula.")
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

// GET /courses/lessons/{id}
func (h *CourseHandler) GetLessonHandler(w http.ResponseWriter, r *http.Request) {
	h.getLesson(w, r, false)
}

// GET /admin/courses/lessons/{id}
func (h *CourseHandler) AdminGetLessonHandler(w http.ResponseWriter, r *http.Request) {
	h.getLesson(w, r, true)
}

// POST /courses/lessons/{id}/complete
func (h *CourseHandler) CompleteLessonHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	lessonID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := h.Service.CompleteLesson(r.Context(), userID, lessonID)
	if err != nil {
		respondError(w, r, err, "Não foi possível concluir a aula.")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /admin/courses/modules
func (h *CourseHandler) CreateModuleHandler(w http.ResponseWriter, r *http.Request) {
	var m models.Module
	if !decodeJSON(w, r, &m) {
		return
	}
	created, err := h.Service.CreateModule(r.Context(), &m)
	if err != nil {
		respondError(w, r, err, "Não foi possível criar o módulo.")
		return
	}
	logger.Log.WithField("module_id", created.ID.Hex()).Info("Module created")
	writeJSON(w, http.StatusCreated, created)
}

// PUT /admin/courses/modules/{id}
func (h *CourseHandler) UpdateModuleHandler(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var m models.Module
	if !decodeJSON(w, r, &m) {
		return
	}
	m.ID = moduleID
	if err := h.Service.UpdateModule(r.Context(), &m); err != nil {
		respondError(w, r, err, "Não foi possível atualizar o módulo.")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// DELETE /admin/courses/modules/{id}
func (h *CourseHandler) DeleteModuleHandler(w http.ResponseWriter, r *http.Request) {
	moduleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteModule(r.Context(), moduleID); err != nil {
		respondError(w, r, err, "Não foi possível excluir o módulo.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /admin/courses/lessons
func (h *CourseHandler) CreateLessonHandler(w http.ResponseWriter, r *http.Request) {
	var l models.Lesson
	if !decodeJSON(w, r, &l) {
		return
	}
	created, err := h.Service.CreateLesson(r.Context(), &l)
	if err != nil {
		respondError(w, r, err, "Não foi possível criar a aula.")
		return
	}
	logger.Log.WithFields(logrus.Fields{
		"lesson_id": created.ID.Hex(),
		"module_id": created.ModuleID.Hex(),
	}).Info("Lesson created")
	writeJSON(w, http.StatusCreated, created)
}

// PUT /admin/courses/lessons/{id}
func (h *CourseHandler) UpdateLessonHandler(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var l models.Lesson
	if !decodeJSON(w, r, &l) {
		return
	}
	l.ID = lessonID
	if err := h.Service.UpdateLesson(r.Context(), &l); err != nil {
		respondError(w, r, err, "Não foi possível atualizar a aula.")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// DELETE /admin/courses/lessons/{id}
func (h *CourseHandler) DeleteLessonHandler(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteLesson(r.Context(), lessonID); err != nil {
		respondError(w, r, err, "Não foi possível excluir a aula.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
