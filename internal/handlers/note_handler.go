package handlers

import (
	"net/http"

	"github.com/n8nhub/community_hub/internal/services"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/n8nhub/community_hub/pkg/storage"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NoteHandler handles the private notes of the logged in user.
type NoteHandler struct {
	Service *services.NoteService
}

func NewNoteHandler(service *services.NoteService) *NoteHandler {
	return &NoteHandler{Service: service}
}

// GET /notes?lesson_id=
func (h *NoteHandler) ListNotesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var lessonID *primitive.ObjectID
	if v := r.URL.Query().Get("lesson_id"); v != "" {
		id, err := services.ParseID(v)
		if err != nil {
			respondError(w, r, err, "")
			return
		}
		lessonID = &id
	}
	notes, err := h.Service.List(r.Context(), userID, lessonID)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar suas anotações.")
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// POST /notes
func (h *NoteHandler) CreateNoteHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var in services.NoteInput
	if !decodeJSON(w, r, &in) {
		return
	}
	note, err := h.Service.Create(r.Context(), userID, in)
	if err != nil {
		respondError(w, r, err, "Não foi possível criar a anotação.")
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// GET /notes/{id}
func (h *NoteHandler) GetNoteHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	noteID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	note, err := h.Service.Get(r.Context(), userID, noteID)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar a anotação.")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// PATCH /notes/{id}
func (h *NoteHandler) UpdateNoteHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	noteID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in services.NoteInput
	if !decodeJSON(w, r, &in) {
		return
	}
	note, err := h.Service.Update(r.Context(), userID, noteID, in)
	if err != nil {
		respondError(w, r, err, "Não foi possível atualizar a anotação.")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DELETE /notes/{id}
func (h *NoteHandler) DeleteNoteHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	noteID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), userID, noteID); err != nil {
		respondError(w, r, err, "Não foi possível excluir a anotação.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /notes/{id}/media (multipart "file")
func (h *NoteHandler) UploadMediaHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	noteID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	upload, done, ok := readUpload(w, r, storage.NotePolicy.MaxVideoBytes)
	if !ok {
		return
	}
	defer done()

	note, err := h.Service.AttachMedia(r.Context(), userID, noteID, upload)
	if err != nil {
		respondError(w, r, err, "Não foi possível enviar o arquivo.")
		return
	}
	logger.Log.WithFields(logrus.Fields{
		"note_id":      noteID.Hex(),
		"user_id":      userID.Hex(),
		"content_type": upload.ContentType,
	}).Info("Note media uploaded")
	writeJSON(w, http.StatusOK, note)
}

// DELETE /notes/{id}/media?url=
func (h *NoteHandler) RemoveMediaHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	noteID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, http.StatusBadRequest, "Informe a URL do arquivo.")
		return
	}
	if err := h.Service.RemoveMedia(r.Context(), userID, noteID, url); err != nil {
		respondError(w, r, err, "Não foi possível remover o arquivo.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
