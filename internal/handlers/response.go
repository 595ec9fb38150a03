package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/n8nhub/community_hub/internal/repository"
	"github.com/n8nhub/community_hub/internal/services"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/n8nhub/community_hub/pkg/middleware"
	"github.com/n8nhub/community_hub/pkg/validation"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type errorBody struct {
	Error  string                  `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

// errorStatus maps a service error to its status code and user facing message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidID):
		return http.StatusBadRequest, "Identificador inválido."
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "Registro não encontrado."
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "Você não tem permissão para esta ação."
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, "E-mail ou senha incorretos."
	case errors.Is(err, services.ErrEmailInUse):
		return http.StatusConflict, "Este e-mail já está em uso."
	case errors.Is(err, services.ErrInvalidToken):
		return http.StatusBadRequest, "Link inválido ou expirado."
	case errors.Is(err, services.ErrChallengeLocked):
		return http.StatusConflict, "Este desafio ainda está bloqueado. Conclua o desafio anterior."
	case errors.Is(err, services.ErrAlreadyActive):
		return http.StatusConflict, "Você já está realizando este desafio."
	case errors.Is(err, services.ErrAlreadyCompleted):
		return http.StatusConflict, "Este desafio já foi concluído."
	case errors.Is(err, services.ErrNotActive):
		return http.StatusConflict, "Nenhuma tentativa em andamento para este desafio."
	case errors.Is(err, services.ErrInfraLocked):
		return http.StatusConflict, "A infraestrutura é necessária para os objetivos selecionados."
	case errors.Is(err, services.ErrInvalidMedia):
		return http.StatusBadRequest, "Arquivo inválido. Verifique o tipo e o tamanho."
	case errors.Is(err, services.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "Upload indisponível no momento."
	case errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict, "Registro duplicado."
	}
	return http.StatusInternalServerError, ""
}

// respondError writes err as JSON. Unknown errors become 500 with fallback
// as the message and are logged.
func respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if ve, ok := validation.AsError(err); ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Dados inválidos.", Fields: ve.Fields})
		return
	}

	status, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error(fallback)
		message = fallback
	}
	writeError(w, status, message)
}

// decodeJSON reads the request body into v, replying 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Log.WithError(err).WithField("path", r.URL.Path).Warn("Invalid request payload")
		writeError(w, http.StatusBadRequest, "Requisição inválida.")
		return false
	}
	return true
}

// pathID parses the mux variable name as an ObjectID, replying 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := services.ParseID(mux.Vars(r)[name])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Identificador inválido.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// currentUserID returns the authenticated user, replying 401 when absent.
func currentUserID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Sessão inválida. Faça login novamente.")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Sessão inválida. Faça login novamente.")
		return primitive.NilObjectID, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int64) int64 {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// splitQuery reads a comma separated query parameter.
func splitQuery(r *http.Request, name string) []string {
	var out []string
	for _, p := range strings.Split(r.URL.Query().Get(name), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}
