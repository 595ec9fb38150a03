package handlers

import (
	"net/http"

	"github.com/n8nhub/community_hub/internal/config"
	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/services"
	jwtutil "github.com/n8nhub/community_hub/pkg/jwt"
	"github.com/n8nhub/community_hub/pkg/logger"
)

// UserHandler handles authentication and profile requests.
type UserHandler struct {
	Service *services.UserService
	Roles   *services.RoleService
	Config  *config.Config
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(service *services.UserService, roles *services.RoleService, cfg *config.Config) *UserHandler {
	return &UserHandler{Service: service, Roles: roles, Config: cfg}
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
	Roles []string     `json:"roles"`
}

func (h *UserHandler) issue(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	token, err := jwtutil.GenerateToken(user.ID.Hex(), user.Email, h.Config.JWTSecret, h.Config.TokenExpiry)
	if err != nil {
		respondError(w, r, err, "Não foi possível iniciar a sessão.")
		return
	}
	roles, err := h.Roles.Roles(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar suas permissões.")
		return
	}
	writeJSON(w, status, authResponse{Token: token, User: user, Roles: roles})
}

// RegisterHandler creates an account and logs it in.
func (h *UserHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}
	user, err := h.Service.RegisterUser(r.Context(), in)
	if err != nil {
		respondError(w, r, err, "Não foi possível criar sua conta.")
		return
	}
	logger.Log.WithField("user_id", user.ID.Hex()).Info("User registered successfully")
	h.issue(w, r, user, http.StatusCreated)
}

// LoginHandler authenticates with email and password.
func (h *UserHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &credentials) {
		return
	}
	user, err := h.Service.AuthenticateUser(r.Context(), credentials.Email, credentials.Password)
	if err != nil {
		logger.Log.WithField("email", credentials.Email).Warn("Authentication failed")
		respondError(w, r, err, "Não foi possível entrar.")
		return
	}
	h.issue(w, r, user, http.StatusOK)
}

// RequestPasswordResetHandler always answers 200 so emails cannot be probed.
func (h *UserHandler) RequestPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.Service.RequestPasswordReset(r.Context(), body.Email); err != nil {
		respondError(w, r, err, "Não foi possível enviar o e-mail de recuperação.")
		return
	}
	writeMessage(w, "Se o e-mail estiver cadastrado, você receberá um link de recuperação.")
}

func (h *UserHandler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.Service.ResetPassword(r.Context(), body.Token, body.Password); err != nil {
		respondError(w, r, err, "Não foi possível redefinir a senha.")
		return
	}
	writeMessage(w, "Senha redefinida com sucesso.")
}

// MeHandler returns the logged in user with their roles.
func (h *UserHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	user, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar seu perfil.")
		return
	}
	roles, err := h.Roles.Roles(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar suas permissões.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user, "roles": roles})
}

func (h *UserHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var in services.ProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}
	user, err := h.Service.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		respondError(w, r, err, "Não foi possível atualizar seu perfil.")
		return
	}
	logger.Log.WithField("user_id", userID.Hex()).Info("Profile updated")
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var body struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.Service.ChangePassword(r.Context(), userID, body.Current, body.New); err != nil {
		respondError(w, r, err, "Não foi possível alterar a senha.")
		return
	}
	writeMessage(w, "Senha alterada com sucesso.")
}

// AdminListUsersHandler lists accounts for the admin screen.
func (h *UserHandler) AdminListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context(), queryInt(r, "limit", 100))
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar os usuários.")
		return
	}
	writeJSON(w, http.StatusOK, users)
}
