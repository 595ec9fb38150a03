package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"
	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/repository"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/n8nhub/community_hub/pkg/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) (*models.User, error)
	UpdateLastActive(ctx context.Context, id primitive.ObjectID, at time.Time) error
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	GetAllUsers(ctx context.Context, limit int64) ([]models.User, error)
}

// Mailer sends plain text email.
type Mailer interface {
	Send(to, subject, body string) error
}

// ResetTokenTTL is how long a password reset link stays valid.
const ResetTokenTTL = time.Hour

type RegisterInput struct {
	Username    string `json:"username" validate:"required,min=3,max=40"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"max=80"`
}

type ProfileInput struct {
	Username    *string `json:"username" validate:"omitempty,min=3,max=40"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=80"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,url"`
}

// UserService encapsulates the business logic for user operations.
type UserService struct {
	repo   UserStore
	mailer Mailer
	appURL string
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo UserStore, mailer Mailer, appURL string) *UserService {
	return &UserService{repo: repo, mailer: mailer, appURL: appURL}
}

// RegisterUser registers a new user after hashing their password.
func (s *UserService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetUserByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		logger.Log.WithField("email", in.Email).Warn("Email already in use")
		return nil, ErrEmailInUse
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.WithError(err).Error("Password hashing failed")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:       in.Username,
		Email:          in.Email,
		DisplayName:    in.DisplayName,
		HashedPassword: string(hashedPwd),
	}
	created, err := s.repo.CreateUser(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrEmailInUse
	}
	if err != nil {
		logger.Log.WithError(err).Error("User registration failed")
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	logger.Log.WithField("userID", created.ID.Hex()).Info("User registered successfully")
	return created, nil
}

// AuthenticateUser verifies the email and password and returns the user if credentials are valid.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		logger.Log.WithField("email", email).Warn("Invalid credentials")
		return nil, ErrInvalidCredentials
	}

	logger.Log.WithField("userID", user.ID.Hex()).Info("User authenticated successfully")
	return user, nil
}

// GetUser retrieves a user by their ID.
func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// UpdateProfile changes the profile fields that are set in in.
func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, in ProfileInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	update := map[string]interface{}{}
	if in.Username != nil {
		update["username"] = strings.TrimSpace(*in.Username)
	}
	if in.DisplayName != nil {
		update["display_name"] = strings.TrimSpace(*in.DisplayName)
	}
	if in.AvatarURL != nil {
		update["avatar_url"] = *in.AvatarURL
	}
	if len(update) == 0 {
		return s.repo.GetUserByID(ctx, id)
	}

	user, err := s.repo.UpdateUser(ctx, id, update)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to update user in service")
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, id primitive.ObjectID, current, next string) error {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	return s.setPassword(ctx, id, next)
}

// RequestPasswordReset emails a reset link. Unknown emails are not reported
// to the caller.
func (s *UserService) RequestPasswordReset(ctx context.Context, userEmail string) error {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(userEmail)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	resetToken := uuid.NewString()
	update := map[string]interface{}{
		"reset_token":     resetToken,
		"reset_token_exp": time.Now().UTC().Add(ResetTokenTTL),
	}
	if _, err := s.repo.UpdateUser(ctx, user.ID, update); err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}

	resetLink := fmt.Sprintf("%s/redefinir-senha?token=%s", s.appURL, resetToken)
	body := fmt.Sprintf("Olá, %s!\n\nClique no link abaixo para redefinir sua senha:\n\n%s\n\nO link expira em 1 hora.", user.Username, resetLink)
	if err := s.mailer.Send(user.Email, "Redefinição de senha", body); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	logger.Log.WithField("userID", user.ID.Hex()).Info("Password reset email sent")
	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidToken
	}
	user, err := s.repo.GetUserByResetToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return err
	}
	if time.Now().After(user.ResetTokenExp) {
		return ErrInvalidToken
	}
	return s.setPassword(ctx, user.ID, newPassword)
}

func (s *UserService) setPassword(ctx context.Context, id primitive.ObjectID, password string) error {
	if len(password) < 8 || len(password) > 72 {
		return validation.NewError("password", "password deve ter entre 8 e 72 caracteres")
	}
	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	update := map[string]interface{}{
		"hashed_password": string(hashedPwd),
		"reset_token":     "",
		"reset_token_exp": time.Time{},
	}
	if _, err := s.repo.UpdateUser(ctx, id, update); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateLastActive is called by the last-active middleware on every
// authenticated request.
func (s *UserService) UpdateLastActive(ctx context.Context, userID string) error {
	id, err := ParseID(userID)
	if err != nil {
		return err
	}
	return s.repo.UpdateLastActive(ctx, id, time.Now().UTC())
}

func (s *UserService) ListUsers(ctx context.Context, limit int64) ([]models.User, error) {
	users, err := s.repo.GetAllUsers(ctx, limit)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// PublicUsers returns the public profiles of ids keyed by ID.
func (s *UserService) PublicUsers(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.PublicUser, error) {
	users, err := s.repo.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]models.PublicUser, len(users))
	for i := range users {
		out[users[i].ID] = users[i].Public()
	}
	return out, nil
}
