package services

import (
	"context"
	"sort"

	lru "github.com/hashicorp/golang-lru"
	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/n8nhub/community_hub/pkg/validation"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RoleStore interface {
	GetRoles(ctx context.Context, userID primitive.ObjectID) ([]string, error)
	GrantRole(ctx context.Context, userID primitive.ObjectID, role string, grantedBy primitive.ObjectID) (bool, error)
	RevokeRole(ctx context.Context, userID primitive.ObjectID, role string) (bool, error)
	GetUserIDsByRole(ctx context.Context, role string) ([]primitive.ObjectID, error)
	AddHistory(ctx context.Context, entry *models.RoleHistory) error
	GetHistory(ctx context.Context, userID primitive.ObjectID) ([]models.RoleHistory, error)
}

// MenteeLifecycle reacts to the mentee role being granted or revoked.
type MenteeLifecycle interface {
	ActivateMentee(ctx context.Context, userID primitive.ObjectID) error
	DeactivateMentee(ctx context.Context, userID primitive.ObjectID) error
}

// RoleService answers role checks from an LRU cache in front of the
// user_roles collection. Every user implicitly holds the "user" role.
type RoleService struct {
	repo    RoleStore
	mentees MenteeLifecycle
	cache   *lru.Cache
}

func NewRoleService(repo RoleStore, mentees MenteeLifecycle, cacheSize int) *RoleService {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, _ := lru.New(cacheSize)
	return &RoleService{repo: repo, mentees: mentees, cache: cache}
}

// Roles returns the sorted roles of a user.
func (s *RoleService) Roles(ctx context.Context, userID primitive.ObjectID) ([]string, error) {
	if cached, ok := s.cache.Get(userID); ok {
		return cached.([]string), nil
	}

	roles, err := s.repo.GetRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	hasUser := false
	for _, r := range roles {
		if r == models.RoleUser {
			hasUser = true
		}
	}
	if !hasUser {
		roles = append(roles, models.RoleUser)
	}
	sort.Strings(roles)

	s.cache.Add(userID, roles)
	return roles, nil
}

// HasRole reports whether the user holds role.
func (s *RoleService) HasRole(ctx context.Context, userID primitive.ObjectID, role string) (bool, error) {
	roles, err := s.Roles(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, r := range roles {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

// HasAnyRole is used by the RequireRole middleware.
func (s *RoleService) HasAnyRole(ctx context.Context, userID string, roles ...string) (bool, error) {
	id, err := ParseID(userID)
	if err != nil {
		return false, err
	}
	for _, role := range roles {
		ok, err := s.HasRole(ctx, id, role)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// Grant gives role to userID. Granting mentee creates or reactivates the
// mentee profile.
func (s *RoleService) Grant(ctx context.Context, actorID, userID primitive.ObjectID, role string) error {
	if !models.ValidRole(role) || role == models.RoleUser {
		return validation.NewError("role", "papel inválido")
	}

	created, err := s.repo.GrantRole(ctx, userID, role, actorID)
	if err != nil {
		return err
	}
	s.cache.Remove(userID)

	if role == models.RoleMentee && s.mentees != nil {
		if err := s.mentees.ActivateMentee(ctx, userID); err != nil {
			return err
		}
	}
	if !created {
		return nil
	}

	s.recordHistory(ctx, userID, role, models.RoleActionGranted, actorID)
	logger.Log.WithFields(logrus.Fields{"user_id": userID.Hex(), "role": role}).Info("Role granted")
	return nil
}

// Revoke removes role from userID. Revoking mentee keeps the mentee profile
// and marks it inactive.
func (s *RoleService) Revoke(ctx context.Context, actorID, userID primitive.ObjectID, role string) error {
	if !models.ValidRole(role) || role == models.RoleUser {
		return validation.NewError("role", "papel inválido")
	}

	removed, err := s.repo.RevokeRole(ctx, userID, role)
	if err != nil {
		return err
	}
	s.cache.Remove(userID)

	if role == models.RoleMentee && s.mentees != nil {
		if err := s.mentees.DeactivateMentee(ctx, userID); err != nil {
			return err
		}
	}
	if !removed {
		return nil
	}

	s.recordHistory(ctx, userID, role, models.RoleActionRevoked, actorID)
	logger.Log.WithFields(logrus.Fields{"user_id": userID.Hex(), "role": role}).Info("Role revoked")
	return nil
}

func (s *RoleService) recordHistory(ctx context.Context, userID primitive.ObjectID, role, action string, actorID primitive.ObjectID) {
	entry := &models.RoleHistory{UserID: userID, Role: role, Action: action, ActorID: actorID}
	if err := s.repo.AddHistory(ctx, entry); err != nil {
		logger.Log.WithError(err).Warn("Failed to record role history")
	}
}

func (s *RoleService) History(ctx context.Context, userID primitive.ObjectID) ([]models.RoleHistory, error) {
	entries, err := s.repo.GetHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.RoleHistory{}
	}
	return entries, nil
}

// UsersWithRole lists the IDs of the users holding role.
func (s *RoleService) UsersWithRole(ctx context.Context, role string) ([]primitive.ObjectID, error) {
	if !models.ValidRole(role) {
		return nil, validation.NewError("role", "papel inválido")
	}
	return s.repo.GetUserIDsByRole(ctx, role)
}
