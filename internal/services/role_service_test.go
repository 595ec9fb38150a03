package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n8nhub/community_hub/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeRoleStore struct {
	roles   map[primitive.ObjectID]map[string]bool
	history []models.RoleHistory
	reads   int
}

func newFakeRoleStore() *fakeRoleStore {
	return &fakeRoleStore{roles: map[primitive.ObjectID]map[string]bool{}}
}

func (f *fakeRoleStore) GetRoles(ctx context.Context, userID primitive.ObjectID) ([]string, error) {
	f.reads++
	var out []string
	for r := range f.roles[userID] {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRoleStore) GrantRole(ctx context.Context, userID primitive.ObjectID, role string, grantedBy primitive.ObjectID) (bool, error) {
	if f.roles[userID] == nil {
		f.roles[userID] = map[string]bool{}
	}
	if f.roles[userID][role] {
		return false, nil
	}
	f.roles[userID][role] = true
	return true, nil
}

func (f *fakeRoleStore) RevokeRole(ctx context.Context, userID primitive.ObjectID, role string) (bool, error) {
	if !f.roles[userID][role] {
		return false, nil
	}
	delete(f.roles[userID], role)
	return true, nil
}

func (f *fakeRoleStore) GetUserIDsByRole(ctx context.Context, role string) ([]primitive.ObjectID, error) {
	var out []primitive.ObjectID
	for id, roles := range f.roles {
		if roles[role] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeRoleStore) AddHistory(ctx context.Context, entry *models.RoleHistory) error {
	f.history = append(f.history, *entry)
	return nil
}

func (f *fakeRoleStore) GetHistory(ctx context.Context, userID primitive.ObjectID) ([]models.RoleHistory, error) {
	return f.history, nil
}

type fakeLifecycle struct {
	activated, deactivated int
}

func (f *fakeLifecycle) ActivateMentee(ctx context.Context, userID primitive.ObjectID) error {
	f.activated++
	return nil
}

func (f *fakeLifecycle) DeactivateMentee(ctx context.Context, userID primitive.ObjectID) error {
	f.deactivated++
	return nil
}

func TestRolesIncludeImplicitUser(t *testing.T) {
	store := newFakeRoleStore()
	svc := NewRoleService(store, nil, 16)
	user := primitive.NewObjectID()

	roles, err := svc.Roles(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleUser}, roles)

	ok, err := svc.HasAnyRole(context.Background(), user.Hex(), models.RoleAdmin, models.RoleUser)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRolesAreCachedUntilChanged(t *testing.T) {
	store := newFakeRoleStore()
	svc := NewRoleService(store, nil, 16)
	ctx := context.Background()
	user, admin := primitive.NewObjectID(), primitive.NewObjectID()

	_, _ = svc.Roles(ctx, user)
	_, _ = svc.Roles(ctx, user)
	assert.Equal(t, 1, store.reads)

	require.NoError(t, svc.Grant(ctx, admin, user, models.RoleMentor))
	ok, err := svc.HasRole(ctx, user, models.RoleMentor)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, store.reads)
}

func TestMenteeRoleDrivesLifecycle(t *testing.T) {
	store := newFakeRoleStore()
	lifecycle := &fakeLifecycle{}
	svc := NewRoleService(store, lifecycle, 16)
	ctx := context.Background()
	user, admin := primitive.NewObjectID(), primitive.NewObjectID()

	require.NoError(t, svc.Grant(ctx, admin, user, models.RoleMentee))
	require.NoError(t, svc.Grant(ctx, admin, user, models.RoleMentee))
	assert.Equal(t, 2, lifecycle.activated)
	require.Len(t, store.history, 1)
	assert.Equal(t, models.RoleActionGranted, store.history[0].Action)
	assert.Equal(t, admin, store.history[0].ActorID)

	require.NoError(t, svc.Revoke(ctx, admin, user, models.RoleMentee))
	assert.Equal(t, 1, lifecycle.deactivated)
	require.Len(t, store.history, 2)
	assert.Equal(t, models.RoleActionRevoked, store.history[1].Action)

	ok, err := svc.HasRole(ctx, user, models.RoleMentee)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGrantRejectsInvalidRoles(t *testing.T) {
	svc := NewRoleService(newFakeRoleStore(), nil, 16)
	ctx := context.Background()

	assert.Error(t, svc.Grant(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "superuser"))
	assert.Error(t, svc.Grant(ctx, primitive.NewObjectID(), primitive.NewObjectID(), models.RoleUser))
}
