package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anonto42/memomap/backend/internal/models"
)

var allRoles = []models.Role{models.RoleOwner, models.RoleAdmin, models.RoleEditor, models.RoleViewer}

func TestCanChangeRole(t *testing.T) {
	tests := []struct {
		actor, target models.Role
		want          bool
	}{
		{models.RoleOwner, models.RoleOwner, false},
		{models.RoleOwner, models.RoleAdmin, true},
		{models.RoleOwner, models.RoleEditor, true},
		{models.RoleOwner, models.RoleViewer, true},
		{models.RoleAdmin, models.RoleOwner, false},
		{models.RoleAdmin, models.RoleAdmin, false},
		{models.RoleAdmin, models.RoleEditor, true},
		{models.RoleAdmin, models.RoleViewer, true},
		{models.RoleEditor, models.RoleViewer, false},
		{models.RoleViewer, models.RoleViewer, false},
	}
	for _, tt := range tests {
		got := CanChangeRole(tt.actor, tt.target, 1, 2)
		assert.Equal(t, tt.want, got, "%s -> %s", tt.actor, tt.target)
	}
}

func TestCanChangeRoleRejectsSelf(t *testing.T) {
	for _, r := range allRoles {
		assert.False(t, CanChangeRole(r, r, 7, 7), "self edit as %s", r)
	}
}

func TestCanAssignRole(t *testing.T) {
	assert.False(t, CanAssignRole(models.RoleOwner, models.RoleOwner))
	assert.True(t, CanAssignRole(models.RoleOwner, models.RoleAdmin))
	assert.True(t, CanAssignRole(models.RoleOwner, models.RoleViewer))

	assert.False(t, CanAssignRole(models.RoleAdmin, models.RoleOwner))
	assert.False(t, CanAssignRole(models.RoleAdmin, models.RoleAdmin))
	assert.True(t, CanAssignRole(models.RoleAdmin, models.RoleEditor))
	assert.True(t, CanAssignRole(models.RoleAdmin, models.RoleViewer))

	for _, r := range allRoles {
		assert.False(t, CanAssignRole(models.RoleEditor, r))
		assert.False(t, CanAssignRole(models.RoleViewer, r))
	}
}

func TestCanRemoveMember(t *testing.T) {
	for _, r := range allRoles {
		assert.True(t, CanRemoveMember(r, r, 3, 3), "%s may leave", r)
	}
	assert.True(t, CanRemoveMember(models.RoleOwner, models.RoleAdmin, 1, 2))
	assert.False(t, CanRemoveMember(models.RoleAdmin, models.RoleAdmin, 1, 2))
	assert.False(t, CanRemoveMember(models.RoleAdmin, models.RoleOwner, 1, 2))
	assert.True(t, CanRemoveMember(models.RoleAdmin, models.RoleViewer, 1, 2))
	assert.False(t, CanRemoveMember(models.RoleEditor, models.RoleViewer, 1, 2))
}

func TestMemoPermissions(t *testing.T) {
	assert.True(t, CanWriteMemos(models.RoleEditor))
	assert.False(t, CanWriteMemos(models.RoleViewer))
	assert.False(t, CanWriteMemos(models.Role("")))
	assert.True(t, CanModerateMemos(models.RoleAdmin))
	assert.False(t, CanModerateMemos(models.RoleEditor))
}

func TestOutranks(t *testing.T) {
	assert.True(t, Outranks(models.RoleOwner, models.RoleAdmin))
	assert.True(t, Outranks(models.RoleEditor, models.RoleViewer))
	assert.False(t, Outranks(models.RoleViewer, models.RoleViewer))
}
