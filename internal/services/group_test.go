package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/memomap/backend/internal/models"
)

func TestCreateGroup_TripScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2, u3 := f.user(t, "u1"), f.user(t, "u2"), f.user(t, "u3")

	g, err := f.groups.CreateGroup(ctx, "  Trip  ", u1.ID, []uint{u2.ID, u3.ID, u2.ID, u1.ID})
	require.NoError(t, err)
	assert.Equal(t, "Trip", g.Name)
	assert.Equal(t, u1.ID, g.OwnerID)
	assert.Equal(t, models.RoleOwner, g.Role)
	assert.EqualValues(t, 3, g.MemberCount)

	members, err := f.groups.ListMembers(ctx, g.ID, u2.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)

	owners := 0
	roles := map[uint]models.Role{}
	for _, m := range members {
		roles[m.User.ID] = m.Role
		if m.Role == models.RoleOwner {
			owners++
		}
	}
	assert.Equal(t, 1, owners, "exactly one owner")
	assert.Equal(t, models.RoleOwner, roles[u1.ID])
	assert.Equal(t, models.RoleViewer, roles[u2.ID])
	assert.Equal(t, models.RoleViewer, roles[u3.ID])

	assert.Len(t, f.notifier.ofType(models.NotificationGroupInvite), 2)
}

func TestCreateGroup_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := f.user(t, "u1")

	_, err := f.groups.CreateGroup(ctx, "   ", u1.ID, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.groups.CreateGroup(ctx, "ghosts", u1.ID, []uint{9999})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Zero(t, f.countRows(t, &models.Group{}, "1 = 1"))
}

func TestCreateGroup_CreateCapAppliesToEveryParticipant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, busy := f.user(t, "owner"), f.user(t, "busy")

	for i := 0; i < 3; i++ {
		_, err := f.groups.CreateGroup(ctx, "g", busy.ID, nil)
		require.NoError(t, err)
	}

	_, err := f.groups.CreateGroup(ctx, "fourth", owner.ID, []uint{busy.ID})
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.Zero(t, f.countRows(t, &models.GroupMember{}, "user_id = ?", owner.ID), "nothing created")

	_, err = f.groups.CreateGroup(ctx, "fourth", busy.ID, nil)
	assert.ErrorIs(t, err, ErrLimitExceeded)
}

func TestAddMember_SixthGroupRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	joiner := f.user(t, "joiner")

	var groupIDs []uint
	for i := 0; i < 6; i++ {
		owner := f.user(t, "owner"+string(rune('a'+i)))
		g, err := f.groups.CreateGroup(ctx, "g", owner.ID, nil)
		require.NoError(t, err)
		groupIDs = append(groupIDs, g.ID)
		if i < 5 {
			_, err = f.groups.AddMember(ctx, g.ID, owner.ID, joiner.ID)
			require.NoError(t, err)
		}
	}

	sixth := groupIDs[5]
	var sixthOwner models.Group
	require.NoError(t, f.db.First(&sixthOwner, sixth).Error)

	_, err := f.groups.AddMember(ctx, sixth, sixthOwner.OwnerID, joiner.ID)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.Zero(t, f.countRows(t, &models.GroupMember{}, "group_id = ? AND user_id = ?", sixth, joiner.ID))
	assert.EqualValues(t, 5, f.countRows(t, &models.GroupMember{}, "user_id = ?", joiner.ID))
}

func TestAddMember_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, viewer, other := f.user(t, "owner"), f.user(t, "viewer"), f.user(t, "other")
	outsider := f.user(t, "outsider")

	g, err := f.groups.CreateGroup(ctx, "g", owner.ID, []uint{viewer.ID})
	require.NoError(t, err)

	_, err = f.groups.AddMember(ctx, g.ID, viewer.ID, other.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.groups.AddMember(ctx, g.ID, outsider.ID, other.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.groups.AddMember(ctx, g.ID, owner.ID, viewer.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.groups.AddMember(ctx, g.ID, owner.ID, 4242)
	assert.ErrorIs(t, err, ErrNotFound)

	m, err := f.groups.AddMember(ctx, g.ID, owner.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, m.Role)
}

func TestUpdateRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, admin, admin2, editor, viewer := f.user(t, "owner"), f.user(t, "admin"), f.user(t, "admin2"), f.user(t, "editor"), f.user(t, "viewer")
	outsider := f.user(t, "outsider")

	g, err := f.groups.CreateGroup(ctx, "g", owner.ID, []uint{admin.ID, admin2.ID})
	require.NoError(t, err)
	_, err = f.groups.AddMember(ctx, g.ID, owner.ID, editor.ID)
	require.NoError(t, err)
	_, err = f.groups.AddMember(ctx, g.ID, owner.ID, viewer.ID)
	require.NoError(t, err)

	_, err = f.groups.UpdateRole(ctx, g.ID, owner.ID, admin.ID, models.RoleAdmin)
	require.NoError(t, err)
	_, err = f.groups.UpdateRole(ctx, g.ID, owner.ID, admin2.ID, models.RoleAdmin)
	require.NoError(t, err)
	_, err = f.groups.UpdateRole(ctx, g.ID, owner.ID, editor.ID, models.RoleEditor)
	require.NoError(t, err)

	roleOf := func(t *testing.T, userID uint) models.Role {
		t.Helper()
		r, ok, err := f.groups.GetRole(ctx, g.ID, userID)
		require.NoError(t, err)
		require.True(t, ok)
		return r
	}

	tests := []struct {
		name    string
		actor   uint
		target  uint
		role    models.Role
		wantErr error
	}{
		{"admin cannot touch admin", admin.ID, admin2.ID, models.RoleViewer, ErrForbidden},
		{"admin cannot touch owner", admin.ID, owner.ID, models.RoleViewer, ErrForbidden},
		{"admin cannot grant owner", admin.ID, viewer.ID, models.RoleOwner, ErrForbidden},
		{"admin cannot grant admin", admin.ID, viewer.ID, models.RoleAdmin, ErrForbidden},
		{"owner cannot grant owner", owner.ID, viewer.ID, models.RoleOwner, ErrForbidden},
		{"self change", admin.ID, admin.ID, models.RoleViewer, ErrSelfRoleChange},
		{"owner self change", owner.ID, owner.ID, models.RoleAdmin, ErrForbidden},
		{"editor cannot change roles", editor.ID, viewer.ID, models.RoleEditor, ErrForbidden},
		{"outsider", outsider.ID, viewer.ID, models.RoleEditor, ErrUnauthorized},
		{"target not a member", owner.ID, outsider.ID, models.RoleEditor, ErrNotFound},
		{"bad role", owner.ID, viewer.ID, models.Role("KING"), ErrValidation},
		{"outsider with bad role", outsider.ID, viewer.ID, models.Role("KING"), ErrUnauthorized},
		{"editor with bad role", editor.ID, viewer.ID, models.Role("KING"), ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := map[uint]models.Role{}
			for _, id := range []uint{owner.ID, admin.ID, admin2.ID, editor.ID, viewer.ID} {
				before[id] = roleOf(t, id)
			}

			_, err := f.groups.UpdateRole(ctx, g.ID, tt.actor, tt.target, tt.role)
			assert.ErrorIs(t, err, tt.wantErr)

			for id, r := range before {
				assert.Equal(t, r, roleOf(t, id), "no row mutated")
			}
		})
	}

	t.Run("admin promotes viewer to editor", func(t *testing.T) {
		m, err := f.groups.UpdateRole(ctx, g.ID, admin.ID, viewer.ID, models.RoleEditor)
		require.NoError(t, err)
		assert.Equal(t, models.RoleEditor, m.Role)
		assert.Equal(t, models.RoleEditor, roleOf(t, viewer.ID))
	})

	t.Run("idempotent", func(t *testing.T) {
		m, err := f.groups.UpdateRole(ctx, g.ID, admin.ID, viewer.ID, models.RoleEditor)
		require.NoError(t, err)
		assert.Equal(t, models.RoleEditor, m.Role)
	})

	t.Run("owner demotes admin", func(t *testing.T) {
		_, err := f.groups.UpdateRole(ctx, g.ID, owner.ID, admin2.ID, models.RoleViewer)
		require.NoError(t, err)
		assert.Equal(t, models.RoleViewer, roleOf(t, admin2.ID))
	})
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, admin, editor, viewer := f.user(t, "owner"), f.user(t, "admin"), f.user(t, "editor"), f.user(t, "viewer")

	g, err := f.groups.CreateGroup(ctx, "g", owner.ID, []uint{admin.ID, editor.ID})
	require.NoError(t, err)
	_, err = f.groups.AddMember(ctx, g.ID, owner.ID, viewer.ID)
	require.NoError(t, err)
	_, err = f.groups.UpdateRole(ctx, g.ID, owner.ID, admin.ID, models.RoleAdmin)
	require.NoError(t, err)
	_, err = f.groups.UpdateRole(ctx, g.ID, owner.ID, editor.ID, models.RoleEditor)
	require.NoError(t, err)

	_, err = f.groups.RemoveMember(ctx, g.ID, editor.ID, viewer.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.groups.RemoveMember(ctx, g.ID, admin.ID, owner.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	deleted, err := f.groups.RemoveMember(ctx, g.ID, admin.ID, viewer.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = f.groups.RemoveMember(ctx, g.ID, editor.ID, editor.ID)
	require.NoError(t, err, "members may leave")
	assert.False(t, deleted)

	_, err = f.groups.RemoveMember(ctx, g.ID, owner.ID, viewer.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveMember_OwnerLeavingDeletesGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, member := f.user(t, "owner"), f.user(t, "member")

	g, err := f.groups.CreateGroup(ctx, "g", owner.ID, []uint{member.ID})
	require.NoError(t, err)
	_, err = f.memos.Create(ctx, owner.ID, models.MemoInput{Title: "pin", GroupID: &g.ID})
	require.NoError(t, err)

	deleted, err := f.groups.RemoveMember(ctx, g.ID, owner.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = f.groups.GetGroup(ctx, g.ID, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, f.countRows(t, &models.GroupMember{}, "group_id = ?", g.ID))
	assert.Zero(t, f.countRows(t, &models.Memo{}, "group_id = ?", g.ID))
}

func TestRenameAndDeleteGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, viewer := f.user(t, "owner"), f.user(t, "viewer")

	g, err := f.groups.CreateGroup(ctx, "old", owner.ID, []uint{viewer.ID})
	require.NoError(t, err)

	_, err = f.groups.RenameGroup(ctx, g.ID, viewer.ID, "new")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.groups.RenameGroup(ctx, g.ID, owner.ID, " ")
	assert.ErrorIs(t, err, ErrValidation)

	renamed, err := f.groups.RenameGroup(ctx, g.ID, owner.ID, "new")
	require.NoError(t, err)
	assert.Equal(t, "new", renamed.Name)

	assert.ErrorIs(t, f.groups.DeleteGroup(ctx, g.ID, viewer.ID), ErrForbidden)
	require.NoError(t, f.groups.DeleteGroup(ctx, g.ID, owner.ID))

	list, err := f.groups.ListGroups(ctx, viewer.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
