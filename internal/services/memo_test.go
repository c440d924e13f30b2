package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/memomap/backend/internal/models"
)

func ptr[T any](v T) *T { return &v }

type memoGroup struct {
	id                                     uint
	owner, admin, editor, viewer, outsider *models.User
}

func newMemoGroup(t *testing.T, f *fixture) memoGroup {
	t.Helper()
	ctx := context.Background()
	mg := memoGroup{
		owner:    f.user(t, "owner"),
		admin:    f.user(t, "admin"),
		editor:   f.user(t, "editor"),
		viewer:   f.user(t, "viewer"),
		outsider: f.user(t, "outsider"),
	}
	g, err := f.groups.CreateGroup(ctx, "g", mg.owner.ID, []uint{mg.admin.ID, mg.editor.ID})
	require.NoError(t, err)
	_, err = f.groups.AddMember(ctx, g.ID, mg.owner.ID, mg.viewer.ID)
	require.NoError(t, err)
	_, err = f.groups.UpdateRole(ctx, g.ID, mg.owner.ID, mg.admin.ID, models.RoleAdmin)
	require.NoError(t, err)
	_, err = f.groups.UpdateRole(ctx, g.ID, mg.owner.ID, mg.editor.ID, models.RoleEditor)
	require.NoError(t, err)
	mg.id = g.ID
	return mg
}

func TestMemo_Personal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me, other := f.user(t, "me"), f.user(t, "other")

	_, err := f.memos.Create(ctx, me.ID, models.MemoInput{Title: "  "})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.memos.Create(ctx, me.ID, models.MemoInput{Title: "x", Lat: ptr(91.0), Lon: ptr(0.0)})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.memos.Create(ctx, me.ID, models.MemoInput{Title: "x", Lat: ptr(10.0)})
	assert.ErrorIs(t, err, ErrValidation)

	m, err := f.memos.Create(ctx, me.ID, models.MemoInput{Title: "coffee", Lat: ptr(48.85), Lon: ptr(2.35)})
	require.NoError(t, err)
	assert.True(t, m.IsPersonal())
	assert.False(t, m.Completed)

	_, err = f.memos.Get(ctx, m.ID, other.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.memos.SetCompleted(ctx, m.ID, other.ID, true)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.memos.Delete(ctx, m.ID, other.ID), ErrForbidden)

	done, err := f.memos.SetCompleted(ctx, m.ID, me.ID, true)
	require.NoError(t, err)
	assert.True(t, done.Completed)

	updated, err := f.memos.Update(ctx, m.ID, me.ID, models.UpdateMemoRequest{Title: ptr("tea"), Color: ptr("#fff")})
	require.NoError(t, err)
	assert.Equal(t, "tea", updated.Title)
	assert.Equal(t, "#fff", updated.Color)
	assert.True(t, updated.Completed)

	_, err = f.memos.Update(ctx, m.ID, me.ID, models.UpdateMemoRequest{Title: ptr(" ")})
	assert.ErrorIs(t, err, ErrValidation)

	list, err := f.memos.ListPersonal(ctx, me.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.memos.Delete(ctx, m.ID, me.ID))
	_, err = f.memos.Get(ctx, m.ID, me.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemo_GroupPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mg := newMemoGroup(t, f)

	_, err := f.memos.Create(ctx, mg.viewer.ID, models.MemoInput{Title: "v", GroupID: &mg.id})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.memos.Create(ctx, mg.outsider.ID, models.MemoInput{Title: "o", GroupID: &mg.id})
	assert.ErrorIs(t, err, ErrUnauthorized)

	byEditor, err := f.memos.Create(ctx, mg.editor.ID, models.MemoInput{Title: "e", GroupID: &mg.id})
	require.NoError(t, err)
	byOwner, err := f.memos.Create(ctx, mg.owner.ID, models.MemoInput{Title: "o", GroupID: &mg.id})
	require.NoError(t, err)

	list, err := f.memos.ListForGroup(ctx, mg.id, mg.viewer.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	_, err = f.memos.ListForGroup(ctx, mg.id, mg.outsider.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.memos.SetCompleted(ctx, byOwner.ID, mg.viewer.ID, true)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.memos.SetCompleted(ctx, byOwner.ID, mg.editor.ID, true)
	require.NoError(t, err)

	assert.ErrorIs(t, f.memos.Delete(ctx, byOwner.ID, mg.viewer.ID), ErrForbidden)
	assert.ErrorIs(t, f.memos.Delete(ctx, byOwner.ID, mg.editor.ID), ErrForbidden, "editor cannot delete others' memos")
	assert.ErrorIs(t, f.memos.Delete(ctx, byOwner.ID, mg.outsider.ID), ErrUnauthorized)

	require.NoError(t, f.memos.Delete(ctx, byEditor.ID, mg.editor.ID))
	require.NoError(t, f.memos.Delete(ctx, byOwner.ID, mg.admin.ID))
}

func TestMemo_ViewerCannotDeleteOwnMemoAfterDemotion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mg := newMemoGroup(t, f)

	m, err := f.memos.Create(ctx, mg.editor.ID, models.MemoInput{Title: "e", GroupID: &mg.id})
	require.NoError(t, err)
	_, err = f.groups.UpdateRole(ctx, mg.id, mg.owner.ID, mg.editor.ID, models.RoleViewer)
	require.NoError(t, err)

	assert.ErrorIs(t, f.memos.Delete(ctx, m.ID, mg.editor.ID), ErrForbidden)
}

func TestMemo_ListInBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mg := newMemoGroup(t, f)

	_, err := f.memos.Create(ctx, mg.viewer.ID, models.MemoInput{Title: "mine", Lat: ptr(10.0), Lon: ptr(10.0)})
	require.NoError(t, err)
	_, err = f.memos.Create(ctx, mg.editor.ID, models.MemoInput{Title: "group", Lat: ptr(11.0), Lon: ptr(11.0), GroupID: &mg.id})
	require.NoError(t, err)
	_, err = f.memos.Create(ctx, mg.outsider.ID, models.MemoInput{Title: "theirs", Lat: ptr(10.5), Lon: ptr(10.5)})
	require.NoError(t, err)
	_, err = f.memos.Create(ctx, mg.viewer.ID, models.MemoInput{Title: "far", Lat: ptr(-40.0), Lon: ptr(170.0)})
	require.NoError(t, err)
	_, err = f.memos.Create(ctx, mg.viewer.ID, models.MemoInput{Title: "nowhere"})
	require.NoError(t, err)

	memos, err := f.memos.ListInBounds(ctx, mg.viewer.ID, models.Bounds{South: 0, West: 0, North: 20, East: 20})
	require.NoError(t, err)
	titles := []string{}
	for _, m := range memos {
		titles = append(titles, m.Title)
	}
	assert.ElementsMatch(t, []string{"mine", "group"}, titles)

	// box across the antimeridian
	memos, err = f.memos.ListInBounds(ctx, mg.viewer.ID, models.Bounds{South: -50, West: 160, North: -30, East: -170})
	require.NoError(t, err)
	require.Len(t, memos, 1)
	assert.Equal(t, "far", memos[0].Title)

	_, err = f.memos.ListInBounds(ctx, mg.viewer.ID, models.Bounds{South: 10, North: 0})
	assert.ErrorIs(t, err, ErrValidation)
}
