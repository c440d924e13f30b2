package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/repositories"
	"github.com/anonto42/memomap/backend/internal/testutil"
)

func f64(v float64) *float64 { return &v }

func TestFriendRepository_AcceptPair(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repositories.NewPostgresFriendRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")

	require.ErrorIs(t, repo.AcceptPair(ctx, a.ID, b.ID), gorm.ErrRecordNotFound)

	require.NoError(t, repo.CreateEdge(ctx, &models.Friend{FromID: a.ID, ToID: b.ID, Status: models.StatusPending}))
	require.NoError(t, repo.AcceptPair(ctx, a.ID, b.ID))

	edges := testutil.FriendEdges(t, db, a.ID, b.ID)
	require.Len(t, edges, 2)
	for _, e := range edges {
		assert.Equal(t, models.StatusAccepted, e.Status)
	}

	ids, err := repo.ListFriendIDs(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID}, ids)

	n, err := repo.DeleteBetween(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestFriendRepository_AcceptPairOverwritesReverse(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repositories.NewPostgresFriendRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")

	require.NoError(t, repo.CreateEdge(ctx, &models.Friend{FromID: a.ID, ToID: b.ID, Status: models.StatusPending}))
	require.NoError(t, repo.CreateEdge(ctx, &models.Friend{FromID: b.ID, ToID: a.ID, Status: models.StatusRejected}))
	require.NoError(t, repo.AcceptPair(ctx, a.ID, b.ID))

	reverse, err := repo.GetEdge(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, reverse.Status)
}

func TestGroupRepository_DeleteCascadeKeepsComments(t *testing.T) {
	db := testutil.OpenDB(t)
	groups := repositories.NewPostgresGroupRepository(db)
	memos := repositories.NewPostgresMemoRepository(db)
	comments := repositories.NewPostgresCommentRepository(db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner")

	group := &models.Group{Name: "Trip", OwnerID: owner.ID}
	require.NoError(t, groups.CreateWithMembers(ctx, group, []*models.GroupMember{{UserID: owner.ID, Role: models.RoleOwner}}))

	memo := &models.Memo{Title: "Camp", CreatedByID: owner.ID, GroupID: &group.ID}
	require.NoError(t, memos.CreateMemo(ctx, memo))
	require.NoError(t, comments.CreateComment(ctx, &models.Comment{MemoID: memo.ID, AuthorID: owner.ID, Content: "hi"}))

	require.NoError(t, groups.DeleteCascade(ctx, group.ID))
	require.ErrorIs(t, groups.DeleteCascade(ctx, group.ID), gorm.ErrRecordNotFound)

	_, err := memos.GetMemoByID(ctx, memo.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	count, err := groups.CountMemberships(ctx, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	left, err := comments.GetCommentsByMemoID(ctx, memo.ID)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestMemoRepository_ListInBounds(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repositories.NewPostgresMemoRepository(db)
	ctx := context.Background()
	me := testutil.CreateUser(t, db, "me")
	other := testutil.CreateUser(t, db, "other")

	groupID := uint(7)
	for _, m := range []*models.Memo{
		{Title: "tokyo", CreatedByID: me.ID, Lat: f64(35.6), Lon: f64(139.7)},
		{Title: "fiji", CreatedByID: me.ID, Lat: f64(-17.7), Lon: f64(178.1)},
		{Title: "samoa", CreatedByID: me.ID, Lat: f64(-13.8), Lon: f64(-172.1)},
		{Title: "nowhere", CreatedByID: me.ID},
		{Title: "theirs", CreatedByID: other.ID, Lat: f64(35.6), Lon: f64(139.7)},
		{Title: "shared", CreatedByID: other.ID, GroupID: &groupID, Lat: f64(35.7), Lon: f64(139.8)},
	} {
		require.NoError(t, repo.CreateMemo(ctx, m))
	}

	titles := func(memos []models.Memo) []string {
		out := make([]string, len(memos))
		for i, m := range memos {
			out[i] = m.Title
		}
		return out
	}

	got, err := repo.ListInBounds(ctx, me.ID, nil, models.Bounds{South: 30, West: 130, North: 40, East: 145})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tokyo"}, titles(got))

	got, err = repo.ListInBounds(ctx, me.ID, []uint{groupID}, models.Bounds{South: 30, West: 130, North: 40, East: 145})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tokyo", "shared"}, titles(got))

	got, err = repo.ListInBounds(ctx, me.ID, nil, models.Bounds{South: -20, West: 170, North: -10, East: -170})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"fiji", "samoa"}, titles(got))
}

func TestSubscriptionRepository_UpsertMovesOwner(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repositories.NewPostgresSubscriptionRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")

	endpoint := "https://push.example.com/send/abc"
	require.NoError(t, repo.Upsert(ctx, &models.Subscription{Endpoint: endpoint, P256dh: "k1", Auth: "a1", UserID: a.ID}))
	require.NoError(t, repo.Upsert(ctx, &models.Subscription{Endpoint: endpoint, P256dh: "k2", Auth: "a2", UserID: b.ID}))

	subs, err := repo.ListByUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)

	subs, err = repo.ListByUser(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "k2", subs[0].P256dh)

	assert.ErrorIs(t, repo.DeleteForUser(ctx, endpoint, a.ID), gorm.ErrRecordNotFound)
	require.NoError(t, repo.DeleteForUser(ctx, endpoint, b.ID))
}

func TestNotificationRepository_Scoping(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := repositories.NewPostgresNotificationRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")

	now := time.Date(2026, 3, 12, 15, 0, 0, 0, time.UTC)
	n := &models.Notification{Type: models.NotificationComment, ActorID: b.ID, RecipientID: a.ID, CreatedAt: now.Add(-time.Hour)}
	require.NoError(t, repo.CreateNotification(ctx, n))
	old := &models.Notification{Type: models.NotificationComment, ActorID: b.ID, RecipientID: a.ID, CreatedAt: now.AddDate(0, 0, -30)}
	require.NoError(t, repo.CreateNotification(ctx, old))

	assert.ErrorIs(t, repo.MarkAsRead(ctx, n.ID, b.ID), gorm.ErrRecordNotFound)
	require.NoError(t, repo.MarkAsRead(ctx, n.ID, a.ID))

	unread, err := repo.GetUnreadCount(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	today, yesterday, week, older, err := repo.GetGrouped(ctx, a.ID, now)
	require.NoError(t, err)
	assert.Len(t, today, 1)
	assert.Empty(t, yesterday)
	assert.Empty(t, week)
	assert.Len(t, older, 1)

	page, total, err := repo.GetByRecipientID(ctx, a.ID, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, page, 1)
	assert.Equal(t, n.ID, page[0].ID)
}
