package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/memomap/backend/internal/models"
)

func TestFollow_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fan, star := f.user(t, "fan"), f.user(t, "star")

	_, err := f.follows.Follow(ctx, fan.ID, fan.ID)
	assert.ErrorIs(t, err, ErrValidation)

	fl, err := f.follows.Follow(ctx, fan.ID, star.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, fl.Status)

	again, err := f.follows.Follow(ctx, fan.ID, star.ID)
	require.NoError(t, err)
	assert.Equal(t, fl.ID, again.ID)

	followers, err := f.follows.ListFollowers(ctx, star.ID)
	require.NoError(t, err)
	assert.Empty(t, followers, "pending follows are not listed")

	pending, err := f.follows.ListPending(ctx, star.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = f.follows.Accept(ctx, fan.ID, star.ID)
	assert.ErrorIs(t, err, ErrNotFound, "only the followed user can accept")

	accepted, err := f.follows.Accept(ctx, star.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, accepted.Status)

	followers, err = f.follows.ListFollowers(ctx, star.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, fan.ID, followers[0].ID)

	following, err := f.follows.ListFollowing(ctx, fan.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)

	counts, err := f.follows.Counts(ctx, star.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowCounts{Followers: 1, Following: 0}, counts)

	require.NoError(t, f.follows.Unfollow(ctx, fan.ID, star.ID))
	assert.ErrorIs(t, f.follows.Unfollow(ctx, fan.ID, star.ID), ErrNotFound)

	assert.Len(t, f.notifier.ofType(models.NotificationFollowRequest), 1)
	assert.Len(t, f.notifier.ofType(models.NotificationFollowAccepted), 1)
}

func TestFollow_RejectedCanBeRequestedAgain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fan, star := f.user(t, "fan"), f.user(t, "star")

	_, err := f.follows.Follow(ctx, fan.ID, star.ID)
	require.NoError(t, err)
	rejected, err := f.follows.Reject(ctx, star.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	_, err = f.follows.Reject(ctx, star.ID, fan.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	again, err := f.follows.Follow(ctx, fan.ID, star.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, again.Status)
	assert.Equal(t, rejected.ID, again.ID)
}
