package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/router"
	"github.com/anonto42/memomap/backend/internal/services"
	"github.com/anonto42/memomap/backend/internal/storage"
	"github.com/anonto42/memomap/backend/internal/testutil"
	"github.com/anonto42/memomap/backend/pkg/config"
	"github.com/anonto42/memomap/backend/pkg/logger"
	"github.com/anonto42/memomap/backend/pkg/metrics"
)

const tripFixture = `
users:
  - {name: Alice, email: alice@example.com, password: password123}
  - {name: Bob, email: bob@example.com, password: password123}
  - {name: Carol, email: carol@example.com, password: password123}
friends:
  - {from: alice@example.com, to: bob@example.com, accept: true}
  - {from: carol@example.com, to: alice@example.com}
groups:
  - name: Trip
    owner: alice@example.com
    members: [bob@example.com, carol@example.com]
    roles:
      bob@example.com: editor
memos:
  - {title: Camp, lat: 35.1, lon: 139.2, creator: bob@example.com, group: Trip}
  - {title: Groceries, creator: alice@example.com}
`

func TestDecodeFixture_RejectsUnknownFields(t *testing.T) {
	_, err := decodeFixture(strings.NewReader("users:\n  - {name: A, mail: a@example.com}\n"))
	require.Error(t, err)
}

func TestSeeder_Apply(t *testing.T) {
	db := testutil.OpenDB(t)
	log := logger.Discard()
	svc := router.NewServices(router.Deps{
		Config:              &config.Config{GroupCapOnCreate: 3, GroupCapOnJoin: 5, AvatarMaxBytes: 1 << 20},
		Postgres:            db,
		Store:               storage.NewMemoryStore(),
		Logger:              log,
		Metrics:             metrics.New(),
		NotificationOptions: []services.NotificationOption{services.WithSyncDelivery()},
	})

	fixture, err := decodeFixture(strings.NewReader(tripFixture))
	require.NoError(t, err)

	s := newSeeder(svc, log)
	ctx := context.Background()
	require.NoError(t, s.Apply(ctx, fixture))

	alice, bob, carol := s.users["alice@example.com"], s.users["bob@example.com"], s.users["carol@example.com"]

	isFriend, err := svc.Friends.IsFriend(ctx, alice, bob)
	require.NoError(t, err)
	assert.True(t, isFriend)
	incoming, err := svc.Friends.ListIncoming(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, incoming, 1)

	groupID := s.groups["Trip"]
	role, ok, err := svc.Groups.GetRole(ctx, groupID, bob)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.RoleEditor, role)
	role, _, err = svc.Groups.GetRole(ctx, groupID, carol)
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, role)

	memos, err := svc.Memos.ListForGroup(ctx, groupID, carol)
	require.NoError(t, err)
	require.Len(t, memos, 1)
	assert.Equal(t, "Camp", memos[0].Title)

	personal, err := svc.Memos.ListPersonal(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, personal, 1)
}

func TestSeeder_UnknownUser(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := router.NewServices(router.Deps{
		Config:   &config.Config{GroupCapOnCreate: 3, GroupCapOnJoin: 5},
		Postgres: db,
		Store:    storage.NewMemoryStore(),
		Logger:   logger.Discard(),
		Metrics:  metrics.New(),
	})
	f := &Fixture{Memos: []MemoFixture{{Title: "x", Creator: "ghost@example.com"}}}
	err := newSeeder(svc, logger.Discard()).Apply(context.Background(), f)
	require.ErrorContains(t, err, "ghost@example.com")
}
