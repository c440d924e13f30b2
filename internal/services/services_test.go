package services

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/repositories"
	"github.com/anonto42/memomap/backend/internal/testutil"
	"github.com/anonto42/memomap/backend/pkg/logger"
	"github.com/anonto42/memomap/backend/pkg/metrics"
)

// recordingNotifier keeps every notification it is handed.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n *models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, *n)
}

func (r *recordingNotifier) ofType(kind string) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.sent {
		if n.Type == kind {
			out = append(out, n)
		}
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	notifier *recordingNotifier

	users   repositories.UserRepository
	groupsR repositories.GroupRepository
	memosR  repositories.MemoRepository
	friends repositories.FriendRepository

	groups   *GroupService
	friendsS *FriendService
	follows  *FollowService
	memos    *MemoService
	comments *CommentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	log := logger.Discard()
	m := metrics.New()
	n := &recordingNotifier{}

	users := repositories.NewPostgresUserRepository(db)
	groups := repositories.NewPostgresGroupRepository(db)
	memos := repositories.NewPostgresMemoRepository(db)
	friends := repositories.NewPostgresFriendRepository(db)
	follows := repositories.NewPostgresFollowRepository(db)
	comments := repositories.NewPostgresCommentRepository(db)

	memoSvc := NewMemoService(memos, groups, log)
	return &fixture{
		db:       db,
		notifier: n,
		users:    users,
		groupsR:  groups,
		memosR:   memos,
		friends:  friends,
		groups:   NewGroupService(groups, users, n, GroupLimits{OnCreate: 3, OnJoin: 5}, log, m),
		friendsS: NewFriendService(friends, users, n, log, m),
		follows:  NewFollowService(follows, users, n, log, m),
		memos:    memoSvc,
		comments: NewCommentService(comments, memoSvc, users, n, log, func(int) int { return 2 }),
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	return testutil.CreateUser(t, f.db, name)
}

func (f *fixture) countRows(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
