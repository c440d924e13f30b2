package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/repositories"
	"github.com/anonto42/memomap/backend/pkg/metrics"
)

// FollowService manages one-way follow edges. A follow needs the followed
// user's approval before it counts.
type FollowService struct {
	follows  repositories.FollowRepository
	users    repositories.UserRepository
	notifier NotificationSender
	logger   *logrus.Logger
	metrics  *metrics.Metrics
}

func NewFollowService(
	follows repositories.FollowRepository,
	users repositories.UserRepository,
	notifier NotificationSender,
	logger *logrus.Logger,
	m *metrics.Metrics,
) *FollowService {
	return &FollowService{follows: follows, users: users, notifier: notifier, logger: logger, metrics: m}
}

// Follow requests to follow followingID. An existing edge is returned as is,
// except a rejected one which goes back to PENDING.
func (s *FollowService) Follow(ctx context.Context, followerID, followingID uint) (*models.Follow, error) {
	if followerID == followingID {
		return nil, invalid(models.ErrSelfRelation)
	}
	follower, err := s.users.GetUserByID(ctx, followerID)
	if err != nil {
		return nil, lookup(err, "user")
	}
	if _, err := s.users.GetUserByID(ctx, followingID); err != nil {
		return nil, lookup(err, "user")
	}

	existing, err := s.follows.GetFollow(ctx, followerID, followingID)
	switch {
	case err == nil:
		if existing.Status != models.StatusRejected {
			return existing, nil
		}
		if err := s.follows.UpdateStatus(ctx, existing.ID, models.StatusPending); err != nil {
			return nil, lookup(err, "follow")
		}
		existing.Status = models.StatusPending
	case isMissing(err):
		existing, err = models.NewFollow(followerID, followingID)
		if err != nil {
			return nil, invalid(err)
		}
		if err := s.follows.CreateFollow(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to create follow: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to load follow: %w", err)
	}

	s.metrics.FollowTransitions.WithLabelValues("requested").Inc()
	s.logger.WithFields(logrus.Fields{"follower_id": followerID, "following_id": followingID}).Info("follow requested")
	s.notifier.Notify(ctx, &models.Notification{
		Type:        models.NotificationFollowRequest,
		ActorID:     followerID,
		RecipientID: followingID,
		TargetID:    followerID,
		TargetType:  "user",
		Message:     follower.Name + " wants to follow you",
	})
	return existing, nil
}

// Accept approves followerID's pending request to follow userID.
func (s *FollowService) Accept(ctx context.Context, userID, followerID uint) (*models.Follow, error) {
	f, err := s.pending(ctx, followerID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.follows.UpdateStatus(ctx, f.ID, models.StatusAccepted); err != nil {
		return nil, lookup(err, "follow request")
	}
	f.Status = models.StatusAccepted

	s.metrics.FollowTransitions.WithLabelValues("accepted").Inc()
	s.logger.WithFields(logrus.Fields{"follower_id": followerID, "following_id": userID}).Info("follow accepted")

	message := "Your follow request was accepted"
	if u, err := s.users.GetUserByID(ctx, userID); err == nil {
		message = u.Name + " accepted your follow request"
	}
	s.notifier.Notify(ctx, &models.Notification{
		Type:        models.NotificationFollowAccepted,
		ActorID:     userID,
		RecipientID: followerID,
		TargetID:    userID,
		TargetType:  "user",
		Message:     message,
	})
	return f, nil
}

// Reject declines followerID's pending request to follow userID.
func (s *FollowService) Reject(ctx context.Context, userID, followerID uint) (*models.Follow, error) {
	f, err := s.pending(ctx, followerID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.follows.UpdateStatus(ctx, f.ID, models.StatusRejected); err != nil {
		return nil, lookup(err, "follow request")
	}
	f.Status = models.StatusRejected
	s.metrics.FollowTransitions.WithLabelValues("rejected").Inc()
	return f, nil
}

func (s *FollowService) pending(ctx context.Context, followerID, followingID uint) (*models.Follow, error) {
	f, err := s.follows.GetFollow(ctx, followerID, followingID)
	if err != nil {
		return nil, lookup(err, "follow request")
	}
	if f.Status != models.StatusPending {
		return nil, notFound("follow request")
	}
	return f, nil
}

func (s *FollowService) Unfollow(ctx context.Context, followerID, followingID uint) error {
	if err := s.follows.DeleteFollow(ctx, followerID, followingID); err != nil {
		return lookup(err, "follow")
	}
	s.metrics.FollowTransitions.WithLabelValues("removed").Inc()
	return nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	ok, err := s.follows.IsFollowing(ctx, followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return ok, nil
}

func (s *FollowService) ListFollowers(ctx context.Context, userID uint) ([]models.UserCompact, error) {
	ids, err := s.follows.GetFollowerIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	return compactUsers(ctx, s.users, ids)
}

func (s *FollowService) ListFollowing(ctx context.Context, userID uint) ([]models.UserCompact, error) {
	ids, err := s.follows.GetFollowingIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list following: %w", err)
	}
	return compactUsers(ctx, s.users, ids)
}

// ListPending returns follow requests waiting on userID.
func (s *FollowService) ListPending(ctx context.Context, userID uint) ([]models.Follow, error) {
	follows, err := s.follows.GetPendingFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list follow requests: %w", err)
	}
	return follows, nil
}

// FollowCounts is the follower/following pair shown on a profile.
type FollowCounts struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

func (s *FollowService) Counts(ctx context.Context, userID uint) (FollowCounts, error) {
	followers, err := s.follows.GetFollowersCount(ctx, userID)
	if err != nil {
		return FollowCounts{}, fmt.Errorf("failed to count followers: %w", err)
	}
	following, err := s.follows.GetFollowingCount(ctx, userID)
	if err != nil {
		return FollowCounts{}, fmt.Errorf("failed to count following: %w", err)
	}
	return FollowCounts{Followers: followers, Following: following}, nil
}
