package services

import (
	"context"
	"fmt"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/repositories"
	"github.com/anonto42/memomap/backend/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// FriendOutcome tells the caller what a friend request actually did.
type FriendOutcome string

const (
	FriendRequested FriendOutcome = "requested"
	FriendAccepted  FriendOutcome = "accepted"
	FriendUnchanged FriendOutcome = "unchanged"
)

type friendAction int

const (
	actionCreate friendAction = iota
	actionAcceptReverse
	actionReopen
	actionNoop
)

// decideFriendRequest picks what sendRequest(from, to) must do given the
// existing (from -> to) and (to -> from) edges, either of which may be nil.
func decideFriendRequest(forward, reverse *models.Friend) friendAction {
	if (forward != nil && forward.Status == models.StatusAccepted) ||
		(reverse != nil && reverse.Status == models.StatusAccepted) {
		return actionNoop
	}
	if reverse != nil && reverse.Status == models.StatusPending {
		return actionAcceptReverse
	}
	if forward == nil {
		return actionCreate
	}
	if forward.Status == models.StatusRejected {
		return actionReopen
	}
	return actionNoop
}

// FriendService runs the friend request state machine.
type FriendService struct {
	friends  repositories.FriendRepository
	users    repositories.UserRepository
	notifier NotificationSender
	logger   *logrus.Logger
	metrics  *metrics.Metrics
}

func NewFriendService(
	friends repositories.FriendRepository,
	users repositories.UserRepository,
	notifier NotificationSender,
	logger *logrus.Logger,
	m *metrics.Metrics,
) *FriendService {
	return &FriendService{friends: friends, users: users, notifier: notifier, logger: logger, metrics: m}
}

func (s *FriendService) edge(ctx context.Context, fromID, toID uint) (*models.Friend, error) {
	e, err := s.friends.GetEdge(ctx, fromID, toID)
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load friend edge: %w", err)
	}
	return e, nil
}

// SendRequest sends a friend request from fromID to toID. A pending request
// in the other direction is accepted instead of creating a second row, and
// repeating a request is a no-op.
func (s *FriendService) SendRequest(ctx context.Context, fromID, toID uint) (*models.Friend, FriendOutcome, error) {
	if fromID == toID {
		return nil, "", invalid(models.ErrSelfRelation)
	}
	sender, err := s.users.GetUserByID(ctx, fromID)
	if err != nil {
		return nil, "", lookup(err, "user")
	}
	if _, err := s.users.GetUserByID(ctx, toID); err != nil {
		return nil, "", lookup(err, "user")
	}

	forward, err := s.edge(ctx, fromID, toID)
	if err != nil {
		return nil, "", err
	}
	reverse, err := s.edge(ctx, toID, fromID)
	if err != nil {
		return nil, "", err
	}

	switch decideFriendRequest(forward, reverse) {
	case actionAcceptReverse:
		if _, err := s.AcceptRequest(ctx, toID, fromID); err != nil {
			return nil, "", err
		}
		accepted, err := s.edge(ctx, fromID, toID)
		if err != nil {
			return nil, "", err
		}
		return accepted, FriendAccepted, nil

	case actionReopen:
		if err := s.friends.UpdateStatus(ctx, forward.ID, models.StatusPending); err != nil {
			return nil, "", lookup(err, "friend request")
		}
		forward.Status = models.StatusPending

	case actionCreate:
		forward, err = models.NewFriend(fromID, toID, models.StatusPending)
		if err != nil {
			return nil, "", invalid(err)
		}
		if err := s.friends.CreateEdge(ctx, forward); err != nil {
			return nil, "", fmt.Errorf("failed to create friend request: %w", err)
		}

	case actionNoop:
		if forward != nil {
			return forward, FriendUnchanged, nil
		}
		return reverse, FriendUnchanged, nil
	}

	s.metrics.FriendTransitions.WithLabelValues("requested").Inc()
	s.logger.WithFields(logrus.Fields{"from_id": fromID, "to_id": toID}).Info("friend request sent")
	s.notifier.Notify(ctx, &models.Notification{
		Type:        models.NotificationFriendRequest,
		ActorID:     fromID,
		RecipientID: toID,
		TargetID:    fromID,
		TargetType:  "user",
		Message:     sender.Name + " sent you a friend request",
	})
	return forward, FriendRequested, nil
}

// AcceptRequest accepts the pending (fromID -> toID) request. Both directed
// rows end up ACCEPTED, written atomically.
func (s *FriendService) AcceptRequest(ctx context.Context, fromID, toID uint) (*models.Friend, error) {
	if fromID == toID {
		return nil, invalid(models.ErrSelfRelation)
	}
	if err := s.friends.AcceptPair(ctx, fromID, toID); err != nil {
		return nil, lookup(err, "pending friend request")
	}

	s.metrics.FriendTransitions.WithLabelValues("accepted").Inc()
	s.logger.WithFields(logrus.Fields{"from_id": fromID, "to_id": toID}).Info("friend request accepted")

	message := "Your friend request was accepted"
	if accepter, err := s.users.GetUserByID(ctx, toID); err == nil {
		message = accepter.Name + " accepted your friend request"
	}
	s.notifier.Notify(ctx, &models.Notification{
		Type:        models.NotificationFriendAccepted,
		ActorID:     toID,
		RecipientID: fromID,
		TargetID:    toID,
		TargetType:  "user",
		Message:     message,
	})

	edge, err := s.friends.GetEdge(ctx, fromID, toID)
	if err != nil {
		return nil, lookup(err, "friend")
	}
	return edge, nil
}

// RejectRequest rejects the pending (fromID -> toID) request.
func (s *FriendService) RejectRequest(ctx context.Context, fromID, toID uint) (*models.Friend, error) {
	edge, err := s.edge(ctx, fromID, toID)
	if err != nil {
		return nil, err
	}
	if edge == nil || edge.Status != models.StatusPending {
		return nil, notFound("pending friend request")
	}
	if err := s.friends.UpdateStatus(ctx, edge.ID, models.StatusRejected); err != nil {
		return nil, lookup(err, "pending friend request")
	}
	edge.Status = models.StatusRejected

	s.metrics.FriendTransitions.WithLabelValues("rejected").Inc()
	s.logger.WithFields(logrus.Fields{"from_id": fromID, "to_id": toID}).Info("friend request rejected")
	return edge, nil
}

// Remove deletes every edge between a and b, whatever its direction or status.
func (s *FriendService) Remove(ctx context.Context, a, b uint) error {
	n, err := s.friends.DeleteBetween(ctx, a, b)
	if err != nil {
		return fmt.Errorf("failed to remove friend: %w", err)
	}
	if n == 0 {
		return ErrFriendNotFound
	}
	s.metrics.FriendTransitions.WithLabelValues("removed").Inc()
	s.logger.WithFields(logrus.Fields{"user_id": a, "other_id": b, "rows": n}).Info("friendship removed")
	return nil
}

func (s *FriendService) IsFriend(ctx context.Context, a, b uint) (bool, error) {
	ok, err := s.friends.ExistsAccepted(ctx, a, b)
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return ok, nil
}

func (s *FriendService) ListFriends(ctx context.Context, userID uint) ([]models.UserCompact, error) {
	ids, err := s.friends.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return compactUsers(ctx, s.users, ids)
}

// ListIncoming returns the pending requests addressed to userID.
func (s *FriendService) ListIncoming(ctx context.Context, userID uint) ([]models.FriendRequestView, error) {
	edges, err := s.friends.ListPendingTo(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend requests: %w", err)
	}
	return s.requestViews(ctx, edges, func(f models.Friend) uint { return f.FromID })
}

// ListOutgoing returns the pending requests userID has sent.
func (s *FriendService) ListOutgoing(ctx context.Context, userID uint) ([]models.FriendRequestView, error) {
	edges, err := s.friends.ListPendingFrom(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend requests: %w", err)
	}
	return s.requestViews(ctx, edges, func(f models.Friend) uint { return f.ToID })
}

func (s *FriendService) requestViews(ctx context.Context, edges []models.Friend, other func(models.Friend) uint) ([]models.FriendRequestView, error) {
	ids := make([]uint, len(edges))
	for i, e := range edges {
		ids[i] = other(e)
	}
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	views := make([]models.FriendRequestView, 0, len(edges))
	for _, e := range edges {
		u, ok := byID[other(e)]
		if !ok {
			continue
		}
		views = append(views, models.FriendRequestView{Friend: e, User: u.ToCompact()})
	}
	return views, nil
}

func compactUsers(ctx context.Context, users repositories.UserRepository, ids []uint) ([]models.UserCompact, error) {
	found, err := users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	out := make([]models.UserCompact, 0, len(found))
	for _, u := range found {
		out = append(out, u.ToCompact())
	}
	return out, nil
}
