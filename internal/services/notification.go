package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/anonto42/memomap/backend/internal/models"
	"github.com/anonto42/memomap/backend/internal/push"
	"github.com/anonto42/memomap/backend/internal/repositories"
	"github.com/anonto42/memomap/backend/pkg/metrics"
)

// NotificationSender is what the domain services use to tell a user that
// something happened. Delivery problems never fail the caller.
type NotificationSender interface {
	Notify(ctx context.Context, n *models.Notification)
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, *models.Notification) {}

// PushPayload is the JSON body the service worker receives.
type PushPayload struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	TargetID uint   `json:"target_id,omitempty"`
	Target   string `json:"target_type,omitempty"`
}

const (
	defaultPushConcurrency = 8
	pushTimeout            = 30 * time.Second
)

// NotificationService persists in-app notifications, manages push
// subscriptions, and fans notifications out to every browser a user has
// registered.
type NotificationService struct {
	notifications repositories.NotificationRepository
	subs          repositories.SubscriptionRepository
	sender        push.Sender
	vapidKey      string
	logger        *logrus.Logger
	metrics       *metrics.Metrics

	async       bool
	concurrency int
	wg          sync.WaitGroup
	mu          sync.Mutex
	closed      bool
}

type NotificationOption func(*NotificationService)

// WithSyncDelivery makes Notify wait for push delivery before returning.
func WithSyncDelivery() NotificationOption {
	return func(s *NotificationService) { s.async = false }
}

func WithPushConcurrency(n int) NotificationOption {
	return func(s *NotificationService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewNotificationService builds the service. sender may be nil, in which case
// notifications are stored but never pushed.
func NewNotificationService(
	notifications repositories.NotificationRepository,
	subs repositories.SubscriptionRepository,
	sender push.Sender,
	vapidPublicKey string,
	logger *logrus.Logger,
	m *metrics.Metrics,
	opts ...NotificationOption,
) *NotificationService {
	s := &NotificationService{
		notifications: notifications,
		subs:          subs,
		sender:        sender,
		vapidKey:      vapidPublicKey,
		logger:        logger,
		metrics:       m,
		async:         true,
		concurrency:   defaultPushConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify stores n and pushes it to the recipient.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) {
	log := s.logger.WithFields(logrus.Fields{
		"type":         n.Type,
		"recipient_id": n.RecipientID,
		"actor_id":     n.ActorID,
	})
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		log.WithError(err).Error("failed to store notification")
	}
	if s.sender == nil {
		return
	}

	payload := PushPayload{
		Type:     n.Type,
		Title:    pushTitle(n.Type),
		Body:     n.Message,
		TargetID: n.TargetID,
		Target:   n.TargetType,
	}

	deliver := func(ctx context.Context) {
		sent, err := s.Deliver(ctx, n.RecipientID, payload)
		if err != nil {
			log.WithError(err).WithField("delivered", sent).Warn("push delivery had failures")
			return
		}
		log.WithField("delivered", sent).Debug("push delivered")
	}

	s.mu.Lock()
	if !s.async || s.closed {
		s.mu.Unlock()
		deliver(ctx)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
		defer cancel()
		deliver(ctx)
	}()
}

// Wait blocks until all in-flight asynchronous deliveries finish.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

// Shutdown stops asynchronous delivery and waits for in-flight pushes.
// Notify keeps working afterwards but delivers before returning.
func (s *NotificationService) Shutdown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

// Deliver pushes payload to every subscription of recipientID concurrently.
// One endpoint failing does not stop the others. It returns how many
// deliveries succeeded and every failure combined. Endpoints the push
// service reports as gone are removed.
func (s *NotificationService) Deliver(ctx context.Context, recipientID uint, payload PushPayload) (int, error) {
	if s.sender == nil {
		return 0, nil
	}
	subs, err := s.subs.ListByUser(ctx, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return 0, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode push payload: %w", err)
	}

	var (
		mu     sync.Mutex
		sent   int
		result *multierror.Error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, sub := range subs {
		g.Go(func() error {
			status, err := s.sender.Send(gctx, sub, body)
			if err == nil {
				s.metrics.PushDeliveries.WithLabelValues("success").Inc()
				mu.Lock()
				sent++
				mu.Unlock()
				return nil
			}

			if push.Gone(status) {
				s.metrics.PushDeliveries.WithLabelValues("expired").Inc()
				if derr := s.subs.DeleteByEndpoint(ctx, sub.Endpoint); derr != nil {
					err = multierror.Append(err, derr)
				}
			} else {
				s.metrics.PushDeliveries.WithLabelValues("failure").Inc()
			}

			mu.Lock()
			result = multierror.Append(result, fmt.Errorf("endpoint %s: %w", shortEndpoint(sub.Endpoint), err))
			mu.Unlock()
			// Never cancel the siblings.
			return nil
		})
	}
	_ = g.Wait()

	return sent, result.ErrorOrNil()
}

// Subscribe registers a browser endpoint for userID, taking it over if
// another user had registered it before.
func (s *NotificationService) Subscribe(ctx context.Context, userID uint, req models.SubscribeRequest) (*models.Subscription, error) {
	if strings.TrimSpace(req.Endpoint) == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		return nil, fmt.Errorf("%w: endpoint and keys are required", ErrValidation)
	}
	sub := &models.Subscription{
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
		UserID:   userID,
	}
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}
	s.logger.WithField("user_id", userID).Info("push subscription saved")
	return sub, nil
}

func (s *NotificationService) Unsubscribe(ctx context.Context, userID uint, endpoint string) error {
	if err := s.subs.DeleteForUser(ctx, endpoint, userID); err != nil {
		return lookup(err, "subscription")
	}
	return nil
}

// VAPIDPublicKey is handed to browsers so they can create subscriptions.
func (s *NotificationService) VAPIDPublicKey() string {
	return s.vapidKey
}

// NotificationPage is one page of a user's notification feed.
type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
}

func (s *NotificationService) List(ctx context.Context, userID uint, page, limit int) (*NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	items, total, err := s.notifications.GetByRecipientID(ctx, userID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return &NotificationPage{Notifications: items, Total: total, Page: page, Limit: limit}, nil
}

// GroupedNotifications buckets a feed by age.
type GroupedNotifications struct {
	Today     []models.Notification `json:"today"`
	Yesterday []models.Notification `json:"yesterday"`
	ThisWeek  []models.Notification `json:"this_week"`
	Older     []models.Notification `json:"older"`
}

func (s *NotificationService) Grouped(ctx context.Context, userID uint, now time.Time) (*GroupedNotifications, error) {
	today, yesterday, week, older, err := s.notifications.GetGrouped(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to group notifications: %w", err)
	}
	return &GroupedNotifications{Today: today, Yesterday: yesterday, ThisWeek: week, Older: older}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	n, err := s.notifications.GetUnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	if err := s.notifications.MarkAsRead(ctx, notificationID, userID); err != nil {
		return lookup(err, "notification")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	if err := s.notifications.MarkAllAsRead(ctx, userID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func pushTitle(kind string) string {
	switch kind {
	case models.NotificationFriendRequest:
		return "New friend request"
	case models.NotificationFriendAccepted:
		return "Friend request accepted"
	case models.NotificationFollowRequest:
		return "New follower request"
	case models.NotificationFollowAccepted:
		return "Follow request accepted"
	case models.NotificationGroupInvite:
		return "Added to a group"
	case models.NotificationComment:
		return "New comment"
	}
	return "MemoMap"
}

// shortEndpoint keeps push endpoint tokens out of logs.
func shortEndpoint(endpoint string) string {
	if i := strings.LastIndex(endpoint, "/"); i > 0 {
		return endpoint[:i] + "/…"
	}
	return endpoint
}
