package repositories

import (
	"context"
	"time"

	"github.com/anonto42/memomap/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository stores push endpoints keyed by endpoint URL
type SubscriptionRepository interface {
	Upsert(ctx context.Context, sub *models.Subscription) error
	DeleteForUser(ctx context.Context, endpoint string, userID uint) error
	DeleteByEndpoint(ctx context.Context, endpoint string) error
	ListByUser(ctx context.Context, userID uint) ([]models.Subscription, error)
}

type postgresSubscriptionRepository struct {
	db *gorm.DB
}

// NewPostgresSubscriptionRepository creates a new SubscriptionRepository backed by PostgreSQL
func NewPostgresSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &postgresSubscriptionRepository{db: db}
}

// Upsert inserts the subscription or, when the endpoint is already known,
// moves it to the new keys and owner.
func (r *postgresSubscriptionRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"p256dh":     sub.P256dh,
			"auth":       sub.Auth,
			"user_id":    sub.UserID,
			"updated_at": time.Now(),
		}),
	}).Create(sub).Error
}

// DeleteForUser deletes the subscription for endpoint if userID owns it
func (r *postgresSubscriptionRepository) DeleteForUser(ctx context.Context, endpoint string, userID uint) error {
	res := r.db.WithContext(ctx).Where("endpoint = ? AND user_id = ?", endpoint, userID).Delete(&models.Subscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByEndpoint deletes the subscription for endpoint whoever owns it
func (r *postgresSubscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	return r.db.WithContext(ctx).Where("endpoint = ?", endpoint).Delete(&models.Subscription{}).Error
}

// ListByUser returns every push subscription registered by userID
func (r *postgresSubscriptionRepository) ListByUser(ctx context.Context, userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error
	return subs, err
}
