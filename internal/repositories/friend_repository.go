package repositories

import (
	"context"
	"time"

	"github.com/anonto42/memomap/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendRepository defines the interface for directed friend edges
type FriendRepository interface {
	GetEdge(ctx context.Context, fromID, toID uint) (*models.Friend, error)
	CreateEdge(ctx context.Context, edge *models.Friend) error
	UpdateStatus(ctx context.Context, id uint, status models.RelationStatus) error
	AcceptPair(ctx context.Context, fromID, toID uint) error
	DeleteBetween(ctx context.Context, a, b uint) (int64, error)
	ExistsAccepted(ctx context.Context, a, b uint) (bool, error)
	ListFriendIDs(ctx context.Context, userID uint) ([]uint, error)
	ListPendingTo(ctx context.Context, userID uint) ([]models.Friend, error)
	ListPendingFrom(ctx context.Context, userID uint) ([]models.Friend, error)
}

// PostgresFriendRepository implements FriendRepository for PostgreSQL
type PostgresFriendRepository struct {
	db *gorm.DB
}

// NewPostgresFriendRepository creates a new PostgresFriendRepository
func NewPostgresFriendRepository(db *gorm.DB) *PostgresFriendRepository {
	return &PostgresFriendRepository{db: db}
}

// GetEdge retrieves the directed friend edge from fromID to toID
func (r *PostgresFriendRepository) GetEdge(ctx context.Context, fromID, toID uint) (*models.Friend, error) {
	var edge models.Friend
	err := r.db.WithContext(ctx).Where("from_id = ? AND to_id = ?", fromID, toID).First(&edge).Error
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// CreateEdge creates a new friend edge in PostgreSQL
func (r *PostgresFriendRepository) CreateEdge(ctx context.Context, edge *models.Friend) error {
	return r.db.WithContext(ctx).Create(edge).Error
}

// UpdateStatus sets the status of a friend edge
func (r *PostgresFriendRepository) UpdateStatus(ctx context.Context, id uint, status models.RelationStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Friend{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AcceptPair turns the pending (from -> to) edge into ACCEPTED and writes the
// reciprocal (to -> from) ACCEPTED edge in the same transaction. It returns
// gorm.ErrRecordNotFound when there is no pending (from -> to) edge.
func (r *PostgresFriendRepository) AcceptPair(ctx context.Context, fromID, toID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Friend{}).
			Where("from_id = ? AND to_id = ? AND status = ?", fromID, toID, models.StatusPending).
			Update("status", models.StatusAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		reverse := &models.Friend{FromID: toID, ToID: fromID, Status: models.StatusAccepted}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "from_id"}, {Name: "to_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":     models.StatusAccepted,
				"updated_at": time.Now(),
			}),
		}).Create(reverse).Error
	})
}

// DeleteBetween removes every edge between a and b in both directions.
func (r *PostgresFriendRepository) DeleteBetween(ctx context.Context, a, b uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)", a, b, b, a).
		Delete(&models.Friend{})
	return res.RowsAffected, res.Error
}

// ExistsAccepted reports whether a and b are friends in either direction
func (r *PostgresFriendRepository) ExistsAccepted(ctx context.Context, a, b uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friend{}).
		Where("((from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)) AND status = ?", a, b, b, a, models.StatusAccepted).
		Count(&count).Error
	return count > 0, err
}

// ListFriendIDs looks at both directions so a half-written pair still counts.
func (r *PostgresFriendRepository) ListFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	db := r.db.WithContext(ctx)

	var outgoing, incoming []uint
	if err := db.Model(&models.Friend{}).
		Where("from_id = ? AND status = ?", userID, models.StatusAccepted).
		Pluck("to_id", &outgoing).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Friend{}).
		Where("to_id = ? AND status = ?", userID, models.StatusAccepted).
		Pluck("from_id", &incoming).Error; err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(outgoing)+len(incoming))
	ids := make([]uint, 0, len(outgoing)+len(incoming))
	for _, id := range append(outgoing, incoming...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// ListPendingTo returns friend requests sent to userID, newest first
func (r *PostgresFriendRepository) ListPendingTo(ctx context.Context, userID uint) ([]models.Friend, error) {
	var edges []models.Friend
	err := r.db.WithContext(ctx).
		Where("to_id = ? AND status = ?", userID, models.StatusPending).
		Order("created_at DESC").
		Find(&edges).Error
	return edges, err
}

// ListPendingFrom returns friend requests sent by userID, newest first
func (r *PostgresFriendRepository) ListPendingFrom(ctx context.Context, userID uint) ([]models.Friend, error) {
	var edges []models.Friend
	err := r.db.WithContext(ctx).
		Where("from_id = ? AND status = ?", userID, models.StatusPending).
		Order("created_at DESC").
		Find(&edges).Error
	return edges, err
}
