package repositories

import (
	"context"

	"github.com/anonto42/memomap/backend/internal/models"
	"gorm.io/gorm"
)

// MemoRepository defines the interface for memo data operations
type MemoRepository interface {
	CreateMemo(ctx context.Context, memo *models.Memo) error
	GetMemoByID(ctx context.Context, id uint) (*models.Memo, error)
	ListPersonal(ctx context.Context, userID uint) ([]models.Memo, error)
	ListByGroup(ctx context.Context, groupID uint) ([]models.Memo, error)
	ListInBounds(ctx context.Context, userID uint, groupIDs []uint, b models.Bounds) ([]models.Memo, error)
	UpdateMemo(ctx context.Context, memo *models.Memo) error
	SetCompleted(ctx context.Context, id uint, completed bool) error
	DeleteMemo(ctx context.Context, id uint) error
}

// PostgresMemoRepository implements MemoRepository for PostgreSQL
type PostgresMemoRepository struct {
	db *gorm.DB
}

// NewPostgresMemoRepository creates a new PostgresMemoRepository
func NewPostgresMemoRepository(db *gorm.DB) *PostgresMemoRepository {
	return &PostgresMemoRepository{db: db}
}

// CreateMemo creates a new memo in PostgreSQL
func (r *PostgresMemoRepository) CreateMemo(ctx context.Context, memo *models.Memo) error {
	return r.db.WithContext(ctx).Create(memo).Error
}

// GetMemoByID retrieves a memo by ID from PostgreSQL
func (r *PostgresMemoRepository) GetMemoByID(ctx context.Context, id uint) (*models.Memo, error) {
	var memo models.Memo
	if err := r.db.WithContext(ctx).First(&memo, id).Error; err != nil {
		return nil, err
	}
	return &memo, nil
}

// ListPersonal returns the memos the user created outside of any group.
func (r *PostgresMemoRepository) ListPersonal(ctx context.Context, userID uint) ([]models.Memo, error) {
	var memos []models.Memo
	err := r.db.WithContext(ctx).
		Where("created_by_id = ? AND group_id IS NULL", userID).
		Order("created_at DESC").
		Find(&memos).Error
	return memos, err
}

// ListByGroup returns the memos of groupID, newest first
func (r *PostgresMemoRepository) ListByGroup(ctx context.Context, groupID uint) ([]models.Memo, error) {
	var memos []models.Memo
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Find(&memos).Error
	return memos, err
}

// ListInBounds returns the geotagged memos inside b that the user can see:
// their personal memos plus the memos of groupIDs. A box with West > East
// crosses the antimeridian.
func (r *PostgresMemoRepository) ListInBounds(ctx context.Context, userID uint, groupIDs []uint, b models.Bounds) ([]models.Memo, error) {
	var memos []models.Memo

	q := r.db.WithContext(ctx).
		Where("lat IS NOT NULL AND lon IS NOT NULL").
		Where("lat BETWEEN ? AND ?", b.South, b.North)
	if b.West <= b.East {
		q = q.Where("lon BETWEEN ? AND ?", b.West, b.East)
	} else {
		q = q.Where("(lon >= ? OR lon <= ?)", b.West, b.East)
	}

	visible := r.db.Where("created_by_id = ? AND group_id IS NULL", userID)
	if len(groupIDs) > 0 {
		visible = visible.Or("group_id IN ?", groupIDs)
	}

	err := q.Where(visible).Order("created_at DESC").Find(&memos).Error
	return memos, err
}

// UpdateMemo saves every field of memo to PostgreSQL
func (r *PostgresMemoRepository) UpdateMemo(ctx context.Context, memo *models.Memo) error {
	return r.db.WithContext(ctx).Save(memo).Error
}

// SetCompleted sets the completion flag of a memo
func (r *PostgresMemoRepository) SetCompleted(ctx context.Context, id uint, completed bool) error {
	res := r.db.WithContext(ctx).Model(&models.Memo{}).Where("id = ?", id).Update("completed", completed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteMemo deletes the memo row only; its comments are not touched.
func (r *PostgresMemoRepository) DeleteMemo(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Memo{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
