package repositories

import (
	"context"

	"github.com/anonto42/memomap/backend/internal/models"
	"gorm.io/gorm"
)

// GroupRepository defines the interface for group and membership data operations
type GroupRepository interface {
	CreateWithMembers(ctx context.Context, group *models.Group, members []*models.GroupMember) error
	GetByID(ctx context.Context, id uint) (*models.Group, error)
	ListForUser(ctx context.Context, userID uint) ([]models.GroupSummary, error)
	UpdateName(ctx context.Context, id uint, name string) error
	DeleteCascade(ctx context.Context, id uint) error

	GetMember(ctx context.Context, groupID, userID uint) (*models.GroupMember, error)
	ListMembers(ctx context.Context, groupID uint) ([]models.GroupMember, error)
	AddMember(ctx context.Context, member *models.GroupMember) error
	UpdateMemberRole(ctx context.Context, groupID, userID uint, role models.Role) error
	RemoveMember(ctx context.Context, groupID, userID uint) error
	CountMemberships(ctx context.Context, userID uint) (int64, error)
	ListGroupIDsForUser(ctx context.Context, userID uint) ([]uint, error)
}

// PostgresGroupRepository implements GroupRepository for PostgreSQL
type PostgresGroupRepository struct {
	db *gorm.DB
}

// NewPostgresGroupRepository creates a new PostgresGroupRepository
func NewPostgresGroupRepository(db *gorm.DB) *PostgresGroupRepository {
	return &PostgresGroupRepository{db: db}
}

// CreateWithMembers inserts the group and all of its initial memberships in
// one transaction. The members' GroupID is filled in from the new group.
func (r *PostgresGroupRepository) CreateWithMembers(ctx context.Context, group *models.Group, members []*models.GroupMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		for _, m := range members {
			m.GroupID = group.ID
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves a group by ID from PostgreSQL
func (r *PostgresGroupRepository) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// ListForUser returns every group the user belongs to with their role and the member count.
func (r *PostgresGroupRepository) ListForUser(ctx context.Context, userID uint) ([]models.GroupSummary, error) {
	db := r.db.WithContext(ctx)

	var memberships []models.GroupMember
	if err := db.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return []models.GroupSummary{}, nil
	}

	roles := make(map[uint]models.Role, len(memberships))
	ids := make([]uint, 0, len(memberships))
	for _, m := range memberships {
		roles[m.GroupID] = m.Role
		ids = append(ids, m.GroupID)
	}

	var groups []models.Group
	if err := db.Where("id IN ?", ids).Order("created_at DESC").Find(&groups).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		GroupID uint
		Total   int64
	}
	err := db.Model(&models.GroupMember{}).
		Select("group_id, COUNT(*) AS total").
		Where("group_id IN ?", ids).
		Group("group_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	totals := make(map[uint]int64, len(counts))
	for _, c := range counts {
		totals[c.GroupID] = c.Total
	}

	summaries := make([]models.GroupSummary, 0, len(groups))
	for _, g := range groups {
		summaries = append(summaries, models.GroupSummary{
			Group:       g,
			Role:        roles[g.ID],
			MemberCount: totals[g.ID],
		})
	}
	return summaries, nil
}

// UpdateName renames a group in PostgreSQL
func (r *PostgresGroupRepository) UpdateName(ctx context.Context, id uint, name string) error {
	res := r.db.WithContext(ctx).Model(&models.Group{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCascade removes the group's memos, memberships and the group itself.
// Comments on the removed memos are left in place.
func (r *PostgresGroupRepository) DeleteCascade(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&models.Memo{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Group{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// GetMember retrieves the membership of userID in groupID
func (r *PostgresGroupRepository) GetMember(ctx context.Context, groupID, userID uint) (*models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.WithContext(ctx).Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers returns every membership of groupID
func (r *PostgresGroupRepository) ListMembers(ctx context.Context, groupID uint) ([]models.GroupMember, error) {
	var members []models.GroupMember
	if err := r.db.WithContext(ctx).Where("group_id = ?", groupID).Order("id").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// AddMember creates a new group membership in PostgreSQL
func (r *PostgresGroupRepository) AddMember(ctx context.Context, member *models.GroupMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// UpdateMemberRole sets the role of userID in groupID
func (r *PostgresGroupRepository) UpdateMemberRole(ctx context.Context, groupID, userID uint, role models.Role) error {
	res := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RemoveMember deletes the membership of userID in groupID
func (r *PostgresGroupRepository) RemoveMember(ctx context.Context, groupID, userID uint) error {
	res := r.db.WithContext(ctx).Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&models.GroupMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountMemberships counts the groups userID belongs to
func (r *PostgresGroupRepository) CountMemberships(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// ListGroupIDsForUser returns the IDs of every group userID belongs to
func (r *PostgresGroupRepository) ListGroupIDsForUser(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).Where("user_id = ?", userID).Pluck("group_id", &ids).Error
	return ids, err
}
