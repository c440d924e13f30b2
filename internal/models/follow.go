package models

import (
	"fmt"
	"time"
)

// Follow is a directed follow edge. Unlike Friend it never creates a
// reciprocal row.
type Follow struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	FollowerID  uint           `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_following"`
	FollowingID uint           `json:"following_id" gorm:"index;uniqueIndex:idx_follower_following"`
	Status      RelationStatus `json:"status" gorm:"type:varchar(10);not null;default:'PENDING'"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func NewFollow(followerID, followingID uint) (*Follow, error) {
	if followerID == followingID {
		return nil, ErrSelfRelation
	}
	return &Follow{FollowerID: followerID, FollowingID: followingID, Status: StatusPending}, nil
}

func (f *Follow) SetStatus(s RelationStatus) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	f.Status = s
	return nil
}
