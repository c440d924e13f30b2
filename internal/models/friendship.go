package models

import (
	"fmt"
	"time"
)

// RelationStatus is the state of one directed friend or follow edge.
type RelationStatus string

const (
	StatusPending  RelationStatus = "PENDING"
	StatusAccepted RelationStatus = "ACCEPTED"
	StatusRejected RelationStatus = "REJECTED"
)

func (s RelationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Friend is one directed friend edge. A mutual friendship is stored as two
// ACCEPTED rows, one per direction.
type Friend struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	FromID    uint           `json:"from_id" gorm:"not null;index;uniqueIndex:idx_friend_pair"`
	ToID      uint           `json:"to_id" gorm:"not null;index;uniqueIndex:idx_friend_pair"`
	Status    RelationStatus `json:"status" gorm:"type:varchar(10);not null;default:'PENDING'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func NewFriend(fromID, toID uint, status RelationStatus) (*Friend, error) {
	if fromID == toID {
		return nil, ErrSelfRelation
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return &Friend{FromID: fromID, ToID: toID, Status: status}, nil
}

// FriendRequestView is a pending request joined with the other party.
type FriendRequestView struct {
	Friend
	User UserCompact `json:"user"`
}
