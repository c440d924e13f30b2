package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is a user's privilege level inside one group.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleViewer Role = "VIEWER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// NormalizeRole canonicalizes a role name without judging it; Valid decides.
func NormalizeRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

// ParseRole accepts the role name in any case.
func ParseRole(s string) (Role, error) {
	r := NormalizeRole(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

type Group struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	OwnerID   uint      `json:"owner_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Group) TableName() string {
	return "memo_groups"
}

// NewGroup trims the name and rejects blank ones.
func NewGroup(name string, ownerID uint) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrBlankName
	}
	return &Group{Name: name, OwnerID: ownerID}, nil
}

// GroupMember is the (user, group, role) association. Unique per pair.
type GroupMember struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index;uniqueIndex:idx_user_group"`
	GroupID   uint      `json:"group_id" gorm:"not null;index;uniqueIndex:idx_user_group"`
	Role      Role      `json:"role" gorm:"type:varchar(10);not null;default:'VIEWER'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GroupSummary is a group as seen by one of its members.
type GroupSummary struct {
	Group
	Role        Role  `json:"role"`
	MemberCount int64 `json:"member_count"`
}

// MemberView is a membership joined with its user.
type MemberView struct {
	User UserCompact `json:"user"`
	Role Role        `json:"role"`
}

type CreateGroupRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	MemberIDs []uint `json:"member_ids" validate:"omitempty,dive,gt=0"`
}

type UpdateGroupRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type AddMemberRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}
