package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	BarBottom = "bottom"
	BarSide   = "side"

	DefaultMapStyle = "streets"
)

type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UUID        string    `json:"uuid" gorm:"type:varchar(36);uniqueIndex;not null"` // stable external handle
	Name        string    `json:"name" gorm:"size:50;not null"`
	Email       string    `json:"email" gorm:"uniqueIndex;not null"`
	Password    string    `json:"-"`                                         // bcrypt hash, empty for firebase-only users
	FirebaseUID *string   `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // nullable so several local users can coexist
	Avatar      string    `json:"avatar,omitempty"`                          // object key in the avatar bucket
	Theme       string    `json:"theme" gorm:"size:10;default:'light'"`
	Bar         string    `json:"bar" gorm:"size:10;default:'bottom'"`
	Tutorial    bool      `json:"tutorial_done" gorm:"column:tutorial_done;default:false"`
	MapStyle    string    `json:"map_style" gorm:"size:30;default:'streets'"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewUser builds a user with a fresh external handle and default preferences.
func NewUser(name, email string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrBlankName
	}
	return &User{
		UUID:     uuid.NewString(),
		Name:     name,
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Theme:    ThemeLight,
		Bar:      BarBottom,
		MapStyle: DefaultMapStyle,
	}, nil
}

// UserCompact is the public projection of a user embedded in other payloads.
type UserCompact struct {
	ID     uint   `json:"id"`
	UUID   string `json:"uuid"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, UUID: u.UUID, Name: u.Name, Avatar: u.Avatar}
}

type CreateLocalUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	Name     string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Theme    string `json:"theme,omitempty" validate:"omitempty,oneof=light dark"`
	Bar      string `json:"bar,omitempty" validate:"omitempty,oneof=bottom side"`
	Tutorial *bool  `json:"tutorial_done,omitempty"`
	MapStyle string `json:"map_style,omitempty" validate:"omitempty,max=30"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
