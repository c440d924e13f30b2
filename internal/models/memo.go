package models

import (
	"strings"
	"time"
)

type Memo struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:200;not null"`
	Content     string    `json:"content" gorm:"type:text"`
	Place       string    `json:"place" gorm:"size:200"`
	Color       string    `json:"color" gorm:"size:20"`
	Completed   bool      `json:"completed" gorm:"not null;default:false;index"`
	Lat         *float64  `json:"lat,omitempty"`
	Lon         *float64  `json:"lon,omitempty"`
	CreatedByID uint      `json:"created_by_id" gorm:"index;not null"`
	GroupID     *uint     `json:"group_id,omitempty" gorm:"index"` // nil means personal memo
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (m *Memo) IsPersonal() bool {
	return m.GroupID == nil
}

// MemoInput carries the user-editable fields of a memo.
type MemoInput struct {
	Title   string   `json:"title" validate:"required,max=200"`
	Content string   `json:"content" validate:"max=5000"`
	Place   string   `json:"place" validate:"max=200"`
	Color   string   `json:"color" validate:"omitempty,max=20"`
	Lat     *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lon     *float64 `json:"lon,omitempty" validate:"omitempty,longitude"`
	GroupID *uint    `json:"group_id,omitempty"`
}

// NewMemo validates the input and returns an uncompleted memo.
func NewMemo(createdByID uint, in MemoInput) (*Memo, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrBlankTitle
	}
	if err := ValidateCoordinates(in.Lat, in.Lon); err != nil {
		return nil, err
	}
	return &Memo{
		Title:       title,
		Content:     in.Content,
		Place:       strings.TrimSpace(in.Place),
		Color:       in.Color,
		Lat:         in.Lat,
		Lon:         in.Lon,
		CreatedByID: createdByID,
		GroupID:     in.GroupID,
	}, nil
}

// ValidateCoordinates accepts either no coordinates or a full in-range pair.
func ValidateCoordinates(lat, lon *float64) error {
	if (lat == nil) != (lon == nil) {
		return ErrCoordinates
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 {
		return ErrLatitude
	}
	if *lon < -180 || *lon > 180 {
		return ErrLongitude
	}
	return nil
}

// UpdateMemoRequest is a partial update; nil fields are left untouched.
type UpdateMemoRequest struct {
	Title   *string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Content *string  `json:"content,omitempty" validate:"omitempty,max=5000"`
	Place   *string  `json:"place,omitempty" validate:"omitempty,max=200"`
	Color   *string  `json:"color,omitempty" validate:"omitempty,max=20"`
	Lat     *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lon     *float64 `json:"lon,omitempty" validate:"omitempty,longitude"`
}

// Bounds is a lat/lon rectangle used to list memos in the visible map area.
type Bounds struct {
	South float64 `query:"south" validate:"min=-90,max=90"`
	West  float64 `query:"west" validate:"min=-180,max=180"`
	North float64 `query:"north" validate:"min=-90,max=90"`
	East  float64 `query:"east" validate:"min=-180,max=180"`
}
