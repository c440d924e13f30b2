package models

import (
	"math/rand/v2"
	"strings"
	"time"
)

// CommentPalette is the fixed set of colors a comment can be given.
var CommentPalette = [8]string{
	"#F87171", "#FB923C", "#FACC15", "#4ADE80",
	"#22D3EE", "#60A5FA", "#A78BFA", "#F472B6",
}

// Comment is an append-only note on a memo. Color is set once at creation.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	MemoID    uint      `json:"memo_id" gorm:"index;not null"`
	AuthorID  uint      `json:"author_id" gorm:"index;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Color     string    `json:"color" gorm:"size:20;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// NewComment picks the color with pick, which must return a value in [0, n).
// A nil pick uses math/rand.
func NewComment(memoID, authorID uint, content string, pick func(n int) int) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrBlankContent
	}
	if pick == nil {
		pick = rand.IntN
	}
	return &Comment{
		MemoID:   memoID,
		AuthorID: authorID,
		Content:  content,
		Color:    CommentPalette[pick(len(CommentPalette))],
	}, nil
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}
