package models

import (
	"strings"
	"time"

	"github.com/anonto42/yatube/backend/internal/validators"
)

// Comment represents a comment on a post. Comments are never edited.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"type:varchar(36);not null;index" validate:"required"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index" validate:"required"`
	Text      string    `json:"text" gorm:"type:text;not null" validate:"notblank"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

func NewComment(postID string, authorID uint, text string) (*Comment, error) {
	c := &Comment{
		PostID:   postID,
		AuthorID: authorID,
		Text:     strings.TrimSpace(text),
	}
	if err := validators.Struct(c); err != nil {
		return nil, err
	}
	return c, nil
}

type CommentForm struct {
	Text string `json:"text" form:"text" validate:"notblank"`
}
