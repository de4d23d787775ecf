package models

import (
	"time"

	"github.com/anonto42/yatube/backend/internal/validators"
)

// Follow links a follower (UserID) to the author they follow.
type Follow struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index;uniqueIndex:idx_follow_user_author" validate:"required"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index;uniqueIndex:idx_follow_user_author" validate:"required,nefield=UserID"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFollow rejects self-follows.
func NewFollow(userID, authorID uint) (*Follow, error) {
	f := &Follow{UserID: userID, AuthorID: authorID}
	if err := validators.Struct(f); err != nil {
		return nil, err
	}
	return f, nil
}

// All lists every relational model for auto-migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Group{},
		&Post{},
		&Comment{},
		&Follow{},
	}
}
