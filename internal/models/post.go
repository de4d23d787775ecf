package models

import (
	"strings"
	"time"

	"github.com/anonto42/yatube/backend/internal/validators"
	"github.com/google/uuid"
)

// Post is stored in the relational store or in MongoDB depending on POST_STORE.
// Author and Group are filled in by the listing service, never persisted through the post.
type Post struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Text      string    `json:"text" gorm:"type:text;not null" bson:"text" validate:"notblank"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index" bson:"author_id" validate:"required"`
	GroupID   *uint     `json:"group_id,omitempty" gorm:"index" bson:"group_id,omitempty"`
	Image     string    `json:"image,omitempty" bson:"image,omitempty"`
	CreatedAt time.Time `json:"created_at" gorm:"index" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`

	Author   *User  `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" bson:"-"`
	Group    *Group `json:"group,omitempty" gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" bson:"-"`
	ImageURL string `json:"image_url,omitempty" gorm:"-" bson:"-"`
}

// NewPost validates the draft and assigns it an identity.
func NewPost(authorID uint, text string, groupID *uint) (*Post, error) {
	p := &Post{
		ID:       uuid.NewString(),
		Text:     strings.TrimSpace(text),
		AuthorID: authorID,
		GroupID:  groupID,
	}
	if err := validators.Struct(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Edit replaces the editable fields. Author and creation time never change.
func (p *Post) Edit(text string, groupID *uint) error {
	draft := *p
	draft.Text = strings.TrimSpace(text)
	draft.GroupID = groupID
	if err := validators.Struct(&draft); err != nil {
		return err
	}
	p.Text = draft.Text
	p.GroupID = draft.GroupID
	return nil
}

// PostForm is the create/edit form. Image arrives separately as a multipart file.
type PostForm struct {
	Text       string `json:"text" form:"text" validate:"notblank"`
	Group      *uint  `json:"group,omitempty" form:"group"`
	ClearImage bool   `json:"clear_image,omitempty" form:"clear_image"`
}
