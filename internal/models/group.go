package models

import (
	"strings"

	"github.com/anonto42/yatube/backend/internal/validators"
	"github.com/gosimple/slug"
)

// Group is a topical community posts can be filed under.
// Groups are created by operators, never by end users.
type Group struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"size:200;not null" validate:"notblank,max=200"`
	Slug        string `json:"slug" gorm:"size:100;uniqueIndex;not null" validate:"required,max=100"`
	Description string `json:"description" gorm:"type:text"`
}

// NewGroup derives the slug from the title when none is given.
func NewGroup(title, groupSlug, description string) (*Group, error) {
	title = strings.TrimSpace(title)
	groupSlug = strings.TrimSpace(groupSlug)
	if groupSlug == "" {
		groupSlug = slug.Make(title)
	} else {
		groupSlug = slug.Make(groupSlug)
	}

	g := &Group{
		Title:       title,
		Slug:        groupSlug,
		Description: strings.TrimSpace(description),
	}
	if err := validators.Struct(g); err != nil {
		return nil, err
	}
	return g, nil
}
