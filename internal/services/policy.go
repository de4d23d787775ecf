package services

import "github.com/anonto42/yatube/backend/internal/models"

// Principal is the identity a request executes on behalf of.
// The zero value is the anonymous visitor.
type Principal struct {
	UserID   uint
	Username string
}

// Anonymous is the principal of unauthenticated requests.
var Anonymous = Principal{}

func (p Principal) IsAuthenticated() bool {
	return p.UserID != 0
}

// CanCreate reports whether p may create posts and comments.
func CanCreate(p Principal) bool {
	return p.IsAuthenticated()
}

// CanEdit reports whether p is the author of post.
func CanEdit(p Principal, post *models.Post) bool {
	return p.IsAuthenticated() && post != nil && post.AuthorID == p.UserID
}
