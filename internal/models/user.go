package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"size:150;uniqueIndex;not null"`
	Email       string    `json:"-" gorm:"size:254;uniqueIndex;not null"`
	Password    string    `json:"-"`                                          // bcrypt hash
	FirebaseUID *string   `json:"-" gorm:"size:128;uniqueIndex"`              // set once linked through Firebase login
	CreatedAt   time.Time `json:"created_at"`
}

// Public strips everything but the fields shown next to a user's posts and comments.
func (u *User) Public() *User {
	return &User{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}

type SignupRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=150,username"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
	Next     string `json:"next" form:"next" query:"next"`
}

type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" form:"idToken" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
