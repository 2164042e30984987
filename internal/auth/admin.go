package auth

import (
	"errors"
	"time"
)

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrWrongCredentials  = errors.New("wrong credentials")
	ErrAdminNotFound     = errors.New("admin not found")
	ErrAdminExists       = errors.New("admin username or email taken")
	ErrResetTokenInvalid = errors.New("reset token invalid")
)

// Admin is a credential record for a dashboard user. The reset token fields
// are set only while a password reset is pending.
type Admin struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	ResetToken       *string    `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
