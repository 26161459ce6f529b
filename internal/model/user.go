package model

import "time"

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is the authenticated identity attached to a request after the
// bearer token has been verified. RawToken and ExpiresAt are carried so
// logout can revoke the exact token that was presented.
type Principal struct {
	UserID    string
	RawToken  string
	ExpiresAt time.Time
}
