package domain

import "time"

// User represents an account that can sign in and own posts.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
