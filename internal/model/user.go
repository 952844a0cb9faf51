package model

import "time"

// User is an account holder. It carries no credential material; password
// hashes live in Credential and are only read by the auth service.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Credential binds a login email to a stored password hash.
type Credential struct {
	UserID       string
	PasswordHash string
}
