// Package model defines domain entities for the application.
package model

import (
	"errors"
	"time"
)

// Domain rule violations raised by entity methods.
var (
	ErrAlreadyCompleted = errors.New("habit already completed today")
	ErrInvalidDateRange = errors.New("end_date must not be before start_date")
)

// Entity is implemented by every user-owned resource.
type Entity interface {
	EntityID() string
	OwnerID() string
	Touch(now time.Time)
	LastModified() time.Time
	// Check enforces invariants that span several fields.
	Check() error
}

// Base holds the columns shared by all user-owned resources.
type Base struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBase stamps a fresh identity for an entity owned by ownerID.
func NewBase(id, ownerID string, now time.Time) Base {
	now = now.UTC()
	return Base{
		ID:        id,
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// EntityID returns the entity identifier.
func (b *Base) EntityID() string {
	return b.ID
}

// OwnerID returns the identifier of the owning user.
func (b *Base) OwnerID() string {
	return b.UserID
}

// Touch bumps the modification timestamp.
func (b *Base) Touch(now time.Time) {
	b.UpdatedAt = now.UTC()
}

// LastModified returns the modification timestamp.
func (b *Base) LastModified() time.Time {
	return b.UpdatedAt
}

// Check is the default no-op invariant check.
func (b *Base) Check() error {
	return nil
}
