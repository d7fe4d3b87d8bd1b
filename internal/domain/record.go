// Package domain holds the reading tracker's entities and the pure logic that operates on them.
package domain

import "time"

// Record carries the identity and timestamps every stored entity shares.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
func (r *Record) InitTimestamps(now time.Time) {
	r.CreatedAt = now
	r.UpdatedAt = now
}

// Touch updates UpdatedAt. Call this whenever the entity changes.
func (r *Record) Touch(now time.Time) {
	r.UpdatedAt = now
}
