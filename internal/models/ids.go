package models

import "github.com/google/uuid"

// NewID returns a fresh system-assigned document identifier.
func NewID() string {
	return uuid.NewString()
}
