package core

import "github.com/google/uuid"

// NewID returns a new unique identifier string (UUID v4).
func NewID() string { return uuid.NewString() }
