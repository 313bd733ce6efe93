package utils

import "github.com/google/uuid"

// NewID returns a random 36-char UUID string.
func NewID() string { return uuid.NewString() }
