package utils

import "github.com/google/uuid"

// NewID returns a random UUIDv4 string, used for every entity primary key.
func NewID() string { return uuid.NewString() }
