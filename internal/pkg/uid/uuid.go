package uid

import "github.com/google/uuid"

// UUID generates string identifiers, preferring time-ordered v7 UUIDs so
// tokens and correlation ids sort roughly by creation time.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a v7 UUID string, falling back to v4 if the random
// source fails.
func (u *UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
