package sdk

import (
	"github.com/google/uuid"
)

// NewID returns a time-ordered UUIDv7 in canonical dashed form.
// The low 74 bits come from crypto/rand, so IDs generated on different
// machines do not collide in practice.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the system random source is broken.
		panic(err)
	}
	return id.String()
}

// ParseID validates an element identifier
func ParseID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
