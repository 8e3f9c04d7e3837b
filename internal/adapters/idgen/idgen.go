package idgen

import "github.com/google/uuid"

// UUIDGenerator implements ports.IDGenerator with random (version 4) UUIDs.
type UUIDGenerator struct{}

// New returns a UUIDGenerator.
func New() UUIDGenerator { return UUIDGenerator{} }

// Next returns a fresh UUID string.
func (UUIDGenerator) Next() string {
	return uuid.NewString()
}
