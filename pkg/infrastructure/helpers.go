package infrastructure

import (
	"github.com/google/uuid"

	"github.com/mateusmacedo/go-seatbooking/pkg/domain"
)

func GenerateUUID() string {
	return uuid.New().String()
}

// NewUUIDGenerator returns an IDGenerator producing random (v4) UUID strings.
func NewUUIDGenerator() domain.IDGenerator[string] {
	return GenerateUUID
}
