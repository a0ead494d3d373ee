package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User is an administrative identity. Only the bcrypt hash of the secret is stored.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Role         string
	Enabled      bool
	CreatedAt    time.Time
}
