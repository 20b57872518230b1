package domain

import (
	"time"

	"github.com/google/uuid"
)

// User owns bills, odds schedules and parse templates.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
