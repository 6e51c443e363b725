package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Membership plan offered by a gym
type Plan struct {
	ID           uuid.UUID
	GymID        uuid.UUID
	Name         string
	Price        decimal.Decimal
	DurationDays int
	CreatedAt    time.Time
}
