package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity is a stored account of any principal kind
// GymID is set only for tenant scoped roles (client, trainer)
type Identity struct {
	ID             uuid.UUID
	Role           Role
	GymID          *uuid.UUID
	Email          string
	FullName       string
	HashedPassword string
	IsBlocked      bool
	IsDeleted      bool
	IsVerified     bool
	CreatedAt      time.Time
}

// Principal resolved from token claims and attached to request context
type Principal struct {
	ID    uuid.UUID
	Role  Role
	GymID *uuid.UUID
}

// Principal reconstructs the claims view of the identity
func (i Identity) Principal() Principal {
	return Principal{
		ID:    i.ID,
		Role:  i.Role,
		GymID: i.GymID,
	}
}

// TenantID returns the gym the principal acts for
// For the gym role the tenant is the gym itself
func (p Principal) TenantID() uuid.UUID {
	if p.GymID != nil {
		return *p.GymID
	}
	return p.ID
}
