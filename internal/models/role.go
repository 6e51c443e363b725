package models

import "fmt"

// Role of an authenticated principal
// Stored in token claims and used to select the identity repository
type Role string

const (
	RoleGym        Role = "gym"
	RoleClient     Role = "client"
	RoleTrainer    Role = "trainer"
	RoleSuperAdmin Role = "superadmin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) Valid() bool {
	switch r {
	case RoleGym, RoleClient, RoleTrainer, RoleSuperAdmin:
		return true
	}
	return false
}

// IsTenantScoped reports whether identities of this role belong to a gym
func (r Role) IsTenantScoped() bool {
	return r == RoleClient || r == RoleTrainer
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}
