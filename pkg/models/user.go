package models

import "github.com/google/uuid"

// Role defines the access level of a user within an organization.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleRSSI        Role = "rssi"
	RoleContributor Role = "contributor"
	RoleViewer      Role = "viewer"
)

// roleRank orders roles for hierarchy checks, highest first.
var roleRank = map[Role]int{
	RoleAdmin:       4,
	RoleRSSI:        3,
	RoleContributor: 2,
	RoleViewer:      1,
}

// AtLeast reports whether the role grants at least the access of required.
func (r Role) AtLeast(required Role) bool {
	return roleRank[r] >= roleRank[required]
}

// User represents an authenticated user.
type User struct {
	ID    uuid.UUID `json:"id"`
	OrgID uuid.UUID `json:"orgId"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  Role      `json:"role"`
}
