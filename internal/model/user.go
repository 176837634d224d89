package model

import "time"

// Roles stored in users.role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether r is a role the API accepts.
func ValidRole(r string) bool { return r == RoleUser || r == RoleAdmin }

// User represents an application user record as stored in the
// `users` table. The password hash never leaves the server.
type User struct {
	ID               string     `json:"id"`                // users.id
	Name             string     `json:"name"`              // users.name
	Email            string     `json:"email"`             // users.email
	PasswordHash     string     `json:"-"`                 // users.password_hash
	Role             string     `json:"role"`              // users.role
	Organization     *string    `json:"organization"`      // users.organization (nullable)
	OrganizationType *string    `json:"organization_type"` // users.organization_type (nullable)
	LastActive       *time.Time `json:"last_active"`       // users.last_active (nullable)
	CreatedAt        time.Time  `json:"created_at"`        // users.created_at
}
