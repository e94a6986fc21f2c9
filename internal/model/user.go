package model

import "time"

// Roles recognised by the role guard.
const (
	RoleAdmin          = "Admin"
	RoleContentManager = "Content Manager"
	RoleUser           = "User"
)

type User struct {
	ID        int       `db:"id"`
	Email     string    `db:"email"`
	Name      *string   `db:"name"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// HasRole reports whether the user holds any of roles.
func (u *User) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
