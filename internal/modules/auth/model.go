// README: Account model and the roles the API authorizes against.
package auth

import (
	"time"

	"campusride/internal/types"
)

type Role string

const (
	RoleRider Role = "rider"
	RoleHero  Role = "hero"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleRider, RoleHero, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           types.ID
	Email        string
	PasswordHash string
	Name         string
	Gender       types.Gender
	Role         Role
	CreatedAt    time.Time
}
