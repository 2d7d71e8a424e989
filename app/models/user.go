package models

import "time"

// Role is the marketplace role of a user.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// Status is the verification status of a seller. It carries no meaning for
// buyers and admins.
type Status string

const (
	StatusUnverified Status = "unverified"
	StatusVerified   Status = "verified"
)

// User is keyed by the identity provider's uid, which never changes.
type User struct {
	UID       string    `bson:"uid"        json:"uid"`
	Name      string    `bson:"name"       json:"name"`
	Email     string    `bson:"email"      json:"email"`
	Role      Role      `bson:"role"       json:"role"`
	Status    Status    `bson:"status"     json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (u *User) IsVerifiedSeller() bool {
	return u != nil && u.Role == RoleSeller && u.Status == StatusVerified
}
