// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleAdmin  = "admin"  // super-administrator, unscoped
	RoleAgency = "agency" // operator bound to exactly one agency
)

// User model
type User struct {
	ID               primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Email            string              `json:"email" bson:"email"`
	Password         string              `json:"password,omitempty" bson:"password"`
	Role             string              `json:"role" bson:"role"`
	AgencyID         *primitive.ObjectID `json:"agencyId,omitempty" bson:"agencyId,omitempty"`
	TwoFactorEnabled bool                `json:"twoFactorEnabled" bson:"twoFactorEnabled"`
	TwoFactorSecret  string              `json:"-" bson:"twoFactorSecret,omitempty"`
	IsActive         bool                `json:"isActive" bson:"isActive"`
	LastLogin        *time.Time          `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt        time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Actor is the authenticated identity every scoped operation runs as,
// resolved from the JWT before any core call.
type Actor struct {
	UserID   primitive.ObjectID
	Email    string
	Role     string
	AgencyID *primitive.ObjectID
}

// IsAdmin reports whether the actor is the unscoped super-administrator.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Profile is the /auth/me view of a user.
type Profile struct {
	ID               primitive.ObjectID  `json:"id"`
	Email            string              `json:"email"`
	Role             string              `json:"role"`
	AgencyID         *primitive.ObjectID `json:"agencyId,omitempty"`
	AgencyName       string              `json:"agencyName,omitempty"`
	TwoFactorEnabled bool                `json:"twoFactorEnabled"`
	LastLogin        *time.Time          `json:"lastLogin,omitempty"`
}
