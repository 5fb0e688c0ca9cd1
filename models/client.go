// models/client.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Client lifecycle states
const (
	ClientStatusPending     = "pending"
	ClientStatusEnrolled    = "enrolled"
	ClientStatusNotEnrolled = "not_enrolled"
)

// ValidClientStatus reports whether s is a recognized lifecycle state.
func ValidClientStatus(s string) bool {
	switch s {
	case ClientStatusPending, ClientStatusEnrolled, ClientStatusNotEnrolled:
		return true
	}
	return false
}

// ReferredClient is a prospective enrollee registered by an agency. The
// owning agency never changes after creation.
type ReferredClient struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name"`
	Email          string             `json:"email" bson:"email"`
	Phone          string             `json:"phone" bson:"phone"`
	Status         string             `json:"status" bson:"status"`
	AgencyID       primitive.ObjectID `json:"agencyId" bson:"agencyId"`
	AgencyName     string             `json:"agencyName,omitempty" bson:"agencyName,omitempty"`
	EnrollmentDate *time.Time         `json:"enrollmentDate,omitempty" bson:"enrollmentDate,omitempty"`
	Notes          string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type RegisterClientRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Notes    string `json:"notes,omitempty"`
	AgencyID string `json:"agencyId,omitempty"` // admin only; operators are pinned to their own agency
}

type UpdateClientRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required"`
	Notes string `json:"notes,omitempty"`
}

type UpdateClientStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
