// models/agency.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Agency is a node in the ownership tree. Root agencies have no parent.
type Agency struct {
	ID             primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Name           string              `json:"name" bson:"name"`
	Email          string              `json:"email" bson:"email"`
	Phone          string              `json:"phone,omitempty" bson:"phone,omitempty"`
	ParentAgencyID *primitive.ObjectID `json:"parentAgencyId,omitempty" bson:"parentAgencyId,omitempty"`
	CreatedAt      time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// AgencyNode is one row of the flattened tree view, stamped with its depth
// (root = level 0).
type AgencyNode struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id"`
	Name           string              `json:"name" bson:"name"`
	Email          string              `json:"email" bson:"email"`
	Phone          string              `json:"phone,omitempty" bson:"phone,omitempty"`
	ParentAgencyID *primitive.ObjectID `json:"parentAgencyId,omitempty" bson:"parentAgencyId,omitempty"`
	Level          int                 `json:"level" bson:"-"`
}

// AgencyDetails is a single agency together with its client/commission totals.
type AgencyDetails struct {
	Agency             `bson:",inline"`
	TotalClients       int64   `json:"totalClients" bson:"-"`
	EnrolledClients    int64   `json:"enrolledClients" bson:"-"`
	TotalCommissions   float64 `json:"totalCommissions" bson:"-"`
	PendingCommissions float64 `json:"pendingCommissions" bson:"-"`
}

type CreateAgencyRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone,omitempty"`
	ParentAgencyID string `json:"parentAgencyId,omitempty"`
}

type UpdateAgencyRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty"`
}

// CreatedAgencyResponse carries the one-time generated operator password.
// It is never persisted in clear and never shown again.
type CreatedAgencyResponse struct {
	Agency          Agency `json:"agency"`
	DefaultPassword string `json:"defaultPassword"`
}
