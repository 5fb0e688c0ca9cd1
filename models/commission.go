// models/commission.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Commission payment states
const (
	CommissionPending = "pending"
	CommissionPaid    = "paid"
)

// Commission is a monthly, per-client monetary record owed to the owning
// agency. The agency id is denormalized from the client at creation time and
// never diverges afterwards. At most one commission exists per
// (clientId, month) pair; the unique index enforces it.
type Commission struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Amount        float64            `json:"amount" bson:"amount"`
	Month         string             `json:"month" bson:"month"` // YYYY-MM
	PaymentStatus string             `json:"paymentStatus" bson:"paymentStatus"`
	ClientID      primitive.ObjectID `json:"clientId" bson:"clientId"`
	AgencyID      primitive.ObjectID `json:"agencyId" bson:"agencyId"`
	ClientName    string             `json:"clientName,omitempty" bson:"clientName,omitempty"`
	AgencyName    string             `json:"agencyName,omitempty" bson:"agencyName,omitempty"`
	PaidAt        *time.Time         `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	PaymentNotes  string             `json:"paymentNotes,omitempty" bson:"paymentNotes,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type PayCommissionRequest struct {
	PaymentNotes string `json:"paymentNotes,omitempty"`
}

// CommissionStats aggregates commission totals for the actor's scope.
type CommissionStats struct {
	TotalCommissions int64   `json:"totalCommissions" bson:"totalCommissions"`
	TotalAmount      float64 `json:"totalAmount" bson:"totalAmount"`
	PendingAmount    float64 `json:"pendingAmount" bson:"pendingAmount"`
	PaidAmount       float64 `json:"paidAmount" bson:"paidAmount"`
	PendingCount     int64   `json:"pendingCount" bson:"pendingCount"`
	PaidCount        int64   `json:"paidCount" bson:"paidCount"`
}

// MonthlyCommissionGroup is one bucket of the groupBy=month listing.
type MonthlyCommissionGroup struct {
	Month         string  `json:"month" bson:"month"`
	PaymentStatus string  `json:"paymentStatus" bson:"paymentStatus"`
	Count         int64   `json:"count" bson:"count"`
	TotalAmount   float64 `json:"totalAmount" bson:"totalAmount"`
}
