package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Withdrawal lifecycle states
const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusRejected = "rejected"
)

type Withdrawal struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID  `bson:"userId" json:"userId"`
	Reference       string              `bson:"reference" json:"reference"`
	Amount          float64             `bson:"amount" json:"amount"`
	Status          string              `bson:"status" json:"status"` // e.g., "pending", "approved", "rejected"
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	ProcessedAt     *time.Time          `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	AdminID         *primitive.ObjectID `bson:"adminId,omitempty" json:"adminId,omitempty"`
	AdminNote       string              `bson:"adminNote,omitempty" json:"adminNote,omitempty"`
	UserNote        string              `bson:"userNote,omitempty" json:"userNote,omitempty"`
	RejectionReason string              `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	PayoutID        int64               `bson:"payoutId,omitempty" json:"payoutId,omitempty"` // external processor transaction id
}

// WithdrawalRequest represents the request body for requesting a commission withdrawal
type WithdrawalRequest struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	UserNote string  `json:"userNote,omitempty"`
}

// WithdrawalProcessRequest represents the admin approve/reject request body
type WithdrawalProcessRequest struct {
	Status    string `json:"status" validate:"required,oneof=approved rejected"`
	AdminNote string `json:"adminNote,omitempty"`
}
