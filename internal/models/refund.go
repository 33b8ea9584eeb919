package models

import (
	"math/big"
	"strconv"
	"time"
)

// Refund statuses. Approved and rejected are reserved for a future approval
// step; no operation currently moves a refund into them.
const (
	RefundStatusPending   = "pending"
	RefundStatusApproved  = "approved"
	RefundStatusCompleted = "completed"
	RefundStatusRejected  = "rejected"
)

type Refund struct {
	RefundID    string     `json:"refund_id"`
	PaymentID   string     `json:"payment_id"`
	Amount      *big.Int   `json:"amount"` // smallest currency unit
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	Requester   string     `json:"requester"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// FormatRefundID renders the id assigned to the n-th allocated refund.
// Distinct counter values always yield distinct ids.
func FormatRefundID(n uint64) string {
	return "refund_" + strconv.FormatUint(n, 10)
}
