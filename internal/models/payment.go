package models

import (
	"math/big"
	"time"
)

// Payment statuses
const (
	PaymentStatusPending   = "pending"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusExpired   = "expired"
	PaymentStatusFailed    = "failed"
)

// Valid state transitions: from -> []to
var ValidPaymentTransitions = map[string][]string{
	PaymentStatusPending:   {PaymentStatusConfirmed, PaymentStatusExpired, PaymentStatusFailed},
	PaymentStatusConfirmed: {},
	PaymentStatusExpired:   {},
	PaymentStatusFailed:    {},
}

func IsValidPaymentTransition(from, to string) bool {
	allowed, ok := ValidPaymentTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

type PaymentCharge struct {
	PaymentID      string     `json:"payment_id"`
	MerchantID     string     `json:"merchant_id"`
	Amount         *big.Int   `json:"amount"` // smallest currency unit
	Currency       string     `json:"currency"`
	DepositAddress string     `json:"deposit_address"`
	Status         string     `json:"status"`
	PayerAddress   *string    `json:"payer_address,omitempty"`
	TxHash         *string    `json:"tx_hash,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	ExpiresAt      time.Time  `json:"expires_at"`
}
