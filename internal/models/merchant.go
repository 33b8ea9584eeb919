package models

import "time"

type Merchant struct {
	MerchantID         string    `json:"merchant_id"`
	BusinessName       string    `json:"business_name"`
	SettlementCurrency string    `json:"settlement_currency"`
	Verified           bool      `json:"verified"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
}

// MerchantUpdate carries a partial update; nil fields are left untouched.
type MerchantUpdate struct {
	BusinessName       *string `json:"business_name,omitempty"`
	SettlementCurrency *string `json:"settlement_currency,omitempty"`
	Active             *bool   `json:"active,omitempty"`
}
