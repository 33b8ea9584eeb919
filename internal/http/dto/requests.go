package dto

import (
	"time"

	"github.com/fluxapay/backend/internal/ton"
)

// Auth

type TonProofRequest struct {
	Address   string    `json:"address" validate:"required,ton_address"`
	Network   string    `json:"network" validate:"omitempty,oneof=mainnet testnet"`
	PublicKey string    `json:"public_key" validate:"required,len=64,hexadecimal"`
	Proof     ton.Proof `json:"proof"`
}

// Payments

type CreatePaymentRequest struct {
	PaymentID      string    `json:"payment_id" validate:"required,max=64"`
	Amount         string    `json:"amount" validate:"required,amount"` // smallest currency unit
	Currency       string    `json:"currency" validate:"required,max=16"`
	DepositAddress string    `json:"deposit_address" validate:"required,max=128"`
	ExpiresAt      time.Time `json:"expires_at" validate:"required"`
}

type VerifyPaymentRequest struct {
	TxHash         string `json:"tx_hash" validate:"required,max=128"`
	PayerAddress   string `json:"payer_address" validate:"required,max=128"`
	AmountReceived string `json:"amount_received" validate:"required,amount"`
}

// Refunds

type CreateRefundRequest struct {
	PaymentID string `json:"payment_id" validate:"required,max=64"`
	Amount    string `json:"amount" validate:"required,amount"`
	Reason    string `json:"reason" validate:"required,max=512"`
}

// Merchants

type RegisterMerchantRequest struct {
	BusinessName       string `json:"business_name" validate:"required,min=2,max=128"`
	SettlementCurrency string `json:"settlement_currency" validate:"required,max=16"`
}

type UpdateMerchantRequest struct {
	BusinessName       *string `json:"business_name,omitempty" validate:"omitempty,min=2,max=128"`
	SettlementCurrency *string `json:"settlement_currency,omitempty" validate:"omitempty,max=16"`
	Active             *bool   `json:"active,omitempty"`
}

// Roles

type GrantRoleRequest struct {
	Role    string `json:"role" validate:"required,oneof=ADMIN ORACLE MERCHANT SETTLEMENT_OPERATOR"`
	Account string `json:"account" validate:"required,ton_address"`
}

type RevokeRoleRequest struct {
	Role    string `json:"role" validate:"required,oneof=ADMIN ORACLE MERCHANT SETTLEMENT_OPERATOR"`
	Account string `json:"account" validate:"required,ton_address"`
}

type RenounceRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN ORACLE MERCHANT SETTLEMENT_OPERATOR"`
}

type TransferAdminRequest struct {
	NewAdmin string `json:"new_admin" validate:"required,ton_address"`
}
