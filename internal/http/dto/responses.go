package dto

import (
	"time"

	"github.com/fluxapay/backend/internal/models"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	Address string `json:"address"`
}

type ProofPayloadResponse struct {
	Payload string `json:"payload"`
}

// PaymentResponse mirrors models.PaymentCharge with the amount rendered as a
// decimal string. NUMERIC(39,0) values do not fit a JSON number.
type PaymentResponse struct {
	PaymentID      string     `json:"payment_id"`
	MerchantID     string     `json:"merchant_id"`
	Amount         string     `json:"amount"`
	Currency       string     `json:"currency"`
	DepositAddress string     `json:"deposit_address"`
	Status         string     `json:"status"`
	PayerAddress   *string    `json:"payer_address,omitempty"`
	TxHash         *string    `json:"tx_hash,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	ExpiresAt      time.Time  `json:"expires_at"`
}

func PaymentFromModel(p *models.PaymentCharge) PaymentResponse {
	return PaymentResponse{
		PaymentID:      p.PaymentID,
		MerchantID:     p.MerchantID,
		Amount:         p.Amount.String(),
		Currency:       p.Currency,
		DepositAddress: p.DepositAddress,
		Status:         p.Status,
		PayerAddress:   p.PayerAddress,
		TxHash:         p.TxHash,
		CreatedAt:      p.CreatedAt,
		ConfirmedAt:    p.ConfirmedAt,
		ExpiresAt:      p.ExpiresAt,
	}
}

func PaymentsFromModels(payments []models.PaymentCharge) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = PaymentFromModel(&payments[i])
	}
	return out
}

type RefundResponse struct {
	RefundID    string     `json:"refund_id"`
	PaymentID   string     `json:"payment_id"`
	Amount      string     `json:"amount"`
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	Requester   string     `json:"requester"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

func RefundFromModel(r *models.Refund) RefundResponse {
	return RefundResponse{
		RefundID:    r.RefundID,
		PaymentID:   r.PaymentID,
		Amount:      r.Amount.String(),
		Reason:      r.Reason,
		Status:      r.Status,
		Requester:   r.Requester,
		CreatedAt:   r.CreatedAt,
		ProcessedAt: r.ProcessedAt,
	}
}

func RefundsFromModels(refunds []models.Refund) []RefundResponse {
	out := make([]RefundResponse, len(refunds))
	for i := range refunds {
		out[i] = RefundFromModel(&refunds[i])
	}
	return out
}

type VerifyResultResponse struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

type HasRoleResponse struct {
	Role    string `json:"role"`
	Account string `json:"account"`
	Held    bool   `json:"held"`
}

type AdminResponse struct {
	Admin string `json:"admin,omitempty"`
}
