package services

import (
	"context"
	"time"

	"github.com/fluxapay/backend/internal/models"
)

// Store interfaces consumed by the services. The pgx repositories implement
// them; tests substitute in-memory fakes.

type PaymentStore interface {
	Create(ctx context.Context, payment *models.PaymentCharge) error
	// GetByID returns nil when no payment has the id.
	GetByID(ctx context.Context, paymentID string) (*models.PaymentCharge, error)
	Update(ctx context.Context, payment *models.PaymentCharge) error
	// ListExpiredPendingIDs returns ids of pending payments whose expiry
	// lies strictly before cutoff, oldest first.
	ListExpiredPendingIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	// ListByMerchant returns a merchant's payments, newest first.
	ListByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]models.PaymentCharge, error)
}

type RefundStore interface {
	// CreateWithNextID allocates the next counter value, assigns the rendered
	// id to refund.RefundID, stores the refund and appends it to the payment's
	// refund index in one atomic step.
	CreateWithNextID(ctx context.Context, refund *models.Refund) error
	// GetByID returns nil when no refund has the id.
	GetByID(ctx context.Context, refundID string) (*models.Refund, error)
	Update(ctx context.Context, refund *models.Refund) error
	// ListIDsByPayment returns the refund ids recorded against a payment in
	// creation order. Unknown payments yield an empty list.
	ListIDsByPayment(ctx context.Context, paymentID string) ([]string, error)
}

type MerchantStore interface {
	Create(ctx context.Context, merchant *models.Merchant) error
	// GetByID returns nil when no merchant has the id.
	GetByID(ctx context.Context, merchantID string) (*models.Merchant, error)
	Update(ctx context.Context, merchant *models.Merchant) error
	// Admin returns the registry admin address, empty when never set.
	Admin(ctx context.Context) (string, error)
	SetAdmin(ctx context.Context, address string) error
}

type AuditStore interface {
	Log(ctx context.Context, entry models.AuditLog) error
	GetByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]models.AuditLog, error)
}

// PayloadStore hands out and burns the nonces behind TON Connect logins.
type PayloadStore interface {
	CreateProofPayload(ctx context.Context, ttl time.Duration) (*models.AuthPayload, error)
	// ConsumeProofPayload returns nil when the nonce is unknown, used or
	// expired.
	ConsumeProofPayload(ctx context.Context, payload string) (*models.AuthPayload, error)
}

// RoleChecker answers role membership questions; *rbac.Service satisfies it.
type RoleChecker interface {
	HasRole(ctx context.Context, role, account string) (bool, error)
}
