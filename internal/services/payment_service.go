package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/fluxapay/backend/internal/events"
	"github.com/fluxapay/backend/internal/models"
	"go.uber.org/zap"
)

var (
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrPaymentAlreadyExists    = errors.New("payment already exists")
	ErrInvalidAmount           = errors.New("amount must be positive")
	ErrPaymentExpired          = errors.New("payment has expired")
	ErrPaymentAlreadyProcessed = errors.New("payment already processed")
	ErrInvalidPaymentID        = errors.New("payment id must not be empty")
	ErrPaymentNotExpired       = errors.New("payment has not expired yet")
)

type PaymentService struct {
	payments  PaymentStore
	auditRepo AuditStore
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewPaymentService(
	payments PaymentStore,
	auditRepo AuditStore,
	publisher events.Publisher,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		payments:  payments,
		auditRepo: auditRepo,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// transition validates and performs a status transition with audit logging.
func (s *PaymentService) transition(ctx context.Context, payment *models.PaymentCharge, newStatus string, actor *string, actorType, eventType string) error {
	if !models.IsValidPaymentTransition(payment.Status, newStatus) {
		return fmt.Errorf("invalid transition from %s to %s", payment.Status, newStatus)
	}

	oldStatus := payment.Status
	payment.Status = newStatus
	if err := s.payments.Update(ctx, payment); err != nil {
		payment.Status = oldStatus
		return err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		Actor:      actor,
		ActorType:  actorType,
		Action:     fmt.Sprintf("payment_status_%s_to_%s", oldStatus, newStatus),
		EntityType: "payment",
		EntityID:   &payment.PaymentID,
		Meta:       map[string]any{"old_status": oldStatus, "new_status": newStatus},
	})

	_ = s.publisher.Publish(ctx, "events:payment", events.Event{
		Type: eventType,
		Payload: map[string]any{
			"payment_id": payment.PaymentID,
			"status":     newStatus,
		},
	})

	return nil
}

func (s *PaymentService) CreatePayment(ctx context.Context, paymentID, merchantID string, amount *big.Int, currency, depositAddress string, expiresAt time.Time) (*models.PaymentCharge, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if paymentID == "" {
		return nil, ErrInvalidPaymentID
	}

	existing, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("lookup payment: %w", err)
	}
	if existing != nil {
		return nil, ErrPaymentAlreadyExists
	}

	payment := &models.PaymentCharge{
		PaymentID:      paymentID,
		MerchantID:     merchantID,
		Amount:         new(big.Int).Set(amount),
		Currency:       currency,
		DepositAddress: depositAddress,
		Status:         models.PaymentStatusPending,
		CreatedAt:      s.now().UTC(),
		ExpiresAt:      expiresAt,
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		Actor:      &merchantID,
		ActorType:  "merchant",
		Action:     "payment_created",
		EntityType: "payment",
		EntityID:   &payment.PaymentID,
		Meta:       map[string]any{"amount": amount.String(), "currency": currency},
	})

	_ = s.publisher.Publish(ctx, "events:payment", events.Event{
		Type: events.EventPaymentCreated,
		Payload: map[string]any{
			"payment_id": payment.PaymentID,
			"status":     payment.Status,
		},
	})

	s.log.Info("payment created",
		zap.String("payment_id", paymentID),
		zap.String("merchant_id", merchantID),
		zap.String("amount", amount.String()),
	)
	return payment, nil
}

// VerifyPayment records an observed deposit against a pending payment and
// returns the resulting status. An amount that does not exactly match marks
// the payment failed; that outcome is reported through the returned status,
// not an error.
func (s *PaymentService) VerifyPayment(ctx context.Context, paymentID, txHash, payerAddress string, amountReceived *big.Int) (string, error) {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return "", err
	}

	if payment.Status != models.PaymentStatusPending {
		return "", ErrPaymentAlreadyProcessed
	}

	if s.now().After(payment.ExpiresAt) {
		return "", ErrPaymentExpired
	}

	if amountReceived == nil || amountReceived.Cmp(payment.Amount) != 0 {
		if err := s.transition(ctx, payment, models.PaymentStatusFailed, nil, "oracle", events.EventPaymentFailed); err != nil {
			return "", err
		}
		s.log.Warn("payment amount mismatch",
			zap.String("payment_id", paymentID),
			zap.String("expected", payment.Amount.String()),
			zap.String("received", bigString(amountReceived)),
		)
		return models.PaymentStatusFailed, nil
	}

	confirmedAt := s.now().UTC()
	payment.PayerAddress = &payerAddress
	payment.TxHash = &txHash
	payment.ConfirmedAt = &confirmedAt
	if err := s.transition(ctx, payment, models.PaymentStatusConfirmed, nil, "oracle", events.EventPaymentVerified); err != nil {
		return "", err
	}

	s.log.Info("payment confirmed",
		zap.String("payment_id", paymentID),
		zap.String("payer", payerAddress),
		zap.String("tx_hash", txHash),
	)
	return models.PaymentStatusConfirmed, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*models.PaymentCharge, error) {
	return s.getPayment(ctx, paymentID)
}

func (s *PaymentService) ListMerchantPayments(ctx context.Context, merchantID string, limit, offset int) ([]models.PaymentCharge, error) {
	return s.payments.ListByMerchant(ctx, merchantID, limit, offset)
}

func (s *PaymentService) GetPaymentEvents(ctx context.Context, paymentID string) ([]models.AuditLog, error) {
	return s.auditRepo.GetByEntity(ctx, "payment", paymentID, 100, 0)
}

// CancelPayment moves a pending payment past its expiry to expired. Payments
// still inside their expiry window cannot be cancelled.
func (s *PaymentService) CancelPayment(ctx context.Context, paymentID string) error {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return err
	}

	if payment.Status != models.PaymentStatusPending {
		return ErrPaymentAlreadyProcessed
	}

	if !s.now().After(payment.ExpiresAt) {
		return ErrPaymentNotExpired
	}

	return s.transition(ctx, payment, models.PaymentStatusExpired, nil, "system", events.EventPaymentCancelled)
}

// SweepExpired cancels pending payments whose expiry has passed. Payments
// that race with a concurrent verify are skipped; the per-payment guard
// re-checks status.
func (s *PaymentService) SweepExpired(ctx context.Context, limit int) (int, error) {
	ids, err := s.payments.ListExpiredPendingIDs(ctx, s.now(), limit)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, id := range ids {
		if err := s.CancelPayment(ctx, id); err != nil {
			s.log.Warn("sweep could not cancel payment",
				zap.String("payment_id", id),
				zap.Error(err),
			)
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

func (s *PaymentService) getPayment(ctx context.Context, paymentID string) (*models.PaymentCharge, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("lookup payment: %w", err)
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

func bigString(n *big.Int) string {
	if n == nil {
		return "<nil>"
	}
	return n.String()
}
