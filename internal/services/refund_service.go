package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/fluxapay/backend/internal/events"
	"github.com/fluxapay/backend/internal/models"
	"github.com/fluxapay/backend/internal/rbac"
	"go.uber.org/zap"
)

var (
	ErrRefundNotFound         = errors.New("refund not found")
	ErrRefundAlreadyProcessed = errors.New("refund already processed")
	ErrInvalidRefundAmount    = errors.New("refund amount must be positive")
	ErrRefundUnauthorized     = errors.New("caller holds neither settlement operator nor oracle role")
)

type RefundService struct {
	refunds   RefundStore
	roles     RoleChecker
	auditRepo AuditStore
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewRefundService(
	refunds RefundStore,
	roles RoleChecker,
	auditRepo AuditStore,
	publisher events.Publisher,
	log *zap.Logger,
) *RefundService {
	return &RefundService{
		refunds:   refunds,
		roles:     roles,
		auditRepo: auditRepo,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// CreateRefund records a refund request against a payment reference. The
// payment itself is not looked up; refund accounting stays decoupled from
// the charge lifecycle.
func (s *RefundService) CreateRefund(ctx context.Context, paymentID string, amount *big.Int, reason, requester string) (*models.Refund, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidRefundAmount
	}

	refund := &models.Refund{
		PaymentID: paymentID,
		Amount:    new(big.Int).Set(amount),
		Reason:    reason,
		Status:    models.RefundStatusPending,
		Requester: requester,
		CreatedAt: s.now().UTC(),
	}

	if err := s.refunds.CreateWithNextID(ctx, refund); err != nil {
		return nil, fmt.Errorf("create refund: %w", err)
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		Actor:      &requester,
		ActorType:  "merchant",
		Action:     "refund_created",
		EntityType: "refund",
		EntityID:   &refund.RefundID,
		Meta:       map[string]any{"payment_id": paymentID, "amount": amount.String()},
	})

	_ = s.publisher.Publish(ctx, "events:payment", events.Event{
		Type: events.EventRefundCreated,
		Payload: map[string]any{
			"refund_id":  refund.RefundID,
			"payment_id": paymentID,
		},
	})

	s.log.Info("refund created",
		zap.String("refund_id", refund.RefundID),
		zap.String("payment_id", paymentID),
		zap.String("amount", amount.String()),
	)
	return refund, nil
}

// ProcessRefund completes a pending refund. Only settlement operators and
// oracles may process.
func (s *RefundService) ProcessRefund(ctx context.Context, operator, refundID string) error {
	allowed, err := s.hasSettlementRole(ctx, operator)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrRefundUnauthorized
	}

	refund, err := s.refunds.GetByID(ctx, refundID)
	if err != nil {
		return fmt.Errorf("lookup refund: %w", err)
	}
	if refund == nil {
		return ErrRefundNotFound
	}

	if refund.Status != models.RefundStatusPending {
		return ErrRefundAlreadyProcessed
	}

	processedAt := s.now().UTC()
	refund.Status = models.RefundStatusCompleted
	refund.ProcessedAt = &processedAt
	if err := s.refunds.Update(ctx, refund); err != nil {
		return err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		Actor:      &operator,
		ActorType:  "operator",
		Action:     "refund_processed",
		EntityType: "refund",
		EntityID:   &refund.RefundID,
		Meta:       map[string]any{"payment_id": refund.PaymentID},
	})

	_ = s.publisher.Publish(ctx, "events:payment", events.Event{
		Type: events.EventRefundProcessed,
		Payload: map[string]any{
			"refund_id":  refund.RefundID,
			"payment_id": refund.PaymentID,
		},
	})

	s.log.Info("refund processed",
		zap.String("refund_id", refundID),
		zap.String("operator", operator),
	)
	return nil
}

func (s *RefundService) GetRefund(ctx context.Context, refundID string) (*models.Refund, error) {
	refund, err := s.refunds.GetByID(ctx, refundID)
	if err != nil {
		return nil, fmt.Errorf("lookup refund: %w", err)
	}
	if refund == nil {
		return nil, ErrRefundNotFound
	}
	return refund, nil
}

// GetPaymentRefunds resolves every refund recorded against a payment. Index
// entries that no longer resolve are skipped rather than failing the whole
// read.
func (s *RefundService) GetPaymentRefunds(ctx context.Context, paymentID string) ([]models.Refund, error) {
	ids, err := s.refunds.ListIDsByPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("list refunds: %w", err)
	}

	refunds := make([]models.Refund, 0, len(ids))
	for _, id := range ids {
		refund, err := s.refunds.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("lookup refund: %w", err)
		}
		if refund == nil {
			continue
		}
		refunds = append(refunds, *refund)
	}
	return refunds, nil
}

func (s *RefundService) hasSettlementRole(ctx context.Context, account string) (bool, error) {
	operator, err := s.roles.HasRole(ctx, rbac.RoleSettlementOperator, account)
	if err != nil {
		return false, err
	}
	if operator {
		return true, nil
	}
	return s.roles.HasRole(ctx, rbac.RoleOracle, account)
}
