package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fluxapay/backend/internal/events"
	"github.com/fluxapay/backend/internal/models"
	"go.uber.org/zap"
)

var (
	ErrMerchantNotFound      = errors.New("merchant not found")
	ErrMerchantAlreadyExists = errors.New("merchant already registered")
	ErrMerchantUnauthorized  = errors.New("caller is not allowed to manage this merchant")
	ErrAdminAlreadySet       = errors.New("registry admin already set")
)

type MerchantService struct {
	merchants MerchantStore
	auditRepo AuditStore
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewMerchantService(
	merchants MerchantStore,
	auditRepo AuditStore,
	publisher events.Publisher,
	log *zap.Logger,
) *MerchantService {
	return &MerchantService{
		merchants: merchants,
		auditRepo: auditRepo,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Initialize records the registry admin. Unlike access control, the registry
// refuses re-initialization outright.
func (s *MerchantService) Initialize(ctx context.Context, admin string) error {
	current, err := s.merchants.Admin(ctx)
	if err != nil {
		return fmt.Errorf("lookup registry admin: %w", err)
	}
	if current != "" {
		return ErrAdminAlreadySet
	}

	if err := s.merchants.SetAdmin(ctx, admin); err != nil {
		return fmt.Errorf("set registry admin: %w", err)
	}
	s.log.Info("merchant registry initialized", zap.String("admin", admin))
	return nil
}

// RegisterMerchant creates a merchant record. Accounts register themselves:
// the caller must be the merchant being registered.
func (s *MerchantService) RegisterMerchant(ctx context.Context, caller, merchantID, businessName, settlementCurrency string) (*models.Merchant, error) {
	if caller != merchantID {
		return nil, ErrMerchantUnauthorized
	}

	existing, err := s.merchants.GetByID(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("lookup merchant: %w", err)
	}
	if existing != nil {
		return nil, ErrMerchantAlreadyExists
	}

	merchant := &models.Merchant{
		MerchantID:         merchantID,
		BusinessName:       businessName,
		SettlementCurrency: settlementCurrency,
		Verified:           false,
		Active:             true,
		CreatedAt:          s.now().UTC(),
	}

	if err := s.merchants.Create(ctx, merchant); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		Actor:      &merchantID,
		ActorType:  "merchant",
		Action:     "merchant_registered",
		EntityType: "merchant",
		EntityID:   &merchant.MerchantID,
		Meta:       map[string]any{"business_name": businessName, "settlement_currency": settlementCurrency},
	})

	_ = s.publisher.Publish(ctx, "events:payment", events.Event{
		Type: events.EventMerchantRegistered,
		Payload: map[string]any{
			"merchant_id": merchant.MerchantID,
		},
	})

	s.log.Info("merchant registered",
		zap.String("merchant_id", merchantID),
		zap.String("business_name", businessName),
	)
	return merchant, nil
}

// UpdateMerchant applies a partial update to the caller's own record.
func (s *MerchantService) UpdateMerchant(ctx context.Context, caller, merchantID string, upd models.MerchantUpdate) (*models.Merchant, error) {
	if caller != merchantID {
		return nil, ErrMerchantUnauthorized
	}

	merchant, err := s.getMerchant(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	if upd.BusinessName != nil {
		merchant.BusinessName = *upd.BusinessName
	}
	if upd.SettlementCurrency != nil {
		merchant.SettlementCurrency = *upd.SettlementCurrency
	}
	if upd.Active != nil {
		merchant.Active = *upd.Active
	}

	if err := s.merchants.Update(ctx, merchant); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		Actor:      &merchantID,
		ActorType:  "merchant",
		Action:     "merchant_updated",
		EntityType: "merchant",
		EntityID:   &merchant.MerchantID,
	})

	return merchant, nil
}

func (s *MerchantService) GetMerchant(ctx context.Context, merchantID string) (*models.Merchant, error) {
	return s.getMerchant(ctx, merchantID)
}

// VerifyMerchant marks a merchant verified. Only the registry admin may
// verify; the check fails closed when no admin was ever set.
func (s *MerchantService) VerifyMerchant(ctx context.Context, caller, merchantID string) error {
	admin, err := s.merchants.Admin(ctx)
	if err != nil {
		return fmt.Errorf("lookup registry admin: %w", err)
	}
	if admin == "" || caller != admin {
		return ErrMerchantUnauthorized
	}

	merchant, err := s.getMerchant(ctx, merchantID)
	if err != nil {
		return err
	}

	merchant.Verified = true
	if err := s.merchants.Update(ctx, merchant); err != nil {
		return err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		Actor:      &caller,
		ActorType:  "admin",
		Action:     "merchant_verified",
		EntityType: "merchant",
		EntityID:   &merchant.MerchantID,
	})

	_ = s.publisher.Publish(ctx, "events:payment", events.Event{
		Type: events.EventMerchantVerified,
		Payload: map[string]any{
			"merchant_id": merchant.MerchantID,
		},
	})

	s.log.Info("merchant verified",
		zap.String("merchant_id", merchantID),
		zap.String("admin", caller),
	)
	return nil
}

func (s *MerchantService) getMerchant(ctx context.Context, merchantID string) (*models.Merchant, error) {
	merchant, err := s.merchants.GetByID(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("lookup merchant: %w", err)
	}
	if merchant == nil {
		return nil, ErrMerchantNotFound
	}
	return merchant, nil
}
