package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fluxapay/backend/internal/auth"
	"github.com/fluxapay/backend/internal/config"
	"github.com/fluxapay/backend/internal/models"
	"github.com/fluxapay/backend/internal/ton"
	"go.uber.org/zap"
)

var (
	// ErrProofPayloadInvalid: the nonce is unknown, already used or expired.
	ErrProofPayloadInvalid = errors.New("invalid or expired proof payload")
	// ErrProofInvalid: the address, network or signature did not check out.
	ErrProofInvalid = errors.New("proof verification failed")
)

type AuthService struct {
	payloads  PayloadStore
	auditRepo AuditStore
	cfg       *config.Config
	log       *zap.Logger
}

func NewAuthService(payloads PayloadStore, auditRepo AuditStore, cfg *config.Config, log *zap.Logger) *AuthService {
	return &AuthService{
		payloads:  payloads,
		auditRepo: auditRepo,
		cfg:       cfg,
		log:       log,
	}
}

// GeneratePayload creates a nonce for TON Proof. The client passes it to
// tonconnect before signing.
func (s *AuthService) GeneratePayload(ctx context.Context) (string, error) {
	ttl := 5 * time.Minute
	p, err := s.payloads.CreateProofPayload(ctx, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to create proof payload: %w", err)
	}
	return p.Payload, nil
}

type VerifyProofRequest struct {
	Address   string    `json:"address"`    // raw: "0:abc..."
	Network   string    `json:"network"`    // "mainnet" / "testnet"
	PublicKey string    `json:"public_key"` // hex
	Proof     ton.Proof `json:"proof"`
}

// VerifyProof checks a TON Connect proof and mints a JWT for the proven
// address. The nonce is consumed first, so a failed proof still burns it.
func (s *AuthService) VerifyProof(ctx context.Context, req VerifyProofRequest) (string, error) {
	p, err := s.payloads.ConsumeProofPayload(ctx, req.Proof.Payload)
	if err != nil {
		return "", fmt.Errorf("consume proof payload: %w", err)
	}
	if p == nil {
		return "", ErrProofPayloadInvalid
	}

	workchain, addrHash, err := ton.ParseRawAddress(req.Address)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProofInvalid, err)
	}

	if req.Network != "" && req.Network != s.cfg.TONNetwork {
		return "", fmt.Errorf("%w: network mismatch: expected %s, got %s", ErrProofInvalid, s.cfg.TONNetwork, req.Network)
	}

	if err := ton.VerifyProof(req.PublicKey, addrHash, workchain, req.Proof, s.cfg.TONProofAllowedDomains); err != nil {
		return "", fmt.Errorf("%w: %v", ErrProofInvalid, err)
	}

	token, err := auth.GenerateJWT(s.cfg.JWTSecret, req.Address, s.cfg.JWTExpiration)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	payloadID := p.ID.String()
	_ = s.auditRepo.Log(ctx, models.AuditLog{
		Actor:      &req.Address,
		ActorType:  "wallet",
		Action:     "login",
		EntityType: "auth_payload",
		EntityID:   &payloadID,
		Meta:       map[string]any{"network": req.Network, "domain": req.Proof.Domain.Value},
	})

	s.log.Info("proof verified",
		zap.String("address", req.Address),
		zap.String("domain", req.Proof.Domain.Value),
	)

	return token, nil
}
