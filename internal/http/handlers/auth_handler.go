package handlers

import (
	"github.com/fluxapay/backend/internal/http/dto"
	"github.com/fluxapay/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *services.AuthService
	log         *zap.Logger
}

func NewAuthHandler(authService *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

// ProofPayload issues a nonce for TON Connect.
// POST /auth/proof-payload
func (h *AuthHandler) ProofPayload(c *fiber.Ctx) error {
	payload, err := h.authService.GeneratePayload(c.Context())
	if err != nil {
		h.log.Error("failed to generate proof payload", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.ProofPayloadResponse{Payload: payload})
}

// TonProof verifies a signed proof and mints a JWT for the address.
// POST /auth/ton-proof
func (h *AuthHandler) TonProof(c *fiber.Ctx) error {
	var req dto.TonProofRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := dto.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: dto.ValidationMessage(err)})
	}
	if req.Proof.Signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "proof.signature is required"})
	}

	token, err := h.authService.VerifyProof(c.Context(), services.VerifyProofRequest{
		Address:   req.Address,
		Network:   req.Network,
		PublicKey: req.PublicKey,
		Proof:     req.Proof,
	})
	if err != nil {
		h.log.Debug("ton proof rejected", zap.Error(err))
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.AuthResponse{Token: token, Address: req.Address})
}
