package handlers

import (
	"github.com/fluxapay/backend/internal/http/dto"
	"github.com/fluxapay/backend/internal/middleware"
	"github.com/fluxapay/backend/internal/models"
	"github.com/fluxapay/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type MerchantHandler struct {
	merchantService *services.MerchantService
	log             *zap.Logger
}

func NewMerchantHandler(merchantService *services.MerchantService, log *zap.Logger) *MerchantHandler {
	return &MerchantHandler{merchantService: merchantService, log: log}
}

// RegisterMerchant registers the authenticated address as a merchant.
// POST /merchants
func (h *MerchantHandler) RegisterMerchant(c *fiber.Ctx) error {
	var req dto.RegisterMerchantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := dto.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: dto.ValidationMessage(err)})
	}

	caller := middleware.GetAddress(c)
	merchant, err := h.merchantService.RegisterMerchant(c.Context(), caller, caller, req.BusinessName, req.SettlementCurrency)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: merchant})
}

// GetMerchant returns a merchant profile.
// GET /merchants/:id
func (h *MerchantHandler) GetMerchant(c *fiber.Ctx) error {
	merchant, err := h.merchantService.GetMerchant(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: merchant})
}

// UpdateMerchant applies a partial update. Only the merchant itself may
// change its profile.
// PATCH /merchants/:id
func (h *MerchantHandler) UpdateMerchant(c *fiber.Ctx) error {
	var req dto.UpdateMerchantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := dto.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: dto.ValidationMessage(err)})
	}

	caller := middleware.GetAddress(c)
	merchant, err := h.merchantService.UpdateMerchant(c.Context(), caller, c.Params("id"), models.MerchantUpdate{
		BusinessName:       req.BusinessName,
		SettlementCurrency: req.SettlementCurrency,
		Active:             req.Active,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: merchant})
}

// VerifyMerchant marks a merchant verified. Only the registry admin may do
// this.
// POST /merchants/:id/verify
func (h *MerchantHandler) VerifyMerchant(c *fiber.Ctx) error {
	caller := middleware.GetAddress(c)
	if err := h.merchantService.VerifyMerchant(c.Context(), caller, c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
