package handlers

import (
	"github.com/fluxapay/backend/internal/http/dto"
	"github.com/fluxapay/backend/internal/middleware"
	"github.com/fluxapay/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type RefundHandler struct {
	refundService *services.RefundService
	log           *zap.Logger
}

func NewRefundHandler(refundService *services.RefundService, log *zap.Logger) *RefundHandler {
	return &RefundHandler{refundService: refundService, log: log}
}

// CreateRefund opens a refund request against a payment.
// POST /refunds
func (h *RefundHandler) CreateRefund(c *fiber.Ctx) error {
	var req dto.CreateRefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := dto.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: dto.ValidationMessage(err)})
	}

	amount, ok := parseAmount(req.Amount)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "amount must be a decimal integer string"})
	}

	requester := middleware.GetAddress(c)
	refund, err := h.refundService.CreateRefund(c.Context(), req.PaymentID, amount, req.Reason, requester)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: dto.RefundFromModel(refund)})
}

// GetRefund returns a single refund.
// GET /refunds/:id
func (h *RefundHandler) GetRefund(c *fiber.Ctx) error {
	refund, err := h.refundService.GetRefund(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.RefundFromModel(refund)})
}

// ProcessRefund completes a pending refund. The service checks that the
// caller holds a settlement role.
// POST /refunds/:id/process
func (h *RefundHandler) ProcessRefund(c *fiber.Ctx) error {
	operator := middleware.GetAddress(c)
	if err := h.refundService.ProcessRefund(c.Context(), operator, c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// ListPaymentRefunds returns the refunds recorded against a payment in
// creation order.
// GET /payments/:id/refunds
func (h *RefundHandler) ListPaymentRefunds(c *fiber.Ctx) error {
	refunds, err := h.refundService.GetPaymentRefunds(c.Context(), c.Params("id"))
	if err != nil {
		h.log.Error("list payment refunds failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.RefundsFromModels(refunds)})
}
