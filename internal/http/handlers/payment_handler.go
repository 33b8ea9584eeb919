package handlers

import (
	"strconv"

	"github.com/fluxapay/backend/internal/http/dto"
	"github.com/fluxapay/backend/internal/middleware"
	"github.com/fluxapay/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	log            *zap.Logger
}

func NewPaymentHandler(paymentService *services.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, log: log}
}

// CreatePayment registers a pending charge for the authenticated merchant.
// POST /payments
func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	var req dto.CreatePaymentRequest
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

	merchantID := middleware.GetAddress(c)
	payment, err := h.paymentService.CreatePayment(c.Context(), req.PaymentID, merchantID, amount, req.Currency, req.DepositAddress, req.ExpiresAt)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: dto.PaymentFromModel(payment)})
}

// GetPayment returns a single charge.
// GET /payments/:id
func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	payment, err := h.paymentService.GetPayment(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.PaymentFromModel(payment)})
}

// ListPayments returns the authenticated merchant's charges, newest first.
// GET /payments
func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	limit, offset := 20, 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}

	merchantID := middleware.GetAddress(c)
	payments, err := h.paymentService.ListMerchantPayments(c.Context(), merchantID, limit, offset)
	if err != nil {
		h.log.Error("list payments failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.PaymentsFromModels(payments)})
}

// VerifyPayment records the amount received on chain against a charge. The
// route is gated on the ORACLE role; the deposit watcher calls the service
// directly. A mismatched amount is a normal outcome, not an error: the
// response carries the resulting status.
// POST /payments/:id/verify
func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	var req dto.VerifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := dto.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: dto.ValidationMessage(err)})
	}

	amount, ok := parseAmount(req.AmountReceived)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "amount_received must be a decimal integer string"})
	}

	paymentID := c.Params("id")
	status, err := h.paymentService.VerifyPayment(c.Context(), paymentID, req.TxHash, req.PayerAddress, amount)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.VerifyResultResponse{PaymentID: paymentID, Status: status}})
}

// CancelPayment moves an overdue pending charge to expired.
// POST /payments/:id/cancel
func (h *PaymentHandler) CancelPayment(c *fiber.Ctx) error {
	if err := h.paymentService.CancelPayment(c.Context(), c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// GetPaymentEvents returns the audit trail of a charge, newest first.
// GET /payments/:id/events
func (h *PaymentHandler) GetPaymentEvents(c *fiber.Ctx) error {
	events, err := h.paymentService.GetPaymentEvents(c.Context(), c.Params("id"))
	if err != nil {
		h.log.Error("get payment events failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: events})
}
