package handlers

import (
	"errors"
	"math/big"

	"github.com/fluxapay/backend/internal/http/dto"
	"github.com/fluxapay/backend/internal/rbac"
	"github.com/fluxapay/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError maps service sentinels onto HTTP statuses. Unknown errors are
// logged and surface as opaque 500s.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	switch {
	case errors.Is(err, services.ErrPaymentNotFound),
		errors.Is(err, services.ErrRefundNotFound),
		errors.Is(err, services.ErrMerchantNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})

	case errors.Is(err, services.ErrPaymentAlreadyExists),
		errors.Is(err, services.ErrPaymentAlreadyProcessed),
		errors.Is(err, services.ErrPaymentExpired),
		errors.Is(err, services.ErrPaymentNotExpired),
		errors.Is(err, services.ErrRefundAlreadyProcessed),
		errors.Is(err, services.ErrMerchantAlreadyExists),
		errors.Is(err, services.ErrAdminAlreadySet),
		errors.Is(err, rbac.ErrRoleAlreadyGranted),
		errors.Is(err, rbac.ErrRoleNotGranted),
		errors.Is(err, rbac.ErrCannotRenounceAdmin):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})

	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidPaymentID),
		errors.Is(err, services.ErrInvalidRefundAmount):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})

	case errors.Is(err, rbac.ErrUnauthorized),
		errors.Is(err, services.ErrRefundUnauthorized),
		errors.Is(err, services.ErrMerchantUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: err.Error()})

	case errors.Is(err, services.ErrProofPayloadInvalid),
		errors.Is(err, services.ErrProofInvalid):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	log.Error("request failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
}

func parseAmount(s string) (*big.Int, bool) {
	return new(big.Int).SetString(s, 10)
}
