package handlers

import (
	"github.com/fluxapay/backend/internal/http/dto"
	"github.com/fluxapay/backend/internal/middleware"
	"github.com/fluxapay/backend/internal/rbac"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type RoleHandler struct {
	roles *rbac.Service
	log   *zap.Logger
}

func NewRoleHandler(roles *rbac.Service, log *zap.Logger) *RoleHandler {
	return &RoleHandler{roles: roles, log: log}
}

// GrantRole gives an account a role. Admin only.
// POST /roles/grant
func (h *RoleHandler) GrantRole(c *fiber.Ctx) error {
	var req dto.GrantRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := dto.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: dto.ValidationMessage(err)})
	}

	caller := middleware.GetAddress(c)
	if err := h.roles.GrantRole(c.Context(), caller, req.Role, req.Account); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// RevokeRole removes a role from an account. Admin only.
// POST /roles/revoke
func (h *RoleHandler) RevokeRole(c *fiber.Ctx) error {
	var req dto.RevokeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := dto.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: dto.ValidationMessage(err)})
	}

	caller := middleware.GetAddress(c)
	if err := h.roles.RevokeRole(c.Context(), caller, req.Role, req.Account); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// RenounceRole lets the caller give up one of its own roles. ADMIN cannot be
// renounced.
// POST /roles/renounce
func (h *RoleHandler) RenounceRole(c *fiber.Ctx) error {
	var req dto.RenounceRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := dto.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: dto.ValidationMessage(err)})
	}

	caller := middleware.GetAddress(c)
	if err := h.roles.RenounceRole(c.Context(), caller, req.Role); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// HasRole answers whether an account holds a role.
// GET /roles/:role/:account
func (h *RoleHandler) HasRole(c *fiber.Ctx) error {
	role := c.Params("role")
	account := c.Params("account")

	held, err := h.roles.HasRole(c.Context(), role, account)
	if err != nil {
		h.log.Error("has role check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.HasRoleResponse{Role: role, Account: account, Held: held})
}

// GetAdmin returns the current access-control admin, empty when access
// control was never initialized.
// GET /admin
func (h *RoleHandler) GetAdmin(c *fiber.Ctx) error {
	admin, err := h.roles.GetAdmin(c.Context())
	if err != nil {
		h.log.Error("get admin failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.AdminResponse{Admin: admin})
}

// TransferAdmin hands the admin role to another account in one step.
// POST /admin/transfer
func (h *RoleHandler) TransferAdmin(c *fiber.Ctx) error {
	var req dto.TransferAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := dto.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: dto.ValidationMessage(err)})
	}

	caller := middleware.GetAddress(c)
	if err := h.roles.TransferAdmin(c.Context(), caller, req.NewAdmin); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
