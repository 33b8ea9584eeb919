package rbac

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Well-known role names. The role set is open: any name can be granted,
// these are just the ones the rest of the system keys on.
const (
	RoleAdmin              = "ADMIN"
	RoleOracle             = "ORACLE"
	RoleMerchant           = "MERCHANT"
	RoleSettlementOperator = "SETTLEMENT_OPERATOR"
)

var (
	ErrUnauthorized        = errors.New("caller does not hold the ADMIN role")
	ErrRoleAlreadyGranted  = errors.New("role already granted to account")
	ErrRoleNotGranted      = errors.New("role not granted to account")
	ErrCannotRenounceAdmin = errors.New("the ADMIN role cannot be renounced")
)

// Store persists role grants and the admin record. The pgx repository
// satisfies it; tests substitute an in-memory fake.
type Store interface {
	Has(ctx context.Context, role, account string) (bool, error)
	Grant(ctx context.Context, role, account string) error
	Revoke(ctx context.Context, role, account string) error
	// Admin returns the current admin address, empty when never initialized.
	Admin(ctx context.Context) (string, error)
	SetAdmin(ctx context.Context, address string) error
	// TransferAdmin revokes the ADMIN grant from current, grants it to next
	// and replaces the admin record in a single atomic step.
	TransferAdmin(ctx context.Context, current, next string) error
}

type Service struct {
	store Store
	log   *zap.Logger
}

func NewService(store Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

// Initialize records the admin and grants it the ADMIN role. It carries no
// re-entry guard; callers that need idempotent bootstrap check GetAdmin first.
func (s *Service) Initialize(ctx context.Context, admin string) error {
	if err := s.store.SetAdmin(ctx, admin); err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	if err := s.store.Grant(ctx, RoleAdmin, admin); err != nil {
		return fmt.Errorf("grant admin role: %w", err)
	}
	s.log.Info("access control initialized", zap.String("admin", admin))
	return nil
}

func (s *Service) GrantRole(ctx context.Context, caller, role, account string) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}

	held, err := s.store.Has(ctx, role, account)
	if err != nil {
		return err
	}
	if held {
		return ErrRoleAlreadyGranted
	}

	if err := s.store.Grant(ctx, role, account); err != nil {
		return err
	}
	s.log.Info("role granted",
		zap.String("role", role),
		zap.String("account", account),
		zap.String("granted_by", caller),
	)
	return nil
}

func (s *Service) RevokeRole(ctx context.Context, caller, role, account string) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}

	held, err := s.store.Has(ctx, role, account)
	if err != nil {
		return err
	}
	if !held {
		return ErrRoleNotGranted
	}

	if err := s.store.Revoke(ctx, role, account); err != nil {
		return err
	}
	s.log.Info("role revoked",
		zap.String("role", role),
		zap.String("account", account),
		zap.String("revoked_by", caller),
	)
	return nil
}

// HasRole reports whether account holds role. Accounts never granted
// anything simply report false.
func (s *Service) HasRole(ctx context.Context, role, account string) (bool, error) {
	return s.store.Has(ctx, role, account)
}

// RenounceRole lets an account drop one of its own roles. ADMIN cannot be
// renounced; admin hand-over goes through TransferAdmin so the system is
// never left without an admin.
func (s *Service) RenounceRole(ctx context.Context, account, role string) error {
	if role == RoleAdmin {
		return ErrCannotRenounceAdmin
	}

	held, err := s.store.Has(ctx, role, account)
	if err != nil {
		return err
	}
	if !held {
		return ErrRoleNotGranted
	}

	return s.store.Revoke(ctx, role, account)
}

func (s *Service) TransferAdmin(ctx context.Context, currentAdmin, newAdmin string) error {
	if err := s.requireAdmin(ctx, currentAdmin); err != nil {
		return err
	}

	if err := s.store.TransferAdmin(ctx, currentAdmin, newAdmin); err != nil {
		return fmt.Errorf("transfer admin: %w", err)
	}
	s.log.Info("admin transferred",
		zap.String("from", currentAdmin),
		zap.String("to", newAdmin),
	)
	return nil
}

// GetAdmin returns the current admin address, empty when Initialize was
// never called.
func (s *Service) GetAdmin(ctx context.Context) (string, error) {
	return s.store.Admin(ctx)
}

func (s *Service) requireAdmin(ctx context.Context, caller string) error {
	held, err := s.store.Has(ctx, RoleAdmin, caller)
	if err != nil {
		return err
	}
	if !held {
		return ErrUnauthorized
	}
	return nil
}
