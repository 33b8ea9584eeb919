package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RoleRepo backs the access-control service with role grants and the admin
// record.
type RoleRepo struct {
	pool *pgxpool.Pool
}

func NewRoleRepo(pool *pgxpool.Pool) *RoleRepo {
	return &RoleRepo{pool: pool}
}

func (r *RoleRepo) Has(ctx context.Context, role, account string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM roles WHERE role = $1 AND account = $2)
	`, role, account).Scan(&exists)
	return exists, err
}

func (r *RoleRepo) Grant(ctx context.Context, role, account string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO roles (role, account) VALUES ($1, $2)
		ON CONFLICT (role, account) DO NOTHING
	`, role, account)
	return err
}

func (r *RoleRepo) Revoke(ctx context.Context, role, account string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE role = $1 AND account = $2`, role, account)
	return err
}

func (r *RoleRepo) Admin(ctx context.Context) (string, error) {
	var address string
	err := r.pool.QueryRow(ctx, `SELECT address FROM access_admin WHERE singleton`).Scan(&address)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return address, nil
}

func (r *RoleRepo) SetAdmin(ctx context.Context, address string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO access_admin (singleton, address) VALUES (true, $1)
		ON CONFLICT (singleton) DO UPDATE SET address = EXCLUDED.address
	`, address)
	return err
}

// TransferAdmin swaps the ADMIN grant and the admin record in one
// transaction, so the system never observes a state without an admin.
func (r *RoleRepo) TransferAdmin(ctx context.Context, current, next string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM roles WHERE role = 'ADMIN' AND account = $1`, current); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO roles (role, account) VALUES ('ADMIN', $1)
		ON CONFLICT (role, account) DO NOTHING
	`, next); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO access_admin (singleton, address) VALUES (true, $1)
		ON CONFLICT (singleton) DO UPDATE SET address = EXCLUDED.address
	`, next); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}
