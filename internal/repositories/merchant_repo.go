package repositories

import (
	"context"
	"errors"

	"github.com/fluxapay/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MerchantRepo struct {
	pool *pgxpool.Pool
}

func NewMerchantRepo(pool *pgxpool.Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

func (r *MerchantRepo) Create(ctx context.Context, m *models.Merchant) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO merchants (merchant_id, business_name, settlement_currency, verified, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.MerchantID, m.BusinessName, m.SettlementCurrency, m.Verified, m.Active, m.CreatedAt)
	return err
}

func (r *MerchantRepo) GetByID(ctx context.Context, merchantID string) (*models.Merchant, error) {
	var m models.Merchant
	err := r.pool.QueryRow(ctx, `
		SELECT merchant_id, business_name, settlement_currency, verified, active, created_at
		FROM merchants WHERE merchant_id = $1
	`, merchantID).Scan(&m.MerchantID, &m.BusinessName, &m.SettlementCurrency, &m.Verified, &m.Active, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MerchantRepo) Update(ctx context.Context, m *models.Merchant) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE merchants SET business_name = $2, settlement_currency = $3, verified = $4, active = $5
		WHERE merchant_id = $1
	`, m.MerchantID, m.BusinessName, m.SettlementCurrency, m.Verified, m.Active)
	return err
}

func (r *MerchantRepo) Admin(ctx context.Context) (string, error) {
	var address string
	err := r.pool.QueryRow(ctx, `SELECT address FROM merchant_admin WHERE singleton`).Scan(&address)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return address, nil
}

// SetAdmin inserts the singleton admin row. The primary key rejects a second
// insert, backstopping the service-level guard under races.
func (r *MerchantRepo) SetAdmin(ctx context.Context, address string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO merchant_admin (singleton, address) VALUES (true, $1)
	`, address)
	return err
}
