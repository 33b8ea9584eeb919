package repositories

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/fluxapay/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

func (r *PaymentRepo) Create(ctx context.Context, p *models.PaymentCharge) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payments (payment_id, merchant_id, amount, currency, deposit_address, status, created_at, expires_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8)
	`, p.PaymentID, p.MerchantID, p.Amount.String(), p.Currency, p.DepositAddress, p.Status, p.CreatedAt, p.ExpiresAt)
	return err
}

func (r *PaymentRepo) GetByID(ctx context.Context, paymentID string) (*models.PaymentCharge, error) {
	var p models.PaymentCharge
	var amount string
	err := r.pool.QueryRow(ctx, `
		SELECT payment_id, merchant_id, amount::text, currency, deposit_address, status,
		       payer_address, tx_hash, created_at, confirmed_at, expires_at
		FROM payments WHERE payment_id = $1
	`, paymentID).Scan(&p.PaymentID, &p.MerchantID, &amount, &p.Currency, &p.DepositAddress, &p.Status,
		&p.PayerAddress, &p.TxHash, &p.CreatedAt, &p.ConfirmedAt, &p.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.Amount, err = scanAmount(amount)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update persists the mutable fields. Identity, amount and expiry are fixed
// at creation.
func (r *PaymentRepo) Update(ctx context.Context, p *models.PaymentCharge) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE payments SET status = $2, payer_address = $3, tx_hash = $4, confirmed_at = $5
		WHERE payment_id = $1
	`, p.PaymentID, p.Status, p.PayerAddress, p.TxHash, p.ConfirmedAt)
	return err
}

func (r *PaymentRepo) ListExpiredPendingIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT payment_id FROM payments
		WHERE status = 'pending' AND expires_at < $1
		ORDER BY expires_at ASC LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PaymentRepo) ListByMerchant(ctx context.Context, merchantID string, limit, offset int) ([]models.PaymentCharge, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT payment_id, merchant_id, amount::text, currency, deposit_address, status,
		       payer_address, tx_hash, created_at, confirmed_at, expires_at
		FROM payments WHERE merchant_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, merchantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []models.PaymentCharge
	for rows.Next() {
		var p models.PaymentCharge
		var amount string
		if err := rows.Scan(&p.PaymentID, &p.MerchantID, &amount, &p.Currency, &p.DepositAddress, &p.Status,
			&p.PayerAddress, &p.TxHash, &p.CreatedAt, &p.ConfirmedAt, &p.ExpiresAt); err != nil {
			return nil, err
		}
		if p.Amount, err = scanAmount(amount); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanAmount(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("bad numeric value %q", s)
	}
	return n, nil
}
