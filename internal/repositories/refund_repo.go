package repositories

import (
	"context"
	"errors"

	"github.com/fluxapay/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RefundRepo struct {
	pool *pgxpool.Pool
}

func NewRefundRepo(pool *pgxpool.Pool) *RefundRepo {
	return &RefundRepo{pool: pool}
}

// CreateWithNextID allocates the next counter value, writes the refund and
// its index entry in one transaction. The counter row is locked by the
// UPDATE, so concurrent creates serialize and never share an id.
func (r *RefundRepo) CreateWithNextID(ctx context.Context, refund *models.Refund) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	var n uint64
	if err := tx.QueryRow(ctx, `
		UPDATE refund_counter SET value = value + 1 WHERE singleton RETURNING value
	`).Scan(&n); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	refund.RefundID = models.FormatRefundID(n)

	if _, err := tx.Exec(ctx, `
		INSERT INTO refunds (refund_id, payment_id, amount, reason, status, requester, created_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)
	`, refund.RefundID, refund.PaymentID, refund.Amount.String(), refund.Reason, refund.Status, refund.Requester, refund.CreatedAt); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO payment_refunds (payment_id, refund_id) VALUES ($1, $2)
	`, refund.PaymentID, refund.RefundID); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

func (r *RefundRepo) GetByID(ctx context.Context, refundID string) (*models.Refund, error) {
	var rf models.Refund
	var amount string
	err := r.pool.QueryRow(ctx, `
		SELECT refund_id, payment_id, amount::text, reason, status, requester, created_at, processed_at
		FROM refunds WHERE refund_id = $1
	`, refundID).Scan(&rf.RefundID, &rf.PaymentID, &amount, &rf.Reason, &rf.Status, &rf.Requester, &rf.CreatedAt, &rf.ProcessedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rf.Amount, err = scanAmount(amount)
	if err != nil {
		return nil, err
	}
	return &rf, nil
}

func (r *RefundRepo) Update(ctx context.Context, refund *models.Refund) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE refunds SET status = $2, processed_at = $3 WHERE refund_id = $1
	`, refund.RefundID, refund.Status, refund.ProcessedAt)
	return err
}

func (r *RefundRepo) ListIDsByPayment(ctx context.Context, paymentID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT refund_id FROM payment_refunds WHERE payment_id = $1 ORDER BY seq ASC
	`, paymentID)
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
