package repositories

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/fluxapay/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuthPayloadRepo struct {
	pool *pgxpool.Pool
}

func NewAuthPayloadRepo(pool *pgxpool.Pool) *AuthPayloadRepo {
	return &AuthPayloadRepo{pool: pool}
}

func (r *AuthPayloadRepo) CreateProofPayload(ctx context.Context, ttl time.Duration) (*models.AuthPayload, error) {
	p := &models.AuthPayload{
		Payload: generateNonce(32),
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO auth_payloads (payload, expires_at)
		VALUES ($1, now() + $2::interval)
		RETURNING id, created_at, expires_at
	`, p.Payload, ttl.String()).Scan(&p.ID, &p.CreatedAt, &p.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ConsumeProofPayload marks the nonce used. Returns (nil, nil) when the
// nonce is unknown, already used or expired; the guarded UPDATE makes the
// consume atomic, so a replayed proof loses the race.
func (r *AuthPayloadRepo) ConsumeProofPayload(ctx context.Context, payload string) (*models.AuthPayload, error) {
	var p models.AuthPayload
	err := r.pool.QueryRow(ctx, `
		UPDATE auth_payloads
		SET used = true
		WHERE payload = $1 AND used = false AND expires_at > now()
		RETURNING id, payload, created_at, expires_at, used
	`, payload).Scan(&p.ID, &p.Payload, &p.CreatedAt, &p.ExpiresAt, &p.Used)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func generateNonce(bytes int) string {
	b := make([]byte, bytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
