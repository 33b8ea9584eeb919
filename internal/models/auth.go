package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthPayload is a single-use nonce handed to a wallet before it signs a
// TON Connect proof. It is not bound to any account up front: the proof
// itself establishes who signed it.
type AuthPayload struct {
	ID        uuid.UUID `json:"id"`
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
}
