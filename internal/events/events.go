package events

import "context"

// Event types
const (
	EventPaymentCreated     = "payment_created"
	EventPaymentVerified    = "payment_verified"
	EventPaymentFailed      = "payment_failed"
	EventPaymentCancelled   = "payment_cancelled"
	EventRefundCreated      = "refund_created"
	EventRefundProcessed    = "refund_processed"
	EventMerchantRegistered = "merchant_registered"
	EventMerchantVerified   = "merchant_verified"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
