package ports

import (
	"context"
	"time"
)

// OrderStatusChanged is the event emitted after every successful order transition.
type OrderStatusChanged struct {
	OrderID   string    `json:"order_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	At        time.Time `json:"at"`
}

// EventPublisher emits order lifecycle events to the message broker.
// Publishing is best-effort from the caller's perspective: a broker failure is
// logged but never fails the transition that produced the event.
type EventPublisher interface {
	PublishOrderStatusChanged(ctx context.Context, event OrderStatusChanged) error
	Close() error
}
