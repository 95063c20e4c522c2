package ports

import (
	"context"
	"time"

	"marketplace/internal/core/domain/model/kernel"
)

// ReservationStore holds item-level reservations created at checkout initiation.
// A reservation expires on its own after the TTL; successful purchase completion,
// decline, cancellation and the expiry sweep clear it explicitly.
type ReservationStore interface {
	// Reserve atomically places a reservation for the item if none exists.
	// Returns false when the item is already reserved by anyone.
	Reserve(ctx context.Context, itemID, buyerID kernel.UUID, ttl time.Duration) (bool, error)

	// Release removes the reservation for the item, if any.
	Release(ctx context.Context, itemID kernel.UUID) error

	// ReservedBy returns who holds the reservation, if anyone.
	ReservedBy(ctx context.Context, itemID kernel.UUID) (kernel.UUID, bool, error)
}
