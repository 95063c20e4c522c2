package ports

import (
	"context"
	"time"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
)

// StatusUpdate carries the column values that must be persisted atomically with
// a conditional status change. Nil pointer fields are left untouched.
type StatusUpdate struct {
	DeliveryMethod    *order.DeliveryMethod
	LockerID          *string
	TrackingReference *string
	DropoffCode       *string
	CommittedAt       *time.Time
	CollectedAt       *time.Time
	DeliveredAt       *time.Time
	CancelledAt       *time.Time
	UpdatedAt         time.Time
}

// OrderRepository defines the persistence contract for order aggregates.
//
// Status changes go exclusively through UpdateStatus: a single conditional
// UPDATE guarded by the expected current status. Read-then-write across two
// round trips is forbidden for status, because two concurrent callers would
// both observe the old state and both write.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	// Fails if an order with the same payment reference already exists.
	Add(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetByPaymentReference retrieves an order by its processor-side payment
	// identifier. Used by webhook handlers and the refund coordinator.
	GetByPaymentReference(ctx context.Context, reference string) (*order.Order, error)

	// UpdateStatus executes the atomic conditional transition
	// UPDATE orders SET status = to, ... WHERE id = ? AND status = from.
	// Returns applied=false when no row matched, which means either the order
	// does not exist or a concurrent writer moved it first; the caller reloads
	// once to tell an idempotent replay from an illegal transition.
	UpdateStatus(
		ctx context.Context,
		id kernel.UUID,
		from, to order.Status,
		update StatusUpdate,
	) (applied bool, err error)

	// ClaimRefund conditionally marks a refund as pending:
	// UPDATE orders SET refund_status = pending, refund_amount = ?, refund_reason = ?
	// WHERE payment_reference = ? AND refund_status IN (none, failed).
	// Returns applied=false when the refund was already claimed or processed:
	// the persistence half of the double-refund guard.
	ClaimRefund(
		ctx context.Context,
		paymentReference string,
		amount kernel.Money,
		reason order.RefundReason,
		at time.Time,
	) (applied bool, err error)

	// SetRefundStatus conditionally moves refund_status from -> to for the
	// given payment reference.
	SetRefundStatus(
		ctx context.Context,
		paymentReference string,
		from, to order.RefundStatus,
	) (applied bool, err error)

	// GetStaleInStatus retrieves up to limit orders that have sat in the given
	// status since before the cutoff, ordered oldest first. Used by the expiry
	// sweep.
	GetStaleInStatus(
		ctx context.Context,
		status order.Status,
		cutoff time.Time,
		limit int,
	) ([]*order.Order, error)

	// GetCommittedWithoutTracking retrieves committed orders whose courier
	// scheduling is still pending, oldest first. Used by the courier retry job.
	GetCommittedWithoutTracking(ctx context.Context, limit int) ([]*order.Order, error)
}
