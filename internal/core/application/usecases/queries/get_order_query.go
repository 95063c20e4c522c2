// Package queries contains read-only operations against the persistence layer.
// Query handlers bypass the domain aggregates and read projection rows directly,
// implementing the read side of the CQRS split.
package queries

import (
	"errors"
	"time"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/guard"
)

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery retrieves the full state of a single order.
//
// Example:
//
//	query, err := NewGetOrderQuery(orderID)
//	if err != nil {
//	    return err
//	}
//
//	handler := NewGetOrderQueryHandler(db)
//	view, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to get order: %w", err)
//	}
//
//	fmt.Printf("Order %s is %s\n", view.ID, view.Status)
type GetOrderQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetOrderQuery creates a query for a single order by its identifier.
func NewGetOrderQuery(orderID kernel.UUID) (GetOrderQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderQuery{}, err
	}

	return GetOrderQuery{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
// Returns ErrGetOrderQueryIsNotConstructed if validation fails.
func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

// OrderID returns the identifier of the requested order.
func (q GetOrderQuery) OrderID() kernel.UUID {
	return q.orderID
}

// GetOrderQueryResponse is the read model for a single order. Statuses and the
// delivery method carry their wire names; money fields are minor currency units.
type GetOrderQueryResponse struct {
	ID       kernel.UUID
	BuyerID  kernel.UUID
	SellerID kernel.UUID
	ItemID   kernel.UUID

	Status         string
	DeliveryMethod string
	LockerID       string

	TrackingReference string
	DropoffCode       string

	Subtotal     int64
	DeliveryFee  int64
	TotalAmount  int64
	PlatformFee  int64
	SellerAmount int64

	PaymentReference string
	RefundStatus     string
	RefundAmount     int64
	RefundReason     string

	CommittedAt *time.Time
	CollectedAt *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
