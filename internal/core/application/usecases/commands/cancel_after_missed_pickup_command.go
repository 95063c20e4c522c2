package commands

import (
	"errors"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/guard"
)

var ErrCancelAfterMissedPickupCommandIsNotConstructed = errors.New(
	"CancelAfterMissedPickupCommand must be created via NewCancelAfterMissedPickupCommand constructor",
)

// CancelAfterMissedPickupCommand represents the seller giving up on an order
// whose courier collection window expired. It is the only exit from
// collection_timeout.
type CancelAfterMissedPickupCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	sellerID kernel.UUID

	guard guard.ConstructorGuard
}

// NewCancelAfterMissedPickupCommand creates a command to cancel a timed-out order.
func NewCancelAfterMissedPickupCommand(
	orderID, sellerID kernel.UUID,
) (CancelAfterMissedPickupCommand, error) {
	if err := errors.Join(
		orderID.Validate(),
		sellerID.Validate(),
	); err != nil {
		return CancelAfterMissedPickupCommand{}, err
	}

	return CancelAfterMissedPickupCommand{
		orderID:  orderID,
		sellerID: sellerID,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CancelAfterMissedPickupCommand) Validate() error {
	return c.guard.Validate(ErrCancelAfterMissedPickupCommandIsNotConstructed)
}

// OrderID returns the order's identifier.
func (c CancelAfterMissedPickupCommand) OrderID() kernel.UUID { return c.orderID }

// SellerID returns the identifier of the seller issuing the cancellation.
func (c CancelAfterMissedPickupCommand) SellerID() kernel.UUID { return c.sellerID }
