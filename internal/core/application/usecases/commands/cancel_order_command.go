package commands

import (
	"errors"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/guard"
)

var ErrCancelOrderCommandIsNotConstructed = errors.New(
	"CancelOrderCommand must be created via NewCancelOrderCommand constructor",
)

// CancelOrderCommand represents a buyer's withdrawal from a purchase before the
// seller has committed.
type CancelOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	buyerID kernel.UUID

	guard guard.ConstructorGuard
}

// NewCancelOrderCommand creates a command for a buyer to cancel an order.
func NewCancelOrderCommand(orderID, buyerID kernel.UUID) (CancelOrderCommand, error) {
	if err := errors.Join(
		orderID.Validate(),
		buyerID.Validate(),
	); err != nil {
		return CancelOrderCommand{}, err
	}

	return CancelOrderCommand{
		orderID: orderID,
		buyerID: buyerID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CancelOrderCommand) Validate() error {
	return c.guard.Validate(ErrCancelOrderCommandIsNotConstructed)
}

// OrderID returns the order's identifier.
func (c CancelOrderCommand) OrderID() kernel.UUID { return c.orderID }

// BuyerID returns the identifier of the buyer issuing the cancellation.
func (c CancelOrderCommand) BuyerID() kernel.UUID { return c.buyerID }
