package commands

import (
	"errors"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/guard"
)

var ErrDeclineOrderCommandIsNotConstructed = errors.New(
	"DeclineOrderCommand must be created via NewDeclineOrderCommand constructor",
)

// DeclineOrderCommand represents the seller's rejection of a pending sale.
type DeclineOrderCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	sellerID kernel.UUID

	guard guard.ConstructorGuard
}

// NewDeclineOrderCommand creates a command for a seller to decline an order.
func NewDeclineOrderCommand(orderID, sellerID kernel.UUID) (DeclineOrderCommand, error) {
	if err := errors.Join(
		orderID.Validate(),
		sellerID.Validate(),
	); err != nil {
		return DeclineOrderCommand{}, err
	}

	return DeclineOrderCommand{
		orderID:  orderID,
		sellerID: sellerID,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c DeclineOrderCommand) Validate() error {
	return c.guard.Validate(ErrDeclineOrderCommandIsNotConstructed)
}

// OrderID returns the order's identifier.
func (c DeclineOrderCommand) OrderID() kernel.UUID { return c.orderID }

// SellerID returns the identifier of the seller issuing the decline.
func (c DeclineOrderCommand) SellerID() kernel.UUID { return c.sellerID }
