package commands

import (
	"errors"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/pkg/guard"
)

var (
	ErrCommitOrderCommandIsNotConstructed = errors.New(
		"CommitOrderCommand must be created via NewCommitOrderCommand constructor",
	)
)

// CommitOrderCommand represents the seller's binding acceptance of a sale,
// including the chosen fulfilment path.
//
// Example:
//
//	cmd, err := NewCommitOrderCommand(orderID, sellerID, order.MethodLocker, "LKR-042")
//	if err != nil {
//	    return fmt.Errorf("invalid commit data: %w", err)
//	}
//
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("commit failed: %w", err)
//	}
type CommitOrderCommand struct { //nolint:recvcheck //using for validation
	orderID        kernel.UUID
	sellerID       kernel.UUID
	deliveryMethod order.DeliveryMethod
	lockerID       string

	guard guard.ConstructorGuard
}

// NewCommitOrderCommand creates a command for a seller to commit an order.
// The locker id is required if and only if the method is locker.
func NewCommitOrderCommand(
	orderID, sellerID kernel.UUID,
	deliveryMethod order.DeliveryMethod,
	lockerID string,
) (CommitOrderCommand, error) {
	if err := errors.Join(
		orderID.Validate(),
		sellerID.Validate(),
		deliveryMethod.Validate(),
	); err != nil {
		return CommitOrderCommand{}, err
	}

	if deliveryMethod == order.MethodLocker && lockerID == "" {
		return CommitOrderCommand{}, order.ErrLockerIDIsRequired
	}

	return CommitOrderCommand{
		orderID:        orderID,
		sellerID:       sellerID,
		deliveryMethod: deliveryMethod,
		lockerID:       lockerID,
		guard:          guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CommitOrderCommand) Validate() error {
	return c.guard.Validate(ErrCommitOrderCommandIsNotConstructed)
}

// OrderID returns the order's identifier.
func (c CommitOrderCommand) OrderID() kernel.UUID { return c.orderID }

// SellerID returns the identifier of the seller issuing the commit.
func (c CommitOrderCommand) SellerID() kernel.UUID { return c.sellerID }

// DeliveryMethod returns the chosen fulfilment path.
func (c CommitOrderCommand) DeliveryMethod() order.DeliveryMethod { return c.deliveryMethod }

// LockerID returns the locker identifier, empty for home pickup.
func (c CommitOrderCommand) LockerID() string { return c.lockerID }
