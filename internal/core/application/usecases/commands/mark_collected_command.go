package commands

import (
	"errors"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/guard"
)

var ErrMarkCollectedCommandIsNotConstructed = errors.New(
	"MarkCollectedCommand must be created via NewMarkCollectedCommand constructor",
)

// MarkCollectedCommand records a courier collection event, usually driven by a
// tracking webhook.
type MarkCollectedCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewMarkCollectedCommand creates a command to mark an order as collected.
func NewMarkCollectedCommand(orderID kernel.UUID) (MarkCollectedCommand, error) {
	if err := orderID.Validate(); err != nil {
		return MarkCollectedCommand{}, err
	}

	return MarkCollectedCommand{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c MarkCollectedCommand) Validate() error {
	return c.guard.Validate(ErrMarkCollectedCommandIsNotConstructed)
}

// OrderID returns the order's identifier.
func (c MarkCollectedCommand) OrderID() kernel.UUID { return c.orderID }
