package commands

import (
	"errors"

	"marketplace/internal/pkg/guard"
)

var ErrRetryCourierSchedulingCommandIsNotConstructed = errors.New(
	"RetryCourierSchedulingCommand must be created via NewRetryCourierSchedulingCommand constructor",
)

// RetryCourierSchedulingCommand triggers one pass over committed orders that
// never got a courier booked, resolving the partial-success state a failed
// booking leaves behind.
type RetryCourierSchedulingCommand struct { //nolint:recvcheck //using for validation
	guard guard.ConstructorGuard
}

// NewRetryCourierSchedulingCommand creates a retry trigger command.
func NewRetryCourierSchedulingCommand() RetryCourierSchedulingCommand {
	return RetryCourierSchedulingCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c RetryCourierSchedulingCommand) Validate() error {
	return c.guard.Validate(ErrRetryCourierSchedulingCommandIsNotConstructed)
}
