package commands

import (
	"errors"
	"time"

	"marketplace/internal/pkg/guard"
)

var (
	ErrExpireStaleOrdersCommandIsNotConstructed = errors.New(
		"ExpireStaleOrdersCommand must be created via NewExpireStaleOrdersCommand constructor",
	)
	ErrExpiryPolicyIsInvalid = errors.New("expiry policy windows must be positive")
)

// ExpiryPolicy holds the time windows the sweep enforces. All windows come from
// configuration; handlers never carry literal durations.
type ExpiryPolicy struct {
	// PendingCommitTTL is how long a seller gets to commit before the order is
	// auto-declined and refunded.
	PendingCommitTTL time.Duration

	// CollectionTTL is how long a scheduled courier gets to collect before the
	// order moves to collection_timeout.
	CollectionTTL time.Duration

	// AutoDeliverTTL is how long a collected order can sit without a delivery
	// confirmation before it is auto-accepted as delivered.
	AutoDeliverTTL time.Duration

	// AutoDeliverEnabled gates the auto-acceptance sweep class.
	AutoDeliverEnabled bool
}

// Validate checks that all enforced windows are positive.
func (p ExpiryPolicy) Validate() error {
	if p.PendingCommitTTL <= 0 || p.CollectionTTL <= 0 {
		return ErrExpiryPolicyIsInvalid
	}
	if p.AutoDeliverEnabled && p.AutoDeliverTTL <= 0 {
		return ErrExpiryPolicyIsInvalid
	}
	return nil
}

// ExpireStaleOrdersCommand triggers one pass of the expiry sweep. The sweep is
// driven by the cron job; the command carries no parameters of its own.
type ExpireStaleOrdersCommand struct { //nolint:recvcheck //using for validation
	guard guard.ConstructorGuard
}

// NewExpireStaleOrdersCommand creates a sweep trigger command.
func NewExpireStaleOrdersCommand() ExpireStaleOrdersCommand {
	return ExpireStaleOrdersCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c ExpireStaleOrdersCommand) Validate() error {
	return c.guard.Validate(ErrExpireStaleOrdersCommandIsNotConstructed)
}
