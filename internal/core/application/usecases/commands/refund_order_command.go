package commands

import (
	"errors"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/pkg/guard"
)

var (
	ErrRefundOrderCommandIsNotConstructed = errors.New(
		"RefundOrderCommand must be created via NewRefundOrderCommand constructor",
	)
)

// RefundOrderCommand represents a request to refund a captured charge.
// A zero amount means "refund the full order total"; the handler resolves it
// against the order.
type RefundOrderCommand struct { //nolint:recvcheck //using for validation
	paymentReference string
	amount           kernel.Money
	reason           order.RefundReason

	guard guard.ConstructorGuard
}

// NewRefundOrderCommand creates a refund command keyed by payment reference.
func NewRefundOrderCommand(
	paymentReference string,
	amount kernel.Money,
	reason order.RefundReason,
) (RefundOrderCommand, error) {
	if paymentReference == "" {
		return RefundOrderCommand{}, ErrPaymentReferenceIsRequired
	}

	if err := errors.Join(
		amount.Validate(),
		reason.Validate(),
	); err != nil {
		return RefundOrderCommand{}, err
	}

	return RefundOrderCommand{
		paymentReference: paymentReference,
		amount:           amount,
		reason:           reason,
		guard:            guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c RefundOrderCommand) Validate() error {
	return c.guard.Validate(ErrRefundOrderCommandIsNotConstructed)
}

// PaymentReference returns the charge identifier, which doubles as the refund
// idempotency key.
func (c RefundOrderCommand) PaymentReference() string { return c.paymentReference }

// Amount returns the requested refund amount, zero for a full refund.
func (c RefundOrderCommand) Amount() kernel.Money { return c.amount }

// Reason returns why the refund is being issued.
func (c RefundOrderCommand) Reason() order.RefundReason { return c.reason }
