package commands

import (
	"errors"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/pkg/guard"
)

var (
	ErrCheckoutCommandIsNotConstructed = errors.New(
		"CheckoutCommand must be created via NewCheckoutCommand constructor",
	)
	ErrBuyerEmailIsRequired = errors.New("buyer email is required")
	ErrSubtotalIsInvalid    = errors.New("subtotal must be greater than 0")
)

// CheckoutCommand represents a buyer's request to start a purchase. It carries
// everything needed to price delivery, compute the settlement split and
// initialize the charge with the payment processor.
//
// Example:
//
//	cmd, err := NewCheckoutCommand(buyerID, sellerID, itemID, "buyer@mail.test", subtotal, shipping)
//	if err != nil {
//	    return fmt.Errorf("invalid checkout data: %w", err)
//	}
//
//	result, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return fmt.Errorf("checkout failed: %w", err)
//	}
//	fmt.Printf("redirect buyer to %s", result.AuthorizationURL)
type CheckoutCommand struct { //nolint:recvcheck //using for validation
	buyerID    kernel.UUID
	sellerID   kernel.UUID
	itemID     kernel.UUID
	buyerEmail string
	subtotal   kernel.Money
	shipping   order.ShippingDetails

	guard guard.ConstructorGuard
}

// NewCheckoutCommand creates a command to start a purchase.
// Validates all identifiers, the buyer email, a positive subtotal and the
// shipping details. Returns an error if any validation fails.
func NewCheckoutCommand(
	buyerID, sellerID, itemID kernel.UUID,
	buyerEmail string,
	subtotal kernel.Money,
	shipping order.ShippingDetails,
) (CheckoutCommand, error) {
	checkoutCommand := CheckoutCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		checkoutCommand.setBuyerID(buyerID),
		checkoutCommand.setSellerID(sellerID),
		checkoutCommand.setItemID(itemID),
		checkoutCommand.setBuyerEmail(buyerEmail),
		checkoutCommand.setSubtotal(subtotal),
		checkoutCommand.setShipping(shipping),
	); err != nil {
		return CheckoutCommand{}, err
	}

	return checkoutCommand, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCheckoutCommandIsNotConstructed if validation fails.
func (c CheckoutCommand) Validate() error {
	return c.guard.Validate(ErrCheckoutCommandIsNotConstructed)
}

// BuyerID returns the buyer's identifier.
func (c CheckoutCommand) BuyerID() kernel.UUID { return c.buyerID }

// SellerID returns the seller's identifier.
func (c CheckoutCommand) SellerID() kernel.UUID { return c.sellerID }

// ItemID returns the identifier of the item being purchased.
func (c CheckoutCommand) ItemID() kernel.UUID { return c.itemID }

// BuyerEmail returns the email the payment processor sends receipts to.
func (c CheckoutCommand) BuyerEmail() string { return c.buyerEmail }

// Subtotal returns the item price in minor currency units.
func (c CheckoutCommand) Subtotal() kernel.Money { return c.subtotal }

// Shipping returns the pickup/delivery addresses and package weight.
func (c CheckoutCommand) Shipping() order.ShippingDetails { return c.shipping }

func (c *CheckoutCommand) setBuyerID(buyerID kernel.UUID) error {
	if err := buyerID.Validate(); err != nil {
		return err
	}

	c.buyerID = buyerID
	return nil
}

func (c *CheckoutCommand) setSellerID(sellerID kernel.UUID) error {
	if err := sellerID.Validate(); err != nil {
		return err
	}

	c.sellerID = sellerID
	return nil
}

func (c *CheckoutCommand) setItemID(itemID kernel.UUID) error {
	if err := itemID.Validate(); err != nil {
		return err
	}

	c.itemID = itemID
	return nil
}

func (c *CheckoutCommand) setBuyerEmail(buyerEmail string) error {
	if buyerEmail == "" {
		return ErrBuyerEmailIsRequired
	}

	c.buyerEmail = buyerEmail
	return nil
}

func (c *CheckoutCommand) setSubtotal(subtotal kernel.Money) error {
	if err := subtotal.Validate(); err != nil {
		return err
	}
	if subtotal.IsZero() {
		return ErrSubtotalIsInvalid
	}

	c.subtotal = subtotal
	return nil
}

func (c *CheckoutCommand) setShipping(shipping order.ShippingDetails) error {
	if err := shipping.Validate(); err != nil {
		return err
	}

	c.shipping = shipping
	return nil
}
