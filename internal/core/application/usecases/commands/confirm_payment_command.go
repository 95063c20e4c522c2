package commands

import (
	"errors"
	"strconv"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/pkg/errs"
	"marketplace/internal/pkg/guard"
)

var (
	ErrConfirmPaymentCommandIsNotConstructed = errors.New(
		"ConfirmPaymentCommand must be created via NewConfirmPaymentCommand constructor",
	)
	ErrPaymentReferenceIsRequired = errors.New("payment reference is required")
)

// ConfirmPaymentCommand represents a confirmed charge that should materialize
// as an order. It carries the payment reference plus the checkout context the
// processor echoed back in its metadata.
type ConfirmPaymentCommand struct { //nolint:recvcheck //using for validation
	paymentReference string
	buyerID          kernel.UUID
	sellerID         kernel.UUID
	itemID           kernel.UUID
	subtotal         kernel.Money
	deliveryFee      kernel.Money
	platformFee      kernel.Money
	sellerAmount     kernel.Money
	shipping         order.ShippingDetails

	guard guard.ConstructorGuard
}

// NewConfirmPaymentCommand creates a command to turn a successful charge into
// an order in pending_commit.
func NewConfirmPaymentCommand(
	paymentReference string,
	buyerID, sellerID, itemID kernel.UUID,
	subtotal, deliveryFee, platformFee, sellerAmount kernel.Money,
	shipping order.ShippingDetails,
) (ConfirmPaymentCommand, error) {
	if paymentReference == "" {
		return ConfirmPaymentCommand{}, ErrPaymentReferenceIsRequired
	}

	if err := errors.Join(
		buyerID.Validate(),
		sellerID.Validate(),
		itemID.Validate(),
		subtotal.Validate(),
		deliveryFee.Validate(),
		platformFee.Validate(),
		sellerAmount.Validate(),
		shipping.Validate(),
	); err != nil {
		return ConfirmPaymentCommand{}, err
	}

	return ConfirmPaymentCommand{
		paymentReference: paymentReference,
		buyerID:          buyerID,
		sellerID:         sellerID,
		itemID:           itemID,
		subtotal:         subtotal,
		deliveryFee:      deliveryFee,
		platformFee:      platformFee,
		sellerAmount:     sellerAmount,
		shipping:         shipping,
		guard:            guard.NewConstructorGuard(),
	}, nil
}

// NewConfirmPaymentCommandFromMetadata rebuilds the command from the metadata
// map the processor attached to the charge. Used by the payment webhook, which
// only receives the reference and the echoed metadata.
func NewConfirmPaymentCommandFromMetadata(
	paymentReference string,
	metadata map[string]string,
) (ConfirmPaymentCommand, error) {
	buyerID, err := metadataUUID(metadata, metaBuyerID)
	if err != nil {
		return ConfirmPaymentCommand{}, err
	}
	sellerID, err := metadataUUID(metadata, metaSellerID)
	if err != nil {
		return ConfirmPaymentCommand{}, err
	}
	itemID, err := metadataUUID(metadata, metaItemID)
	if err != nil {
		return ConfirmPaymentCommand{}, err
	}

	subtotal, err := metadataMoney(metadata, metaSubtotal)
	if err != nil {
		return ConfirmPaymentCommand{}, err
	}
	deliveryFee, err := metadataMoney(metadata, metaDeliveryFee)
	if err != nil {
		return ConfirmPaymentCommand{}, err
	}
	platformFee, err := metadataMoney(metadata, metaPlatformFee)
	if err != nil {
		return ConfirmPaymentCommand{}, err
	}
	sellerAmount, err := metadataMoney(metadata, metaSellerAmount)
	if err != nil {
		return ConfirmPaymentCommand{}, err
	}

	weightGrams, err := strconv.Atoi(metadata[metaWeightGrams])
	if err != nil {
		return ConfirmPaymentCommand{}, errs.NewValueIsInvalidErrorWithCause(metaWeightGrams, err)
	}

	pickup, err := kernel.NewAddress(
		metadata[metaPickupStreet], metadata[metaPickupCity],
		metadata[metaPickupState], metadata[metaPickupPostcode])
	if err != nil {
		return ConfirmPaymentCommand{}, err
	}
	dropoff, err := kernel.NewAddress(
		metadata[metaDeliveryStreet], metadata[metaDeliveryCity],
		metadata[metaDeliveryState], metadata[metaDeliveryPostcode])
	if err != nil {
		return ConfirmPaymentCommand{}, err
	}

	shipping, err := order.NewShippingDetails(pickup, dropoff, weightGrams)
	if err != nil {
		return ConfirmPaymentCommand{}, err
	}

	return NewConfirmPaymentCommand(
		paymentReference,
		buyerID, sellerID, itemID,
		subtotal, deliveryFee, platformFee, sellerAmount,
		shipping,
	)
}

// Validate ensures the command was created through a constructor.
func (c ConfirmPaymentCommand) Validate() error {
	return c.guard.Validate(ErrConfirmPaymentCommandIsNotConstructed)
}

// PaymentReference returns the processor-side charge identifier.
func (c ConfirmPaymentCommand) PaymentReference() string { return c.paymentReference }

// BuyerID returns the buyer's identifier.
func (c ConfirmPaymentCommand) BuyerID() kernel.UUID { return c.buyerID }

// SellerID returns the seller's identifier.
func (c ConfirmPaymentCommand) SellerID() kernel.UUID { return c.sellerID }

// ItemID returns the purchased item's identifier.
func (c ConfirmPaymentCommand) ItemID() kernel.UUID { return c.itemID }

// Subtotal returns the item price in minor currency units.
func (c ConfirmPaymentCommand) Subtotal() kernel.Money { return c.subtotal }

// DeliveryFee returns the delivery fee priced at checkout.
func (c ConfirmPaymentCommand) DeliveryFee() kernel.Money { return c.deliveryFee }

// PlatformFee returns the platform's share of the subtotal.
func (c ConfirmPaymentCommand) PlatformFee() kernel.Money { return c.platformFee }

// SellerAmount returns the seller's share of the subtotal.
func (c ConfirmPaymentCommand) SellerAmount() kernel.Money { return c.sellerAmount }

// Shipping returns the shipping details captured at checkout.
func (c ConfirmPaymentCommand) Shipping() order.ShippingDetails { return c.shipping }

func metadataUUID(metadata map[string]string, key string) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(metadata[key])
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(key, err)
	}
	return id, nil
}

func metadataMoney(metadata map[string]string, key string) (kernel.Money, error) {
	units, err := strconv.ParseInt(metadata[key], 10, 64)
	if err != nil {
		return 0, errs.NewValueIsInvalidErrorWithCause(key, err)
	}
	return kernel.NewMoney(units)
}
