package order

import (
	"errors"
	"fmt"
	"time"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// the NewOrder factory method. This ensures all orders are properly validated.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrPaymentReferenceIsImmutable is returned on any attempt to change the payment
	// reference after it has been set.
	ErrPaymentReferenceIsImmutable = errors.New("payment reference is immutable once set")

	// ErrLockerIDIsRequired is returned when the locker delivery method is chosen
	// without a locker identifier.
	ErrLockerIDIsRequired = errors.New("locker id is required for locker delivery")
)

// Order is the aggregate root for the marketplace order lifecycle, from payment
// authorization through seller commitment, delivery and settlement.
//
// Order maintains these invariants:
//   - total amount always equals subtotal plus delivery fee
//   - platform fee plus seller amount always equals subtotal
//   - the payment reference is immutable once set
//   - the refund amount never exceeds the total amount
//   - status moves only along the transition graph defined by Status
//
// The aggregate is mutated only through its methods; collaborators never write
// fields directly. Persistence restores it via RestoreOrder.
type Order struct {
	id      kernel.UUID
	buyerID kernel.UUID
	// sellerID is the party whose commit/decline action drives the lifecycle
	sellerID kernel.UUID
	itemID   kernel.UUID

	shipping ShippingDetails

	subtotal    kernel.Money
	deliveryFee kernel.Money
	totalAmount kernel.Money

	// platformFee + sellerAmount == subtotal, computed once by the settlement
	// calculator and never recomputed elsewhere
	platformFee  kernel.Money
	sellerAmount kernel.Money

	status         Status
	deliveryMethod DeliveryMethod
	lockerID       string

	trackingReference string
	dropoffCode       string

	// paymentReference is the processor-side identifier; immutable once set
	paymentReference string

	refundStatus RefundStatus
	refundAmount kernel.Money
	refundReason RefundReason

	committedAt *time.Time
	collectedAt *time.Time
	deliveredAt *time.Time
	cancelledAt *time.Time
	createdAt   time.Time
	updatedAt   time.Time

	isConstructed bool
}

// NewOrder creates a new Order in PendingCommit status. It is called once the
// payment processor has authorized the charge identified by paymentReference.
//
// The settlement split (platformFee, sellerAmount) must already be computed by
// the settlement calculator; the constructor verifies it sums to the subtotal.
// The total amount is derived as subtotal + deliveryFee and is never stored
// independently of its parts.
func NewOrder(
	id, buyerID, sellerID, itemID kernel.UUID,
	shipping ShippingDetails,
	subtotal, deliveryFee, platformFee, sellerAmount kernel.Money,
	paymentReference string,
	now time.Time,
) (*Order, error) {
	if err := errors.Join(
		id.Validate(),
		buyerID.Validate(),
		sellerID.Validate(),
		itemID.Validate(),
		shipping.Validate(),
		subtotal.Validate(),
		deliveryFee.Validate(),
		platformFee.Validate(),
		sellerAmount.Validate(),
	); err != nil {
		return nil, err
	}

	if paymentReference == "" {
		return nil, errs.NewValueIsRequiredError("payment reference")
	}

	if !platformFee.Add(sellerAmount).IsEqual(subtotal) {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"settlement split",
			fmt.Errorf("platform fee %s + seller amount %s != subtotal %s",
				platformFee, sellerAmount, subtotal),
		)
	}

	return &Order{
		id:               id,
		buyerID:          buyerID,
		sellerID:         sellerID,
		itemID:           itemID,
		shipping:         shipping,
		subtotal:         subtotal,
		deliveryFee:      deliveryFee,
		totalAmount:      subtotal.Add(deliveryFee),
		platformFee:      platformFee,
		sellerAmount:     sellerAmount,
		status:           PendingCommit,
		refundStatus:     RefundNone,
		paymentReference: paymentReference,
		createdAt:        now,
		updatedAt:        now,
		isConstructed:    true,
	}, nil
}

// RestoreOrderParams carries the persisted state of an order back into the domain.
type RestoreOrderParams struct {
	ID                kernel.UUID
	BuyerID           kernel.UUID
	SellerID          kernel.UUID
	ItemID            kernel.UUID
	Shipping          ShippingDetails
	Subtotal          kernel.Money
	DeliveryFee       kernel.Money
	PlatformFee       kernel.Money
	SellerAmount      kernel.Money
	Status            Status
	DeliveryMethod    DeliveryMethod
	LockerID          string
	TrackingReference string
	DropoffCode       string
	PaymentReference  string
	RefundStatus      RefundStatus
	RefundAmount      kernel.Money
	RefundReason      RefundReason
	CommittedAt       *time.Time
	CollectedAt       *time.Time
	DeliveredAt       *time.Time
	CancelledAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RestoreOrder reconstructs an Order from persistence. It re-checks the money
// invariants so that a corrupted row never re-enters the domain silently.
func RestoreOrder(p RestoreOrderParams) (*Order, error) {
	if err := errors.Join(
		p.ID.Validate(),
		p.BuyerID.Validate(),
		p.SellerID.Validate(),
		p.ItemID.Validate(),
		p.Status.Validate(),
	); err != nil {
		return nil, err
	}

	if !p.PlatformFee.Add(p.SellerAmount).IsEqual(p.Subtotal) {
		return nil, errs.NewDataIntegrityError(
			"restore order",
			fmt.Errorf("settlement split does not sum to subtotal for order %s", p.ID),
		)
	}

	if p.RefundAmount > p.Subtotal.Add(p.DeliveryFee) {
		return nil, errs.NewDataIntegrityError(
			"restore order",
			fmt.Errorf("refund amount exceeds total for order %s", p.ID),
		)
	}

	return &Order{
		id:                p.ID,
		buyerID:           p.BuyerID,
		sellerID:          p.SellerID,
		itemID:            p.ItemID,
		shipping:          p.Shipping,
		subtotal:          p.Subtotal,
		deliveryFee:       p.DeliveryFee,
		totalAmount:       p.Subtotal.Add(p.DeliveryFee),
		platformFee:       p.PlatformFee,
		sellerAmount:      p.SellerAmount,
		status:            p.Status,
		deliveryMethod:    p.DeliveryMethod,
		lockerID:          p.LockerID,
		trackingReference: p.TrackingReference,
		dropoffCode:       p.DropoffCode,
		paymentReference:  p.PaymentReference,
		refundStatus:      p.RefundStatus,
		refundAmount:      p.RefundAmount,
		refundReason:      p.RefundReason,
		committedAt:       p.CommittedAt,
		collectedAt:       p.CollectedAt,
		deliveredAt:       p.DeliveredAt,
		cancelledAt:       p.CancelledAt,
		createdAt:         p.CreatedAt,
		updatedAt:         p.UpdatedAt,
		isConstructed:     true,
	}, nil
}

// Validate ensures the Order instance was properly constructed through
// NewOrder or RestoreOrder.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID { return o.id }

// BuyerID returns the buyer's identifier.
func (o *Order) BuyerID() kernel.UUID { return o.buyerID }

// SellerID returns the seller's identifier.
func (o *Order) SellerID() kernel.UUID { return o.sellerID }

// ItemID returns the purchased item's identifier.
func (o *Order) ItemID() kernel.UUID { return o.itemID }

// Shipping returns the immutable shipping details captured at checkout.
func (o *Order) Shipping() ShippingDetails { return o.shipping }

// Subtotal returns the item subtotal in minor currency units.
func (o *Order) Subtotal() kernel.Money { return o.subtotal }

// DeliveryFee returns the delivery fee in minor currency units.
func (o *Order) DeliveryFee() kernel.Money { return o.deliveryFee }

// TotalAmount returns subtotal + delivery fee.
func (o *Order) TotalAmount() kernel.Money { return o.totalAmount }

// PlatformFee returns the platform's share of the subtotal.
func (o *Order) PlatformFee() kernel.Money { return o.platformFee }

// SellerAmount returns the seller's share of the subtotal.
func (o *Order) SellerAmount() kernel.Money { return o.sellerAmount }

// Status returns the current lifecycle status.
func (o *Order) Status() Status { return o.status }

// DeliveryMethod returns the chosen fulfillment path, MethodUnknown before commit.
func (o *Order) DeliveryMethod() DeliveryMethod { return o.deliveryMethod }

// LockerID returns the locker identifier for locker fulfilment, empty otherwise.
func (o *Order) LockerID() string { return o.lockerID }

// TrackingReference returns the courier tracking reference, empty until scheduled.
func (o *Order) TrackingReference() string { return o.trackingReference }

// DropoffCode returns the locker drop-off code, empty for home pickups.
func (o *Order) DropoffCode() string { return o.dropoffCode }

// PaymentReference returns the processor-side payment identifier.
func (o *Order) PaymentReference() string { return o.paymentReference }

// RefundStatus returns the refund progress for this order.
func (o *Order) RefundStatus() RefundStatus { return o.refundStatus }

// RefundAmount returns the amount claimed or refunded so far.
func (o *Order) RefundAmount() kernel.Money { return o.refundAmount }

// RefundReason returns the reason code of the refund, ReasonUnknown if none.
func (o *Order) RefundReason() RefundReason { return o.refundReason }

// CommittedAt returns when the seller committed, nil if never.
func (o *Order) CommittedAt() *time.Time { return o.committedAt }

// CollectedAt returns when the courier collected the package, nil if never.
func (o *Order) CollectedAt() *time.Time { return o.collectedAt }

// DeliveredAt returns when the order was delivered, nil if never.
func (o *Order) DeliveredAt() *time.Time { return o.deliveredAt }

// CancelledAt returns when the order reached a cancellation state, nil if never.
func (o *Order) CancelledAt() *time.Time { return o.cancelledAt }

// CreatedAt returns when the order was created.
func (o *Order) CreatedAt() time.Time { return o.createdAt }

// UpdatedAt returns when the order was last mutated.
func (o *Order) UpdatedAt() time.Time { return o.updatedAt }

// Commit records the seller's binding acceptance of the sale and the chosen
// fulfillment path. Valid only from PendingCommit; re-applying on an already
// committed order is a no-op.
func (o *Order) Commit(method DeliveryMethod, lockerID string, at time.Time) error {
	if err := method.Validate(); err != nil {
		return err
	}
	if method == MethodLocker && lockerID == "" {
		return ErrLockerIDIsRequired
	}

	newStatus, err := o.status.TransitionTo(Committed)
	if err != nil {
		return err
	}
	if newStatus == o.status {
		return nil
	}

	o.status = newStatus
	o.deliveryMethod = method
	o.lockerID = lockerID
	o.committedAt = &at
	o.touch(at)
	return nil
}

// ScheduleCourier records the courier shipment created for a committed order.
// The tracking reference is mandatory; the drop-off code is set for locker
// fulfilment only.
func (o *Order) ScheduleCourier(trackingReference, dropoffCode string, at time.Time) error {
	if trackingReference == "" {
		return errs.NewValueIsRequiredError("tracking reference")
	}

	newStatus, err := o.status.TransitionTo(CourierScheduled)
	if err != nil {
		return err
	}
	if newStatus == o.status {
		return nil
	}

	o.status = newStatus
	o.trackingReference = trackingReference
	o.dropoffCode = dropoffCode
	o.touch(at)
	return nil
}

// MarkCollected records the courier collection event.
func (o *Order) MarkCollected(at time.Time) error {
	newStatus, err := o.status.TransitionTo(Collected)
	if err != nil {
		return err
	}
	if newStatus == o.status {
		return nil
	}

	o.status = newStatus
	o.collectedAt = &at
	o.touch(at)
	return nil
}

// MarkDelivered records the final delivery to the buyer. Terminal.
func (o *Order) MarkDelivered(at time.Time) error {
	newStatus, err := o.status.TransitionTo(Delivered)
	if err != nil {
		return err
	}
	if newStatus == o.status {
		return nil
	}

	o.status = newStatus
	o.deliveredAt = &at
	o.touch(at)
	return nil
}

// Decline records the seller's rejection of the sale. Terminal.
func (o *Order) Decline(at time.Time) error {
	newStatus, err := o.status.TransitionTo(DeclinedBySeller)
	if err != nil {
		return err
	}
	if newStatus == o.status {
		return nil
	}

	o.status = newStatus
	o.cancelledAt = &at
	o.touch(at)
	return nil
}

// CancelByBuyer records a buyer withdrawal before seller commitment. Terminal.
func (o *Order) CancelByBuyer(at time.Time) error {
	newStatus, err := o.status.TransitionTo(CancelledByBuyer)
	if err != nil {
		return err
	}
	if newStatus == o.status {
		return nil
	}

	o.status = newStatus
	o.cancelledAt = &at
	o.touch(at)
	return nil
}

// TimeoutCollection records that the courier never collected the package
// within the collection window.
func (o *Order) TimeoutCollection(at time.Time) error {
	newStatus, err := o.status.TransitionTo(CollectionTimeout)
	if err != nil {
		return err
	}
	if newStatus == o.status {
		return nil
	}

	o.status = newStatus
	o.touch(at)
	return nil
}

// CancelAfterMissedPickup records the seller's cancellation of an order that
// sat in CollectionTimeout. Terminal.
func (o *Order) CancelAfterMissedPickup(at time.Time) error {
	newStatus, err := o.status.TransitionTo(CancelledBySellerAfterMissedPickup)
	if err != nil {
		return err
	}
	if newStatus == o.status {
		return nil
	}

	o.status = newStatus
	o.cancelledAt = &at
	o.touch(at)
	return nil
}

// ClaimRefund marks the order as having a refund in flight. Only one claim can
// succeed for a given payment: a claim on an order whose refund status is not
// RefundNone or RefundFailed returns an error, which is the domain half of the
// double-refund guard (the conditional persistence update is the other half).
//
// The amount must not exceed the order total; a partial amount below the total
// is allowed, e.g. retaining the delivery fee on late cancellation.
func (o *Order) ClaimRefund(amount kernel.Money, reason RefundReason) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	if err := reason.Validate(); err != nil {
		return err
	}
	if amount > o.totalAmount {
		return errs.NewValueIsOutOfRangeError("refund amount", amount.Units(), 0, o.totalAmount.Units())
	}
	if o.refundStatus != RefundNone && o.refundStatus != RefundFailed {
		return errs.NewValueIsInvalidErrorWithCause(
			"refund status",
			fmt.Errorf("refund already %s for payment %s", o.refundStatus, o.paymentReference),
		)
	}

	o.refundStatus = RefundPending
	o.refundAmount = amount
	o.refundReason = reason
	return nil
}

// CompleteRefund records processor confirmation of the pending refund.
func (o *Order) CompleteRefund() error {
	if o.refundStatus != RefundPending {
		return errs.NewValueIsInvalidErrorWithCause(
			"refund status",
			fmt.Errorf("cannot complete refund in status %s", o.refundStatus),
		)
	}
	o.refundStatus = RefundProcessed
	return nil
}

// FailRefund records an upstream failure of the pending refund so a later
// retry can re-claim it.
func (o *Order) FailRefund() error {
	if o.refundStatus != RefundPending {
		return errs.NewValueIsInvalidErrorWithCause(
			"refund status",
			fmt.Errorf("cannot fail refund in status %s", o.refundStatus),
		)
	}
	o.refundStatus = RefundFailed
	return nil
}

func (o *Order) touch(at time.Time) {
	o.updatedAt = at
}
