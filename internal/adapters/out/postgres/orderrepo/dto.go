// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"time"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Statuses, delivery methods and refund fields are stored under their wire
// names rather than integer codes so that raw SQL and operational queries stay
// readable. The payment reference carries a unique index: it is the idempotency
// key for webhook-driven order creation and the double-refund guard.
type OrderDTO struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	BuyerID  uuid.UUID `gorm:"type:uuid;index"`
	SellerID uuid.UUID `gorm:"type:uuid;index"`
	ItemID   uuid.UUID `gorm:"type:uuid;index"`

	Pickup      AddressDTO `gorm:"embedded;embeddedPrefix:pickup_"`
	Dropoff     AddressDTO `gorm:"embedded;embeddedPrefix:delivery_"`
	WeightGrams int

	Subtotal     int64
	DeliveryFee  int64
	PlatformFee  int64
	SellerAmount int64

	Status         string `gorm:"type:varchar(64);index:idx_orders_status_updated_at,priority:1"`
	DeliveryMethod string `gorm:"type:varchar(16)"`
	LockerID       string

	TrackingReference string
	DropoffCode       string

	PaymentReference string `gorm:"type:varchar(128);uniqueIndex"`
	RefundStatus     string `gorm:"type:varchar(16)"`
	RefundAmount     int64
	RefundReason     string `gorm:"type:varchar(32)"`

	CommittedAt *time.Time
	CollectedAt *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time `gorm:"index:idx_orders_status_updated_at,priority:2"`
}

// TableName specifies the database table name for order entities.
// Overrides GORM's default naming convention to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// AddressDTO represents an embedded pickup or delivery address within the order table.
type AddressDTO struct {
	Street   string
	City     string
	State    string
	Postcode string
}

// fromDomain converts an order domain aggregate to its database representation.
func fromDomain(aggregate *order.Order) OrderDTO {
	shipping := aggregate.Shipping()

	return OrderDTO{
		ID:       aggregate.ID().Bytes(),
		BuyerID:  aggregate.BuyerID().Bytes(),
		SellerID: aggregate.SellerID().Bytes(),
		ItemID:   aggregate.ItemID().Bytes(),
		Pickup: AddressDTO{
			Street:   shipping.PickupAddress().Street(),
			City:     shipping.PickupAddress().City(),
			State:    shipping.PickupAddress().State(),
			Postcode: shipping.PickupAddress().Postcode(),
		},
		Dropoff: AddressDTO{
			Street:   shipping.DeliveryAddress().Street(),
			City:     shipping.DeliveryAddress().City(),
			State:    shipping.DeliveryAddress().State(),
			Postcode: shipping.DeliveryAddress().Postcode(),
		},
		WeightGrams:       shipping.WeightGrams(),
		Subtotal:          aggregate.Subtotal().Units(),
		DeliveryFee:       aggregate.DeliveryFee().Units(),
		PlatformFee:       aggregate.PlatformFee().Units(),
		SellerAmount:      aggregate.SellerAmount().Units(),
		Status:            aggregate.Status().String(),
		DeliveryMethod:    aggregate.DeliveryMethod().String(),
		LockerID:          aggregate.LockerID(),
		TrackingReference: aggregate.TrackingReference(),
		DropoffCode:       aggregate.DropoffCode(),
		PaymentReference:  aggregate.PaymentReference(),
		RefundStatus:      aggregate.RefundStatus().String(),
		RefundAmount:      aggregate.RefundAmount().Units(),
		RefundReason:      aggregate.RefundReason().String(),
		CommittedAt:       aggregate.CommittedAt(),
		CollectedAt:       aggregate.CollectedAt(),
		DeliveredAt:       aggregate.DeliveredAt(),
		CancelledAt:       aggregate.CancelledAt(),
		CreatedAt:         aggregate.CreatedAt(),
		UpdatedAt:         aggregate.UpdatedAt(),
	}
}

// toDomain converts a database DTO back to an order domain aggregate
// using RestoreOrder, which re-checks the money invariants.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	buyerID, err := kernel.UUIDFromBytes(dto.BuyerID[:])
	if err != nil {
		return nil, err
	}
	sellerID, err := kernel.UUIDFromBytes(dto.SellerID[:])
	if err != nil {
		return nil, err
	}
	itemID, err := kernel.UUIDFromBytes(dto.ItemID[:])
	if err != nil {
		return nil, err
	}

	pickup, err := kernel.NewAddress(dto.Pickup.Street, dto.Pickup.City, dto.Pickup.State, dto.Pickup.Postcode)
	if err != nil {
		return nil, err
	}
	dropoff, err := kernel.NewAddress(dto.Dropoff.Street, dto.Dropoff.City, dto.Dropoff.State, dto.Dropoff.Postcode)
	if err != nil {
		return nil, err
	}
	shipping, err := order.NewShippingDetails(pickup, dropoff, dto.WeightGrams)
	if err != nil {
		return nil, err
	}

	status, err := order.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}
	refundStatus, err := order.RefundStatusFromString(dto.RefundStatus)
	if err != nil {
		return nil, err
	}

	// The method and reason columns hold "unknown" until commit and the first
	// refund claim respectively.
	deliveryMethod := order.MethodUnknown
	if dto.DeliveryMethod != "" && dto.DeliveryMethod != order.MethodUnknown.String() {
		deliveryMethod, err = order.DeliveryMethodFromString(dto.DeliveryMethod)
		if err != nil {
			return nil, err
		}
	}
	refundReason := order.ReasonUnknown
	if dto.RefundReason != "" && dto.RefundReason != order.ReasonUnknown.String() {
		refundReason, err = order.RefundReasonFromString(dto.RefundReason)
		if err != nil {
			return nil, err
		}
	}

	subtotal, err := kernel.NewMoney(dto.Subtotal)
	if err != nil {
		return nil, err
	}
	deliveryFee, err := kernel.NewMoney(dto.DeliveryFee)
	if err != nil {
		return nil, err
	}
	platformFee, err := kernel.NewMoney(dto.PlatformFee)
	if err != nil {
		return nil, err
	}
	sellerAmount, err := kernel.NewMoney(dto.SellerAmount)
	if err != nil {
		return nil, err
	}
	refundAmount, err := kernel.NewMoney(dto.RefundAmount)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(order.RestoreOrderParams{
		ID:                id,
		BuyerID:           buyerID,
		SellerID:          sellerID,
		ItemID:            itemID,
		Shipping:          shipping,
		Subtotal:          subtotal,
		DeliveryFee:       deliveryFee,
		PlatformFee:       platformFee,
		SellerAmount:      sellerAmount,
		Status:            status,
		DeliveryMethod:    deliveryMethod,
		LockerID:          dto.LockerID,
		TrackingReference: dto.TrackingReference,
		DropoffCode:       dto.DropoffCode,
		PaymentReference:  dto.PaymentReference,
		RefundStatus:      refundStatus,
		RefundAmount:      refundAmount,
		RefundReason:      refundReason,
		CommittedAt:       dto.CommittedAt,
		CollectedAt:       dto.CollectedAt,
		DeliveredAt:       dto.DeliveredAt,
		CancelledAt:       dto.CancelledAt,
		CreatedAt:         dto.CreatedAt,
		UpdatedAt:         dto.UpdatedAt,
	})
}
