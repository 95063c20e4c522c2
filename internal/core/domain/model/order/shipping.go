package order

import (
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/errs"
)

// maxShipmentWeightGrams is the heaviest package the courier networks accept.
const maxShipmentWeightGrams = 30_000

// ShippingDetails captures what the courier needs to move the package: where to
// collect it, where to deliver it, and how heavy it is. Captured at checkout and
// immutable for the life of the order, so courier scheduling can be re-driven
// later without re-asking the buyer or seller.
type ShippingDetails struct {
	pickupAddress   kernel.Address
	deliveryAddress kernel.Address
	weightGrams     int
}

// NewShippingDetails creates validated shipping details.
func NewShippingDetails(pickup, delivery kernel.Address, weightGrams int) (ShippingDetails, error) {
	if err := pickup.Validate(); err != nil {
		return ShippingDetails{}, err
	}
	if err := delivery.Validate(); err != nil {
		return ShippingDetails{}, err
	}
	if weightGrams <= 0 || weightGrams > maxShipmentWeightGrams {
		return ShippingDetails{}, errs.NewValueIsOutOfRangeError(
			"weight grams", weightGrams, 1, maxShipmentWeightGrams)
	}

	return ShippingDetails{
		pickupAddress:   pickup,
		deliveryAddress: delivery,
		weightGrams:     weightGrams,
	}, nil
}

// PickupAddress returns the seller-side collection address.
func (s ShippingDetails) PickupAddress() kernel.Address { return s.pickupAddress }

// DeliveryAddress returns the buyer-side delivery address.
func (s ShippingDetails) DeliveryAddress() kernel.Address { return s.deliveryAddress }

// WeightGrams returns the package weight in grams.
func (s ShippingDetails) WeightGrams() int { return s.weightGrams }

// Validate checks both addresses and the weight range.
func (s ShippingDetails) Validate() error {
	if err := s.pickupAddress.Validate(); err != nil {
		return err
	}
	if err := s.deliveryAddress.Validate(); err != nil {
		return err
	}
	if s.weightGrams <= 0 || s.weightGrams > maxShipmentWeightGrams {
		return errs.NewValueIsOutOfRangeError(
			"weight grams", s.weightGrams, 1, maxShipmentWeightGrams)
	}
	return nil
}
