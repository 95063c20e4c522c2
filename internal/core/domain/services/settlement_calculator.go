package services

import (
	"fmt"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/errs"
)

// DefaultPlatformFeeBps is the platform's share of the subtotal in basis points (10%).
const DefaultPlatformFeeBps = 1000

// SettlementSplit is the computed division of proceeds for one order.
// It is the single source of truth for money movement: no other component
// recomputes the split.
//
// Invariant: PlatformFee + SellerAmount == subtotal exactly. Rounding is
// resolved by flooring the fee; the remainder goes to the seller.
type SettlementSplit struct {
	PlatformFee  kernel.Money
	SellerAmount kernel.Money
	DeliveryFee  kernel.Money
}

// Total returns the full amount the buyer pays: subtotal plus delivery fee.
func (s SettlementSplit) Total() kernel.Money {
	return s.PlatformFee.Add(s.SellerAmount).Add(s.DeliveryFee)
}

// SettlementCalculator computes the platform fee / seller payout / delivery fee
// split over integer minor currency units. Floating point is never used, so a
// split can be recomputed bit-for-bit at any time.
type SettlementCalculator struct {
	feeBps int64
}

// NewSettlementCalculator creates a calculator with the given platform fee in
// basis points. Passing a value outside [0, 10000] is rejected.
func NewSettlementCalculator(feeBps int64) (SettlementCalculator, error) {
	if feeBps < 0 || feeBps > 10000 {
		return SettlementCalculator{}, errs.NewValueIsOutOfRangeError("platform fee bps", feeBps, 0, 10000)
	}
	return SettlementCalculator{feeBps: feeBps}, nil
}

// Calculate returns the settlement split for the given subtotal and delivery fee.
//
// The platform fee is floor(subtotal * feeBps / 10000); integer division floors
// for non-negative operands, so the remainder always lands with the seller.
func (c SettlementCalculator) Calculate(subtotal, deliveryFee kernel.Money) (SettlementSplit, error) {
	if err := subtotal.Validate(); err != nil {
		return SettlementSplit{}, err
	}
	if err := deliveryFee.Validate(); err != nil {
		return SettlementSplit{}, err
	}

	platformFee := kernel.Money(subtotal.Units() * c.feeBps / 10000)
	sellerAmount, err := subtotal.Sub(platformFee)
	if err != nil {
		return SettlementSplit{}, errs.NewValueIsInvalidErrorWithCause(
			"settlement",
			fmt.Errorf("platform fee %s exceeds subtotal %s", platformFee, subtotal),
		)
	}

	return SettlementSplit{
		PlatformFee:  platformFee,
		SellerAmount: sellerAmount,
		DeliveryFee:  deliveryFee,
	}, nil
}
