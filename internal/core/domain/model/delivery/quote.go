// Package delivery provides value objects for courier quotes and shipments.
// Quotes are ephemeral: only the selected quote's price survives onto the order
// as its delivery fee; the rest are discarded after selection.
package delivery

import (
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/errs"
)

// Quote is a single courier network's offer to carry a package.
//
// IsFallback marks the fixed quote returned when no provider responded, so that
// checkout is never blocked by a third-party outage while monitoring can still
// tell a fallback from a genuine low-cost quote.
type Quote struct {
	courier       string
	service       string
	price         kernel.Money
	estimatedDays int
	isFallback    bool
}

// NewQuote creates a validated provider quote.
func NewQuote(courier, service string, price kernel.Money, estimatedDays int) (Quote, error) {
	if courier == "" {
		return Quote{}, errs.NewValueIsRequiredError("courier")
	}
	if err := price.Validate(); err != nil {
		return Quote{}, err
	}
	if estimatedDays < 0 {
		return Quote{}, errs.NewValueIsOutOfRangeError("estimated days", estimatedDays, 0, 365)
	}

	return Quote{
		courier:       courier,
		service:       service,
		price:         price,
		estimatedDays: estimatedDays,
	}, nil
}

// FallbackCourier is the provider name carried by fallback quotes. No real
// courier network answers to it; shipment creation for a fallback-priced order
// tries every configured provider instead.
const FallbackCourier = "fallback"

// NewFallbackQuote creates the fixed quote used when every provider failed.
func NewFallbackQuote(price kernel.Money) Quote {
	return Quote{
		courier:       FallbackCourier,
		service:       "standard",
		price:         price,
		estimatedDays: 5,
		isFallback:    true,
	}
}

// Courier returns the provider identifier that issued the quote.
func (q Quote) Courier() string { return q.courier }

// Service returns the provider's service code.
func (q Quote) Service() string { return q.service }

// Price returns the quoted delivery price.
func (q Quote) Price() kernel.Money { return q.price }

// EstimatedDays returns the provider's delivery estimate in days.
func (q Quote) EstimatedDays() int { return q.estimatedDays }

// IsFallback reports whether this quote is the outage fallback.
func (q Quote) IsFallback() bool { return q.isFallback }

// Validate checks that the quote carries a courier and a non-negative price.
func (q Quote) Validate() error {
	if q.courier == "" {
		return errs.NewValueIsRequiredError("courier")
	}
	return q.price.Validate()
}
