package services

import (
	"errors"

	"marketplace/internal/core/domain/model/delivery"
)

// ErrNoQuotesAvailable is returned when selection runs over an empty quote set.
// Callers substitute the configured fallback quote rather than failing checkout.
var ErrNoQuotesAvailable = errors.New("no quotes available")

// QuoteSelector is a domain service that picks the best courier quote from the
// offers collected by the delivery orchestrator.
//
// Selection rules:
//   - Lowest price wins
//   - Ties are broken by fewer estimated days
//   - Remaining ties keep the earlier quote, so ordering of providers is stable
type QuoteSelector struct{}

// NewQuoteSelector creates a new QuoteSelector instance.
func NewQuoteSelector() QuoteSelector {
	return QuoteSelector{}
}

// Select returns the best quote from the given set.
// Returns ErrNoQuotesAvailable if the set is empty, and validation errors for
// malformed quotes.
func (QuoteSelector) Select(quotes []delivery.Quote) (delivery.Quote, error) {
	if len(quotes) == 0 {
		return delivery.Quote{}, ErrNoQuotesAvailable
	}

	best := quotes[0]
	if err := best.Validate(); err != nil {
		return delivery.Quote{}, err
	}

	for _, q := range quotes[1:] {
		if err := q.Validate(); err != nil {
			return delivery.Quote{}, err
		}

		if q.Price() < best.Price() {
			best = q
			continue
		}
		if q.Price() == best.Price() && q.EstimatedDays() < best.EstimatedDays() {
			best = q
		}
	}

	return best, nil
}
