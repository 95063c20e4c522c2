// Package services provides domain services that implement business logic which
// doesn't naturally belong to a single aggregate root in the marketplace system.
//
// The package includes:
//   - SettlementCalculator: the pure integer split of proceeds between platform and seller
//   - QuoteSelector: selection of the best courier quote by price, then speed
//
// Domain services hold no state beyond configuration and perform no I/O,
// following Domain-Driven Design principles.
package services
