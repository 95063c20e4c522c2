// Package order provides domain entities and business logic for the marketplace
// order lifecycle. It implements the Order aggregate root with settlement fields,
// refund tracking and state transitions.
//
// The package includes:
//   - Order: The aggregate root that manages order identity, money invariants and lifecycle
//   - Status: A state machine that enforces the legal transition graph
//   - DeliveryMethod, RefundStatus, RefundReason: supporting value enums
//
// Key business rules:
//   - Total amount always equals subtotal plus delivery fee
//   - Status follows the graph pending_commit -> committed -> courier_scheduled ->
//     collected -> delivered, with decline/cancel/timeout side branches
//   - Terminal states (delivered, declined_by_seller, cancelled_by_buyer,
//     cancelled_by_seller_after_missed_pickup) are never left
//   - Re-applying a transition already in effect is an idempotent no-op
//   - The payment reference is immutable once set
//
// The package follows Domain-Driven Design principles, providing rich domain
// behavior, encapsulation, and validation to ensure business rules are enforced.
package order
