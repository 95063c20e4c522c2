package order

import (
	"fmt"

	"marketplace/internal/pkg/errs"
)

// Status represents the lifecycle state of a marketplace order.
// It implements a state machine with defined transitions so that orders always
// move monotonically along the fulfillment graph.
//
// State transitions:
//
//	PendingCommit ──> Committed ──> CourierScheduled ──> Collected ──> Delivered
//	      │                               │                  │
//	      ├──> DeclinedBySeller           └──> CollectionTimeout
//	      └──> CancelledByBuyer                        │
//	                                                   └──> CancelledBySellerAfterMissedPickup
//
// Delivered, DeclinedBySeller, CancelledByBuyer and CancelledBySellerAfterMissedPickup
// are terminal: no transition leaves them. Re-applying a transition whose target equals
// the current status is a no-op, not an error, because upstream webhooks and API calls
// may be delivered more than once.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// PendingCommit is the initial status once payment is authorized.
	// The order waits for the seller's binding acceptance.
	PendingCommit

	// Committed indicates the seller has accepted the sale.
	// The commitment is a business fact independent of courier availability.
	Committed

	// CourierScheduled indicates a shipment exists with the selected courier
	// and a tracking reference has been persisted.
	CourierScheduled

	// Collected indicates the courier has picked the package up
	// (or the seller dropped it at a locker and it was retrieved).
	Collected

	// Delivered indicates the buyer has received the package. Terminal.
	Delivered

	// DeclinedBySeller indicates the seller rejected the sale. Terminal.
	DeclinedBySeller

	// CancelledByBuyer indicates the buyer withdrew before seller commitment. Terminal.
	CancelledByBuyer

	// CollectionTimeout indicates the courier never collected the package within
	// the collection window. Not terminal: the seller may still cancel from here.
	CollectionTimeout

	// CancelledBySellerAfterMissedPickup indicates the seller cancelled an order
	// that sat in CollectionTimeout. Terminal.
	CancelledBySellerAfterMissedPickup
)

// getStatusStrings returns a map of Status values to their string representations.
// The strings are the wire/persistence names used by the API and event payloads.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:                            "unknown",
		PendingCommit:                      "pending_commit",
		Committed:                          "committed",
		CourierScheduled:                   "courier_scheduled",
		Collected:                          "collected",
		Delivered:                          "delivered",
		DeclinedBySeller:                   "declined_by_seller",
		CancelledByBuyer:                   "cancelled_by_buyer",
		CollectionTimeout:                  "collection_timeout",
		CancelledBySellerAfterMissedPickup: "cancelled_by_seller_after_missed_pickup",
	}
}

// getTransitions returns the legal transition table.
// A status missing from the map is terminal.
func getTransitions() map[Status][]Status {
	return map[Status][]Status{
		PendingCommit:     {Committed, DeclinedBySeller, CancelledByBuyer},
		Committed:         {CourierScheduled},
		CourierScheduled:  {Collected, CollectionTimeout},
		Collected:         {Delivered},
		CollectionTimeout: {CancelledBySellerAfterMissedPickup},
	}
}

// StatusFromString parses a persistence/wire name back into a Status.
// Returns an error for unrecognized names, including "unknown".
func StatusFromString(s string) (Status, error) {
	for status, name := range getStatusStrings() {
		if name == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause(
		"status",
		fmt.Errorf("%q is not a valid status", s),
	)
}

// Validate checks if the Status value is valid.
// Unknown (0) and any out-of-range values are invalid.
func (s Status) Validate() error {
	if _, ok := getStatusStrings()[s]; !ok || s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("%d is not a valid status", s),
		)
	}
	return nil
}

// String returns the persistence/wire name of the status.
// Implements fmt.Stringer and is safe on any Status value.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether no transition leaves this status.
func (s Status) IsTerminal() bool {
	if err := s.Validate(); err != nil {
		return false
	}
	_, hasExits := getTransitions()[s]
	return !hasExits
}

// CanTransitionTo reports whether target is adjacent to s in the transition graph.
// A status is never adjacent to itself; idempotent re-application is handled by
// TransitionTo, not by the adjacency table.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range getTransitions()[s] {
		if next == target {
			return true
		}
	}
	return false
}

// TransitionTo attempts to move the status to target.
//
// Returns:
//   - (target, nil) when target is adjacent to the current status
//   - (s, nil) when the status already equals target, an idempotent no-op,
//     required because upstream calls may be delivered more than once
//   - (Unknown, InvalidStateTransitionError) for any other pair; no state changes
func (s Status) TransitionTo(target Status) (Status, error) {
	if err := target.Validate(); err != nil {
		return Unknown, err
	}

	if s == target {
		return s, nil
	}

	if !s.CanTransitionTo(target) {
		return Unknown, errs.NewInvalidStateTransitionError(s.String(), target.String())
	}

	return target, nil
}
