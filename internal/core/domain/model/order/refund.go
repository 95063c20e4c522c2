package order

import (
	"fmt"

	"marketplace/internal/pkg/errs"
)

// RefundStatus tracks the progress of a compensating refund against the order's payment.
//
// Transitions: RefundNone -> RefundPending -> RefundProcessed, with
// RefundPending -> RefundFailed on an upstream failure. A failed refund may be
// re-driven back to pending by a retry; a processed refund is final.
type RefundStatus int

const (
	// RefundNone indicates no refund has been requested.
	RefundNone RefundStatus = iota

	// RefundPending indicates a refund has been claimed and the payment call is in flight.
	RefundPending

	// RefundProcessed indicates the payment processor confirmed the refund. Final.
	RefundProcessed

	// RefundFailed indicates the payment call failed; the claim may be retried.
	RefundFailed
)

// getRefundStatusStrings returns a map of RefundStatus values to wire names.
func getRefundStatusStrings() map[RefundStatus]string {
	return map[RefundStatus]string{
		RefundNone:      "none",
		RefundPending:   "pending",
		RefundProcessed: "refunded",
		RefundFailed:    "failed",
	}
}

// RefundStatusFromString parses a wire name into a RefundStatus.
func RefundStatusFromString(s string) (RefundStatus, error) {
	for status, name := range getRefundStatusStrings() {
		if name == s {
			return status, nil
		}
	}
	return RefundNone, errs.NewValueIsInvalidErrorWithCause(
		"refund status",
		fmt.Errorf("%q is not a valid refund status", s),
	)
}

// Validate checks if the RefundStatus value is valid.
func (s RefundStatus) Validate() error {
	if _, ok := getRefundStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause(
			"refund status",
			fmt.Errorf("%d is not a valid refund status", s),
		)
	}
	return nil
}

// String returns the wire name of the refund status.
func (s RefundStatus) String() string {
	if str, ok := getRefundStatusStrings()[s]; ok {
		return str
	}
	return "none"
}

// RefundReason is the machine-readable reason code attached to every refund attempt.
type RefundReason int

const (
	// ReasonUnknown represents an unset reason.
	ReasonUnknown RefundReason = iota

	// ReasonBuyerCancel is a buyer withdrawal before seller commitment.
	ReasonBuyerCancel

	// ReasonSellerDecline is a seller rejection of the sale.
	ReasonSellerDecline

	// ReasonExpiry is a compensating refund issued by the expiry sweep.
	ReasonExpiry

	// ReasonDispute is a refund issued after dispute resolution.
	ReasonDispute
)

// getRefundReasonStrings returns a map of RefundReason values to wire names.
func getRefundReasonStrings() map[RefundReason]string {
	return map[RefundReason]string{
		ReasonUnknown:       "unknown",
		ReasonBuyerCancel:   "buyer_cancel",
		ReasonSellerDecline: "seller_decline",
		ReasonExpiry:        "expiry",
		ReasonDispute:       "dispute",
	}
}

// RefundReasonFromString parses a wire name into a RefundReason.
func RefundReasonFromString(s string) (RefundReason, error) {
	for reason, name := range getRefundReasonStrings() {
		if name == s && reason != ReasonUnknown {
			return reason, nil
		}
	}
	return ReasonUnknown, errs.NewValueIsInvalidErrorWithCause(
		"refund reason",
		fmt.Errorf("%q is not a valid refund reason", s),
	)
}

// Validate checks if the RefundReason value is valid.
func (r RefundReason) Validate() error {
	if _, ok := getRefundReasonStrings()[r]; !ok || r == ReasonUnknown {
		return errs.NewValueIsInvalidErrorWithCause(
			"refund reason",
			fmt.Errorf("%d is not a valid refund reason", r),
		)
	}
	return nil
}

// String returns the wire name of the refund reason.
func (r RefundReason) String() string {
	if str, ok := getRefundReasonStrings()[r]; ok {
		return str
	}
	return "unknown"
}
