package order

import (
	"fmt"

	"marketplace/internal/pkg/errs"
)

// DeliveryMethod represents the fulfillment path chosen by the seller at commit time.
type DeliveryMethod int

const (
	// MethodUnknown represents an unset delivery method.
	MethodUnknown DeliveryMethod = iota

	// MethodHome is a courier pickup from the seller's address.
	MethodHome

	// MethodLocker is a seller drop-off at an unattended collection point.
	MethodLocker
)

// getDeliveryMethodStrings returns a map of DeliveryMethod values to wire names.
func getDeliveryMethodStrings() map[DeliveryMethod]string {
	return map[DeliveryMethod]string{
		MethodUnknown: "unknown",
		MethodHome:    "home",
		MethodLocker:  "locker",
	}
}

// DeliveryMethodFromString parses a wire name into a DeliveryMethod.
func DeliveryMethodFromString(s string) (DeliveryMethod, error) {
	switch s {
	case "home":
		return MethodHome, nil
	case "locker":
		return MethodLocker, nil
	default:
		return MethodUnknown, errs.NewValueIsInvalidErrorWithCause(
			"delivery method",
			fmt.Errorf("%q is not a valid delivery method", s),
		)
	}
}

// Validate checks if the DeliveryMethod value is valid.
func (m DeliveryMethod) Validate() error {
	if m != MethodHome && m != MethodLocker {
		return errs.NewValueIsInvalidErrorWithCause(
			"delivery method",
			fmt.Errorf("%d is not a valid delivery method", m),
		)
	}
	return nil
}

// String returns the wire name of the delivery method.
func (m DeliveryMethod) String() string {
	if str, ok := getDeliveryMethodStrings()[m]; ok {
		return str
	}
	return "unknown"
}
