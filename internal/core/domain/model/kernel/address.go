package kernel

import (
	"marketplace/internal/pkg/errs"
)

// Address is a value object describing a physical pickup or delivery point.
// It is passed to courier providers when requesting quotes and creating shipments.
//
// Street and city are mandatory; state and postcode are optional because some
// courier networks quote on city level only. Address is immutable once created.
type Address struct {
	street   string
	city     string
	state    string
	postcode string
}

// NewAddress creates a validated Address.
// Returns an error if street or city is empty.
func NewAddress(street, city, state, postcode string) (Address, error) {
	if street == "" {
		return Address{}, errs.NewValueIsRequiredError("street")
	}
	if city == "" {
		return Address{}, errs.NewValueIsRequiredError("city")
	}

	return Address{
		street:   street,
		city:     city,
		state:    state,
		postcode: postcode,
	}, nil
}

// Street returns the street line of the address.
func (a Address) Street() string {
	return a.street
}

// City returns the city of the address.
func (a Address) City() string {
	return a.city
}

// State returns the state or region of the address, possibly empty.
func (a Address) State() string {
	return a.state
}

// Postcode returns the postal code of the address, possibly empty.
func (a Address) Postcode() string {
	return a.postcode
}

// IsEqual compares two addresses field by field.
func (a Address) IsEqual(other Address) bool {
	return a == other
}

// Validate checks that the address carries its mandatory fields.
// A zero-value Address fails validation.
func (a Address) Validate() error {
	if a.street == "" {
		return errs.NewValueIsRequiredError("street")
	}
	if a.city == "" {
		return errs.NewValueIsRequiredError("city")
	}
	return nil
}
