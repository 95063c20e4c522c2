package delivery

import (
	"marketplace/internal/pkg/errs"
)

// Shipment is the result of a createShipment call against the selected courier.
// For home pickups the courier returns a label URL; for locker drop-offs it
// returns the code the seller uses at the collection point.
type Shipment struct {
	trackingReference string
	labelURL          string
	dropoffCode       string
}

// NewShipment creates a validated shipment result.
func NewShipment(trackingReference, labelURL, dropoffCode string) (Shipment, error) {
	if trackingReference == "" {
		return Shipment{}, errs.NewValueIsRequiredError("tracking reference")
	}

	return Shipment{
		trackingReference: trackingReference,
		labelURL:          labelURL,
		dropoffCode:       dropoffCode,
	}, nil
}

// TrackingReference returns the courier tracking reference.
func (s Shipment) TrackingReference() string { return s.trackingReference }

// LabelURL returns the shipping label URL, empty for locker drop-offs.
func (s Shipment) LabelURL() string { return s.labelURL }

// DropoffCode returns the locker drop-off code, empty for home pickups.
func (s Shipment) DropoffCode() string { return s.dropoffCode }
