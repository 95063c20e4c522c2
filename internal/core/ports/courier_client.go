package ports

import (
	"context"
	"time"

	"marketplace/internal/core/domain/model/delivery"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
)

// QuoteRequest describes a package for which delivery quotes are requested.
type QuoteRequest struct {
	From        kernel.Address
	To          kernel.Address
	WeightGrams int
}

// ShipmentRequest describes the shipment to create with the selected provider.
// For locker fulfilment LockerID identifies the collection point and the
// provider responds with a drop-off code instead of a pickup.
type ShipmentRequest struct {
	OrderID     kernel.UUID
	From        kernel.Address
	To          kernel.Address
	WeightGrams int
	Method      order.DeliveryMethod
	LockerID    string
	Service     string
}

// TrackingEvent is one event in a shipment's tracking history.
type TrackingEvent struct {
	Code        string
	Description string
	At          time.Time
}

// CourierClient is the contract with one external courier network. Multiple
// interchangeable providers satisfy it; the delivery orchestrator fans quote
// requests out across all of them.
type CourierClient interface {
	// Name returns the provider identifier used in quotes and logs.
	Name() string

	// Quote returns the provider's offers for the described package.
	Quote(ctx context.Context, req QuoteRequest) ([]delivery.Quote, error)

	// CreateShipment books the shipment and returns the tracking reference plus
	// a label URL (home pickup) or drop-off code (locker).
	CreateShipment(ctx context.Context, req ShipmentRequest) (delivery.Shipment, error)

	// Track returns the tracking history for a shipment.
	Track(ctx context.Context, trackingReference string) ([]TrackingEvent, error)
}
