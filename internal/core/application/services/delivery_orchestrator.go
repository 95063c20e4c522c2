package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"marketplace/internal/core/domain/model/delivery"
	"marketplace/internal/core/domain/model/kernel"
	domainservices "marketplace/internal/core/domain/services"
	"marketplace/internal/core/ports"
	"marketplace/internal/pkg/errs"
	"marketplace/internal/pkg/metrics"
)

// DeliveryOrchestrator collects quotes from all configured courier providers in
// parallel and books shipments with the selected one.
//
// Quote collection is partial-success: every provider gets the same deadline,
// failed providers are logged and skipped, and whatever arrived in time feeds
// selection. Only when no provider returned anything does the orchestrator fall
// back to the fixed fallback quote, so a third-party outage degrades pricing
// instead of blocking checkout.
type DeliveryOrchestrator struct {
	clients       []ports.CourierClient
	selector      domainservices.QuoteSelector
	quoteTimeout  time.Duration
	fallbackPrice kernel.Money
	logger        *slog.Logger
}

// NewDeliveryOrchestrator creates a DeliveryOrchestrator over the given provider
// clients. At least one client is required.
func NewDeliveryOrchestrator(
	clients []ports.CourierClient,
	selector domainservices.QuoteSelector,
	quoteTimeout time.Duration,
	fallbackPrice kernel.Money,
	logger *slog.Logger,
) (*DeliveryOrchestrator, error) {
	if len(clients) == 0 {
		return nil, errs.NewValueIsRequiredError("clients")
	}
	if quoteTimeout <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("quoteTimeout", quoteTimeout, 1, "inf")
	}
	if err := fallbackPrice.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		return nil, errs.NewValueIsRequiredError("logger")
	}

	return &DeliveryOrchestrator{
		clients:       clients,
		selector:      selector,
		quoteTimeout:  quoteTimeout,
		fallbackPrice: fallbackPrice,
		logger:        logger,
	}, nil
}

// SelectQuote fans the quote request out to every provider under a shared
// deadline and returns the best offer. When every provider fails or times out
// it returns the fallback quote, never an error for provider unavailability.
func (o *DeliveryOrchestrator) SelectQuote(
	ctx context.Context,
	req ports.QuoteRequest,
) (delivery.Quote, error) {
	qctx, cancel := context.WithTimeout(ctx, o.quoteTimeout)
	defer cancel()

	results := make([][]delivery.Quote, len(o.clients))

	var g errgroup.Group
	for i, client := range o.clients {
		g.Go(func() error {
			quotes, err := client.Quote(qctx, req)
			if err != nil {
				// One slow or broken provider must not sink the others.
				metrics.QuoteProviderErrors.WithLabelValues(client.Name()).Inc()
				o.logger.Warn("courier quote request failed",
					"provider", client.Name(), "error", err)
				return nil
			}
			results[i] = quotes
			return nil
		})
	}
	_ = g.Wait()

	var collected []delivery.Quote
	for _, quotes := range results {
		collected = append(collected, quotes...)
	}

	best, err := o.selector.Select(collected)
	if err != nil {
		if errors.Is(err, domainservices.ErrNoQuotesAvailable) {
			metrics.FallbackQuotes.Inc()
			o.logger.Warn("no courier quotes collected, pricing with fallback",
				"fallback_price", o.fallbackPrice.Units())
			return delivery.NewFallbackQuote(o.fallbackPrice), nil
		}
		return delivery.Quote{}, err
	}

	return best, nil
}

// CreateShipment books the shipment with the named provider, retrying once on
// an upstream failure. For fallback-priced orders it walks every configured
// provider until one accepts the booking.
func (o *DeliveryOrchestrator) CreateShipment(
	ctx context.Context,
	courier string,
	req ports.ShipmentRequest,
) (delivery.Shipment, error) {
	clients := o.clientsFor(courier)
	if len(clients) == 0 {
		return delivery.Shipment{}, errs.NewObjectNotFoundError("courier", courier)
	}

	var lastErr error
	for _, client := range clients {
		shipment, err := o.createWithRetry(ctx, client, req)
		if err == nil {
			return shipment, nil
		}
		lastErr = err
	}

	return delivery.Shipment{}, lastErr
}

func (o *DeliveryOrchestrator) clientsFor(courier string) []ports.CourierClient {
	if courier == delivery.FallbackCourier {
		return o.clients
	}
	for _, client := range o.clients {
		if client.Name() == courier {
			return []ports.CourierClient{client}
		}
	}
	return nil
}

func (o *DeliveryOrchestrator) createWithRetry(
	ctx context.Context,
	client ports.CourierClient,
	req ports.ShipmentRequest,
) (delivery.Shipment, error) {
	shipment, err := client.CreateShipment(ctx, req)
	if err == nil {
		return shipment, nil
	}
	if !errors.Is(err, errs.ErrUpstreamUnavailable) {
		return delivery.Shipment{}, err
	}

	// A single immediate retry smooths transient provider blips; anything
	// longer-lived is picked up by the courier retry job.
	o.logger.Warn("shipment booking failed, retrying once",
		"provider", client.Name(), "error", err)
	return client.CreateShipment(ctx, req)
}
