// Package courier implements the courier network client over a provider's
// HTTP API. All configured providers expose the same API shape behind
// different base URLs; one Client instance is created per provider and the
// delivery orchestrator treats them interchangeably.
package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"marketplace/internal/core/domain/model/delivery"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/ports"
	"marketplace/internal/pkg/errs"
)

const defaultRequestTimeout = 10 * time.Second

// Client calls one courier provider's REST API.
type Client struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a courier provider client.
// name is the provider identifier that appears in quotes and logs.
func NewClient(name, baseURL, apiKey string) (*Client, error) {
	if name == "" {
		return nil, errs.NewValueIsRequiredError("courier provider name")
	}
	if baseURL == "" {
		return nil, errs.NewValueIsRequiredError("courier base URL")
	}

	return &Client{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return c.name
}

type addressPayload struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state,omitempty"`
	Postcode string `json:"postcode,omitempty"`
}

type quoteRequestPayload struct {
	From        addressPayload `json:"from"`
	To          addressPayload `json:"to"`
	WeightGrams int            `json:"weight_grams"`
}

type quotePayload struct {
	Service       string `json:"service"`
	Price         int64  `json:"price"`
	EstimatedDays int    `json:"estimated_days"`
}

type shipmentRequestPayload struct {
	OrderID     string         `json:"order_id"`
	From        addressPayload `json:"from"`
	To          addressPayload `json:"to"`
	WeightGrams int            `json:"weight_grams"`
	Method      string         `json:"method"`
	LockerID    string         `json:"locker_id,omitempty"`
	Service     string         `json:"service"`
}

type shipmentPayload struct {
	TrackingReference string `json:"tracking_reference"`
	LabelURL          string `json:"label_url"`
	DropoffCode       string `json:"dropoff_code"`
}

type trackingEventPayload struct {
	Code        string    `json:"code"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

// Quote returns the provider's offers for the described package.
func (c *Client) Quote(ctx context.Context, req ports.QuoteRequest) ([]delivery.Quote, error) {
	payload := quoteRequestPayload{
		From:        toAddressPayload(req.From),
		To:          toAddressPayload(req.To),
		WeightGrams: req.WeightGrams,
	}

	var offers []quotePayload
	if err := c.post(ctx, "/quotes", payload, &offers); err != nil {
		return nil, err
	}

	quotes := make([]delivery.Quote, 0, len(offers))
	for _, offer := range offers {
		price, err := kernel.NewMoney(offer.Price)
		if err != nil {
			return nil, errs.NewDataIntegrityError("courier quote", err)
		}
		quote, err := delivery.NewQuote(c.name, offer.Service, price, offer.EstimatedDays)
		if err != nil {
			return nil, errs.NewDataIntegrityError("courier quote", err)
		}
		quotes = append(quotes, quote)
	}

	return quotes, nil
}

// CreateShipment books the shipment with this provider.
func (c *Client) CreateShipment(ctx context.Context, req ports.ShipmentRequest) (delivery.Shipment, error) {
	if req.Method == order.MethodLocker && req.LockerID == "" {
		return delivery.Shipment{}, errs.NewValueIsRequiredError("locker id")
	}

	payload := shipmentRequestPayload{
		OrderID:     req.OrderID.String(),
		From:        toAddressPayload(req.From),
		To:          toAddressPayload(req.To),
		WeightGrams: req.WeightGrams,
		Method:      req.Method.String(),
		LockerID:    req.LockerID,
		Service:     req.Service,
	}

	var resp shipmentPayload
	if err := c.post(ctx, "/shipments", payload, &resp); err != nil {
		return delivery.Shipment{}, err
	}

	return delivery.NewShipment(resp.TrackingReference, resp.LabelURL, resp.DropoffCode)
}

// Track returns the tracking history for a shipment.
func (c *Client) Track(ctx context.Context, trackingReference string) ([]ports.TrackingEvent, error) {
	if trackingReference == "" {
		return nil, errs.NewValueIsRequiredError("tracking reference")
	}

	var payload []trackingEventPayload
	if err := c.get(ctx, "/shipments/"+trackingReference+"/tracking", &payload); err != nil {
		return nil, err
	}

	events := make([]ports.TrackingEvent, 0, len(payload))
	for _, event := range payload {
		events = append(events, ports.TrackingEvent{
			Code:        event.Code,
			Description: event.Description,
			At:          event.At,
		})
	}

	return events, nil
}

func toAddressPayload(address kernel.Address) addressPayload {
	return addressPayload{
		Street:   address.Street(),
		City:     address.City(),
		State:    address.State(),
		Postcode: address.Postcode(),
	}
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.send(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.NewUpstreamUnavailableError(c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return errs.NewUpstreamUnavailableError(
			c.name,
			fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, resp.StatusCode),
		)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errs.NewValueIsInvalidErrorWithCause(
			"courier request",
			fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, msg),
		)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
