// Package payment implements the payment processor client over its HTTP API.
// The processor holds the money: charges are initialized here, buyers authorize
// them on the processor's page, and the processor reports the outcome through
// webhooks that the HTTP adapter verifies and feeds back into the application.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/services"
	"marketplace/internal/core/ports"
	"marketplace/internal/pkg/errs"
)

const defaultRequestTimeout = 15 * time.Second

// Client calls the payment processor's REST API.
// All amounts on the wire are integer minor currency units.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewClient creates a payment processor client.
// secretKey authenticates every call as a bearer token.
func NewClient(baseURL, secretKey string) (*Client, error) {
	if baseURL == "" {
		return nil, errs.NewValueIsRequiredError("payment base URL")
	}
	if secretKey == "" {
		return nil, errs.NewValueIsRequiredError("payment secret key")
	}

	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
	}, nil
}

type initializeRequest struct {
	Amount   int64             `json:"amount"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Split    splitPayload      `json:"split"`
}

type splitPayload struct {
	PlatformFee  int64 `json:"platform_fee"`
	SellerAmount int64 `json:"seller_amount"`
	DeliveryFee  int64 `json:"delivery_fee"`
}

type initializeResponse struct {
	Data struct {
		Reference        string `json:"reference"`
		AuthorizationURL string `json:"authorization_url"`
	} `json:"data"`
}

type verifyResponse struct {
	Data struct {
		Reference string            `json:"reference"`
		Status    string            `json:"status"`
		Amount    int64             `json:"amount"`
		Metadata  map[string]string `json:"metadata"`
	} `json:"data"`
}

type refundRequest struct {
	Transaction string `json:"transaction"`
	Amount      int64  `json:"amount,omitempty"`
}

type refundResponse struct {
	Data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}

// Initialize starts a charge and returns the processor reference plus the
// authorization URL for the buyer.
func (c *Client) Initialize(
	ctx context.Context,
	amount kernel.Money,
	email string,
	split services.SettlementSplit,
	metadata map[string]string,
) (ports.PaymentInitialization, error) {
	payload := initializeRequest{
		Amount:   amount.Units(),
		Email:    email,
		Metadata: metadata,
		Split: splitPayload{
			PlatformFee:  split.PlatformFee.Units(),
			SellerAmount: split.SellerAmount.Units(),
			DeliveryFee:  split.DeliveryFee.Units(),
		},
	}

	var resp initializeResponse
	if err := c.post(ctx, "/transaction/initialize", payload, &resp); err != nil {
		return ports.PaymentInitialization{}, err
	}

	return ports.PaymentInitialization{
		Reference:        resp.Data.Reference,
		AuthorizationURL: resp.Data.AuthorizationURL,
	}, nil
}

// Verify fetches the current status of a charge by reference.
func (c *Client) Verify(ctx context.Context, reference string) (ports.PaymentVerification, error) {
	if reference == "" {
		return ports.PaymentVerification{}, errs.NewValueIsRequiredError("payment reference")
	}

	var resp verifyResponse
	if err := c.get(ctx, "/transaction/verify/"+reference, &resp); err != nil {
		return ports.PaymentVerification{}, err
	}

	amount, err := kernel.NewMoney(resp.Data.Amount)
	if err != nil {
		return ports.PaymentVerification{}, errs.NewDataIntegrityError("verify payment", err)
	}

	return ports.PaymentVerification{
		Reference: resp.Data.Reference,
		Status:    resp.Data.Status,
		Amount:    amount,
		Metadata:  resp.Data.Metadata,
	}, nil
}

// Refund issues a refund against a captured charge. A zero amount refunds the
// full charge. The processor treats the transaction reference as the
// idempotency key, so retries after a timeout are safe.
func (c *Client) Refund(ctx context.Context, reference string, amount kernel.Money) (ports.RefundResult, error) {
	if reference == "" {
		return ports.RefundResult{}, errs.NewValueIsRequiredError("payment reference")
	}

	payload := refundRequest{
		Transaction: reference,
		Amount:      amount.Units(),
	}

	var resp refundResponse
	if err := c.post(ctx, "/refund", payload, &resp); err != nil {
		return ports.RefundResult{}, err
	}

	return ports.RefundResult{
		RefundID: resp.Data.ID,
		Status:   resp.Data.Status,
	}, nil
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
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.NewUpstreamUnavailableError("payment processor", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return errs.NewUpstreamUnavailableError(
			"payment processor",
			fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, resp.StatusCode),
		)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errs.NewValueIsInvalidErrorWithCause(
			"payment request",
			fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, msg),
		)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
