// Package notify implements the notification channel client over the
// notification service's HTTP API. Delivery is best-effort: callers log
// failures and move on, so this client never retries on its own.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"marketplace/internal/pkg/errs"
)

const defaultRequestTimeout = 5 * time.Second

// Client sends templated notifications through the notification service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a notification service client.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, errs.NewValueIsRequiredError("notification base URL")
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
	}, nil
}

type sendRequest struct {
	To       string         `json:"to"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data,omitempty"`
}

// Send posts one notification. The service renders the named template with
// the supplied data and picks the channel from the recipient's preferences.
func (c *Client) Send(ctx context.Context, to, template string, data map[string]any) error {
	if to == "" {
		return errs.NewValueIsRequiredError("recipient")
	}
	if template == "" {
		return errs.NewValueIsRequiredError("template")
	}

	body, err := json.Marshal(sendRequest{To: to, Template: template, Data: data})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notifications", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.NewUpstreamUnavailableError("notification service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return errs.NewUpstreamUnavailableError(
			"notification service",
			fmt.Errorf("POST /notifications: status %d", resp.StatusCode),
		)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return errs.NewValueIsInvalidErrorWithCause(
			"notification request",
			fmt.Errorf("POST /notifications: status %d", resp.StatusCode),
		)
	}

	return nil
}
