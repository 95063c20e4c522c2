package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"marketplace/internal/core/ports"
	"marketplace/internal/pkg/errs"
	"marketplace/internal/pkg/metrics"
)

// Notification templates. The channel adapter resolves these to actual message
// bodies; the core only names the event.
const (
	TemplatePaymentConfirmed   = "payment_confirmed"
	TemplateOrderCommitted     = "order_committed"
	TemplateOrderDeclined      = "order_declined"
	TemplateOrderCancelled     = "order_cancelled"
	TemplateCourierScheduled   = "courier_scheduled"
	TemplateOrderCollected     = "order_collected"
	TemplateOrderDelivered     = "order_delivered"
	TemplateCollectionOverdue  = "collection_overdue"
	TemplateOrderExpired       = "order_expired"
	TemplateRefundProcessed    = "refund_processed"
	TemplateActionNeededSeller = "action_needed_seller"
)

// NotificationDispatcher sends notifications asynchronously. Dispatch returns
// immediately; delivery happens on a background goroutine with its own timeout
// so a slow notification channel can never delay a state transition. Failures
// are logged and counted, never propagated.
type NotificationDispatcher struct {
	client  ports.NotificationClient
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewNotificationDispatcher creates a NotificationDispatcher over the given
// channel client.
func NewNotificationDispatcher(
	client ports.NotificationClient,
	timeout time.Duration,
	logger *slog.Logger,
) (*NotificationDispatcher, error) {
	if client == nil {
		return nil, errs.NewValueIsRequiredError("client")
	}
	if timeout <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("timeout", timeout, 1, "inf")
	}
	if logger == nil {
		return nil, errs.NewValueIsRequiredError("logger")
	}

	return &NotificationDispatcher{
		client:  client,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Dispatch queues a notification for asynchronous delivery and returns
// immediately. The background send uses a fresh context: the request that
// triggered the notification may complete long before delivery does.
func (d *NotificationDispatcher) Dispatch(recipient, template string, data map[string]any) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.client.Send(ctx, recipient, template, data); err != nil {
			metrics.NotificationFailures.Inc()
			d.logger.Warn("notification delivery failed",
				"recipient", recipient, "template", template, "error", err)
		}
	}()
}

// Wait blocks until all in-flight notifications finished. Called on shutdown.
func (d *NotificationDispatcher) Wait() {
	d.wg.Wait()
}
