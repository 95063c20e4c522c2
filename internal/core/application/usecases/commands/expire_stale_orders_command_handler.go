package commands

import (
	"context"
	"log/slog"
	"time"

	appservices "marketplace/internal/core/application/services"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/ports"
	"marketplace/internal/pkg/metrics"
)

// sweepBatchLimit bounds how many orders one sweep pass takes per class, so a
// backlog never turns a cron tick into an unbounded run.
const sweepBatchLimit = 100

// SweepResult aggregates one sweep pass. Errors counts orders that failed to
// process; they stay candidates for the next pass.
type SweepResult struct {
	Processed int
	Errors    int
}

// ExpireStaleOrdersCommandHandler enforces the expiry policy over three classes
// of stale orders:
//
//   - pending_commit past its window: auto-declined, reservation released,
//     buyer refunded in full (reason expiry)
//   - courier_scheduled past the collection window: moved to collection_timeout
//     (no refund; the seller decides via missed-pickup cancellation)
//   - collected past the auto-deliver window: auto-accepted as delivered
//
// Orders are processed one at a time; a failure on one never aborts the rest.
type ExpireStaleOrdersCommandHandler struct {
	uowFactory    OrderUoWFactory
	reservations  ports.ReservationStore
	refundHandler *RefundOrderCommandHandler
	publisher     ports.EventPublisher
	dispatcher    *appservices.NotificationDispatcher
	policy        ExpiryPolicy
	logger        *slog.Logger
}

// NewExpireStaleOrdersCommandHandler creates the sweep handler.
func NewExpireStaleOrdersCommandHandler(
	uowFactory OrderUoWFactory,
	reservations ports.ReservationStore,
	refundHandler *RefundOrderCommandHandler,
	publisher ports.EventPublisher,
	dispatcher *appservices.NotificationDispatcher,
	policy ExpiryPolicy,
	logger *slog.Logger,
) (ExpireStaleOrdersCommandHandler, error) {
	if err := policy.Validate(); err != nil {
		return ExpireStaleOrdersCommandHandler{}, err
	}

	return ExpireStaleOrdersCommandHandler{
		uowFactory:    uowFactory,
		reservations:  reservations,
		refundHandler: refundHandler,
		publisher:     publisher,
		dispatcher:    dispatcher,
		policy:        policy,
		logger:        logger,
	}, nil
}

// Handle runs one sweep pass and returns the aggregate result.
func (h *ExpireStaleOrdersCommandHandler) Handle(
	ctx context.Context,
	cmd ExpireStaleOrdersCommand,
) (SweepResult, error) {
	if err := cmd.Validate(); err != nil {
		return SweepResult{}, err
	}

	now := time.Now().UTC()
	var result SweepResult

	h.sweepClass(ctx, order.PendingCommit,
		now.Add(-h.policy.PendingCommitTTL), h.expirePendingCommit, &result)
	h.sweepClass(ctx, order.CourierScheduled,
		now.Add(-h.policy.CollectionTTL), h.timeoutCollection, &result)
	if h.policy.AutoDeliverEnabled {
		h.sweepClass(ctx, order.Collected,
			now.Add(-h.policy.AutoDeliverTTL), h.autoDeliver, &result)
	}

	h.logger.Info("expiry sweep finished",
		"processed", result.Processed, "errors", result.Errors)
	return result, nil
}

func (h *ExpireStaleOrdersCommandHandler) sweepClass(
	ctx context.Context,
	status order.Status,
	cutoff time.Time,
	process func(context.Context, *order.Order) error,
	result *SweepResult,
) {
	candidates, err := h.staleOrders(ctx, status, cutoff)
	if err != nil {
		h.logger.Error("stale order lookup failed",
			"status", status.String(), "error", err)
		result.Errors++
		metrics.SweepErrors.Inc()
		return
	}

	for _, ord := range candidates {
		if err := process(ctx, ord); err != nil {
			h.logger.Error("expiry processing failed",
				"order_id", ord.ID().String(), "status", status.String(), "error", err)
			result.Errors++
			metrics.SweepErrors.Inc()
			continue
		}
		result.Processed++
		metrics.SweepExpired.WithLabelValues(status.String()).Inc()
	}
}

func (h *ExpireStaleOrdersCommandHandler) staleOrders(
	ctx context.Context,
	status order.Status,
	cutoff time.Time,
) ([]*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	return uow.OrderRepository().GetStaleInStatus(ctx, status, cutoff, sweepBatchLimit)
}

func (h *ExpireStaleOrdersCommandHandler) expirePendingCommit(
	ctx context.Context,
	ord *order.Order,
) error {
	now := time.Now().UTC()
	noop, err := h.transition(ctx, ord, order.DeclinedBySeller, ports.StatusUpdate{
		CancelledAt: &now,
		UpdatedAt:   now,
	})
	if err != nil {
		return err
	}
	if noop {
		return retryRefundIfUnsettled(ctx, h.refundHandler, ord, order.ReasonExpiry)
	}

	publishStatusChange(ctx, h.publisher, h.logger, ord, order.PendingCommit, order.DeclinedBySeller, now)

	if err = h.reservations.Release(ctx, ord.ItemID()); err != nil {
		h.logger.Warn("reservation release failed",
			"item_id", ord.ItemID().String(), "error", err)
	}

	refundCmd, err := NewRefundOrderCommand(ord.PaymentReference(), 0, order.ReasonExpiry)
	if err != nil {
		return err
	}
	if err = h.refundHandler.Handle(ctx, refundCmd); err != nil {
		return err
	}

	h.dispatcher.Dispatch(ord.BuyerID().String(), appservices.TemplateOrderExpired, map[string]any{
		"order_id": ord.ID().String(),
	})
	h.dispatcher.Dispatch(ord.SellerID().String(), appservices.TemplateOrderExpired, map[string]any{
		"order_id": ord.ID().String(),
	})

	return nil
}

func (h *ExpireStaleOrdersCommandHandler) timeoutCollection(
	ctx context.Context,
	ord *order.Order,
) error {
	now := time.Now().UTC()
	noop, err := h.transition(ctx, ord, order.CollectionTimeout, ports.StatusUpdate{
		UpdatedAt: now,
	})
	if err != nil || noop {
		return err
	}

	publishStatusChange(ctx, h.publisher, h.logger, ord, order.CourierScheduled, order.CollectionTimeout, now)
	h.dispatcher.Dispatch(ord.SellerID().String(), appservices.TemplateCollectionOverdue, map[string]any{
		"order_id":           ord.ID().String(),
		"tracking_reference": ord.TrackingReference(),
	})

	return nil
}

func (h *ExpireStaleOrdersCommandHandler) autoDeliver(
	ctx context.Context,
	ord *order.Order,
) error {
	now := time.Now().UTC()
	noop, err := h.transition(ctx, ord, order.Delivered, ports.StatusUpdate{
		DeliveredAt: &now,
		UpdatedAt:   now,
	})
	if err != nil || noop {
		return err
	}

	publishStatusChange(ctx, h.publisher, h.logger, ord, order.Collected, order.Delivered, now)
	h.dispatcher.Dispatch(ord.BuyerID().String(), appservices.TemplateOrderDelivered, map[string]any{
		"order_id": ord.ID().String(),
	})

	return nil
}

// transition applies one conditional status change in its own transaction.
func (h *ExpireStaleOrdersCommandHandler) transition(
	ctx context.Context,
	ord *order.Order,
	target order.Status,
	update ports.StatusUpdate,
) (bool, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	noop, err := applyTransition(ctx, uow.OrderRepository(), ord, target, update)
	if err != nil {
		return false, err
	}
	if noop {
		return true, nil
	}

	return false, uow.Commit(ctx)
}
