package commands

import (
	"context"
	"log/slog"
	"time"

	appservices "marketplace/internal/core/application/services"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/ports"
)

// CancelAfterMissedPickupCommandHandler moves a collection_timeout order to its
// terminal cancellation state and refunds the buyer in full.
type CancelAfterMissedPickupCommandHandler struct {
	uowFactory    OrderUoWFactory
	refundHandler *RefundOrderCommandHandler
	publisher     ports.EventPublisher
	dispatcher    *appservices.NotificationDispatcher
	logger        *slog.Logger
}

// NewCancelAfterMissedPickupCommandHandler creates a handler for missed-pickup
// cancellations.
func NewCancelAfterMissedPickupCommandHandler(
	uowFactory OrderUoWFactory,
	refundHandler *RefundOrderCommandHandler,
	publisher ports.EventPublisher,
	dispatcher *appservices.NotificationDispatcher,
	logger *slog.Logger,
) CancelAfterMissedPickupCommandHandler {
	return CancelAfterMissedPickupCommandHandler{
		uowFactory:    uowFactory,
		refundHandler: refundHandler,
		publisher:     publisher,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// Handle processes the missed-pickup cancellation.
func (h *CancelAfterMissedPickupCommandHandler) Handle(
	ctx context.Context,
	cmd CancelAfterMissedPickupCommand,
) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	ord, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if !ord.SellerID().IsEqual(cmd.SellerID()) {
		return ErrSellerMismatch
	}

	now := time.Now().UTC()
	noop, err := applyTransition(
		ctx, orderRepo, ord, order.CancelledBySellerAfterMissedPickup, ports.StatusUpdate{
			CancelledAt: &now,
			UpdatedAt:   now,
		})
	if err != nil {
		return err
	}
	if noop {
		return retryRefundIfUnsettled(ctx, h.refundHandler, ord, order.ReasonExpiry)
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	publishStatusChange(ctx, h.publisher, h.logger, ord,
		order.CollectionTimeout, order.CancelledBySellerAfterMissedPickup, now)

	refundCmd, err := NewRefundOrderCommand(ord.PaymentReference(), 0, order.ReasonExpiry)
	if err != nil {
		return err
	}
	if err = h.refundHandler.Handle(ctx, refundCmd); err != nil {
		h.logger.Error("refund after missed pickup failed",
			"order_id", ord.ID().String(), "error", err)
		return err
	}

	h.dispatcher.Dispatch(ord.BuyerID().String(), appservices.TemplateOrderCancelled, map[string]any{
		"order_id": ord.ID().String(),
	})

	h.logger.Info("order cancelled after missed pickup", "order_id", ord.ID().String())
	return nil
}
