package commands

import (
	"context"
	"log/slog"
	"time"

	appservices "marketplace/internal/core/application/services"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/ports"
)

// DeclineOrderCommandHandler moves a pending order to declined_by_seller,
// releases the item reservation and refunds the buyer in full.
type DeclineOrderCommandHandler struct {
	uowFactory    OrderUoWFactory
	reservations  ports.ReservationStore
	refundHandler *RefundOrderCommandHandler
	publisher     ports.EventPublisher
	dispatcher    *appservices.NotificationDispatcher
	logger        *slog.Logger
}

// NewDeclineOrderCommandHandler creates a handler for seller declines.
func NewDeclineOrderCommandHandler(
	uowFactory OrderUoWFactory,
	reservations ports.ReservationStore,
	refundHandler *RefundOrderCommandHandler,
	publisher ports.EventPublisher,
	dispatcher *appservices.NotificationDispatcher,
	logger *slog.Logger,
) DeclineOrderCommandHandler {
	return DeclineOrderCommandHandler{
		uowFactory:    uowFactory,
		reservations:  reservations,
		refundHandler: refundHandler,
		publisher:     publisher,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// Handle processes the decline command. The status transition commits first;
// the refund is issued against the committed claim afterwards so the two never
// hold row locks against each other.
func (h *DeclineOrderCommandHandler) Handle(ctx context.Context, cmd DeclineOrderCommand) error {
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
	noop, err := applyTransition(ctx, orderRepo, ord, order.DeclinedBySeller, ports.StatusUpdate{
		CancelledAt: &now,
		UpdatedAt:   now,
	})
	if err != nil {
		return err
	}
	if noop {
		return retryRefundIfUnsettled(ctx, h.refundHandler, ord, order.ReasonSellerDecline)
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	publishStatusChange(ctx, h.publisher, h.logger, ord, order.PendingCommit, order.DeclinedBySeller, now)

	if err = h.reservations.Release(ctx, ord.ItemID()); err != nil {
		h.logger.Warn("reservation release failed",
			"item_id", ord.ItemID().String(), "error", err)
	}

	refundCmd, err := NewRefundOrderCommand(ord.PaymentReference(), 0, order.ReasonSellerDecline)
	if err != nil {
		return err
	}
	if err = h.refundHandler.Handle(ctx, refundCmd); err != nil {
		// The decline stands; the refund claim is retryable.
		h.logger.Error("refund after decline failed",
			"order_id", ord.ID().String(), "error", err)
		return err
	}

	h.dispatcher.Dispatch(ord.BuyerID().String(), appservices.TemplateOrderDeclined, map[string]any{
		"order_id": ord.ID().String(),
	})

	h.logger.Info("order declined", "order_id", ord.ID().String())
	return nil
}
