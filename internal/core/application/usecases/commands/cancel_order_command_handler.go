package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	appservices "marketplace/internal/core/application/services"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/ports"
)

// ErrBuyerMismatch is returned when a buyer acts on someone else's order.
var ErrBuyerMismatch = errors.New("order belongs to a different buyer")

// CancelOrderCommandHandler moves a pending order to cancelled_by_buyer,
// releases the reservation and refunds the buyer in full.
type CancelOrderCommandHandler struct {
	uowFactory    OrderUoWFactory
	reservations  ports.ReservationStore
	refundHandler *RefundOrderCommandHandler
	publisher     ports.EventPublisher
	dispatcher    *appservices.NotificationDispatcher
	logger        *slog.Logger
}

// NewCancelOrderCommandHandler creates a handler for buyer cancellations.
func NewCancelOrderCommandHandler(
	uowFactory OrderUoWFactory,
	reservations ports.ReservationStore,
	refundHandler *RefundOrderCommandHandler,
	publisher ports.EventPublisher,
	dispatcher *appservices.NotificationDispatcher,
	logger *slog.Logger,
) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		uowFactory:    uowFactory,
		reservations:  reservations,
		refundHandler: refundHandler,
		publisher:     publisher,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// Handle processes the cancellation command.
func (h *CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) error {
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

	if !ord.BuyerID().IsEqual(cmd.BuyerID()) {
		return ErrBuyerMismatch
	}

	now := time.Now().UTC()
	noop, err := applyTransition(ctx, orderRepo, ord, order.CancelledByBuyer, ports.StatusUpdate{
		CancelledAt: &now,
		UpdatedAt:   now,
	})
	if err != nil {
		return err
	}
	if noop {
		return retryRefundIfUnsettled(ctx, h.refundHandler, ord, order.ReasonBuyerCancel)
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	publishStatusChange(ctx, h.publisher, h.logger, ord, order.PendingCommit, order.CancelledByBuyer, now)

	if err = h.reservations.Release(ctx, ord.ItemID()); err != nil {
		h.logger.Warn("reservation release failed",
			"item_id", ord.ItemID().String(), "error", err)
	}

	refundCmd, err := NewRefundOrderCommand(ord.PaymentReference(), 0, order.ReasonBuyerCancel)
	if err != nil {
		return err
	}
	if err = h.refundHandler.Handle(ctx, refundCmd); err != nil {
		h.logger.Error("refund after cancellation failed",
			"order_id", ord.ID().String(), "error", err)
		return err
	}

	h.dispatcher.Dispatch(ord.SellerID().String(), appservices.TemplateOrderCancelled, map[string]any{
		"order_id": ord.ID().String(),
	})

	h.logger.Info("order cancelled by buyer", "order_id", ord.ID().String())
	return nil
}
