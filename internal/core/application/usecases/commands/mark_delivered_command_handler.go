package commands

import (
	"context"
	"log/slog"
	"time"

	appservices "marketplace/internal/core/application/services"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/ports"
)

// MarkDeliveredCommandHandler records the collected -> delivered transition,
// which is the terminal happy path and the point where the seller's payout
// becomes releasable.
type MarkDeliveredCommandHandler struct {
	uowFactory OrderUoWFactory
	publisher  ports.EventPublisher
	dispatcher *appservices.NotificationDispatcher
	logger     *slog.Logger
}

// NewMarkDeliveredCommandHandler creates a handler for delivery events.
func NewMarkDeliveredCommandHandler(
	uowFactory OrderUoWFactory,
	publisher ports.EventPublisher,
	dispatcher *appservices.NotificationDispatcher,
	logger *slog.Logger,
) MarkDeliveredCommandHandler {
	return MarkDeliveredCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Handle processes the delivery event.
func (h *MarkDeliveredCommandHandler) Handle(ctx context.Context, cmd MarkDeliveredCommand) error {
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

	now := time.Now().UTC()
	noop, err := applyTransition(ctx, orderRepo, ord, order.Delivered, ports.StatusUpdate{
		DeliveredAt: &now,
		UpdatedAt:   now,
	})
	if err != nil {
		return err
	}
	if noop {
		return nil
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	publishStatusChange(ctx, h.publisher, h.logger, ord, order.Collected, order.Delivered, now)
	h.dispatcher.Dispatch(ord.BuyerID().String(), appservices.TemplateOrderDelivered, map[string]any{
		"order_id": ord.ID().String(),
	})
	h.dispatcher.Dispatch(ord.SellerID().String(), appservices.TemplateOrderDelivered, map[string]any{
		"order_id":      ord.ID().String(),
		"seller_amount": ord.SellerAmount().Units(),
	})

	h.logger.Info("order delivered", "order_id", ord.ID().String())
	return nil
}
