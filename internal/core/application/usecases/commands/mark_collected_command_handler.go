package commands

import (
	"context"
	"log/slog"
	"time"

	appservices "marketplace/internal/core/application/services"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/ports"
)

// MarkCollectedCommandHandler records the courier_scheduled -> collected
// transition. Tracking webhooks deliver at least once, so a repeat is a no-op.
type MarkCollectedCommandHandler struct {
	uowFactory OrderUoWFactory
	publisher  ports.EventPublisher
	dispatcher *appservices.NotificationDispatcher
	logger     *slog.Logger
}

// NewMarkCollectedCommandHandler creates a handler for collection events.
func NewMarkCollectedCommandHandler(
	uowFactory OrderUoWFactory,
	publisher ports.EventPublisher,
	dispatcher *appservices.NotificationDispatcher,
	logger *slog.Logger,
) MarkCollectedCommandHandler {
	return MarkCollectedCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Handle processes the collection event.
func (h *MarkCollectedCommandHandler) Handle(ctx context.Context, cmd MarkCollectedCommand) error {
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
	noop, err := applyTransition(ctx, orderRepo, ord, order.Collected, ports.StatusUpdate{
		CollectedAt: &now,
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

	publishStatusChange(ctx, h.publisher, h.logger, ord, order.CourierScheduled, order.Collected, now)
	h.dispatcher.Dispatch(ord.BuyerID().String(), appservices.TemplateOrderCollected, map[string]any{
		"order_id":           ord.ID().String(),
		"tracking_reference": ord.TrackingReference(),
	})

	return nil
}
