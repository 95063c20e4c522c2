package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	appservices "marketplace/internal/core/application/services"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/ports"
	"marketplace/internal/pkg/errs"
)

// ErrSellerMismatch is returned when a seller acts on an order that belongs to
// a different seller.
var ErrSellerMismatch = errors.New("order belongs to a different seller")

// CommitOrderCommandHandler handles the seller's commit in two separate atomic
// steps: pending_commit -> committed, then courier booking and
// committed -> courier_scheduled.
//
// The commit itself is never rolled back when courier booking fails; the order
// stays committed, the handler returns ErrPartialSuccess, and the scheduling
// retry job finishes the second step later. Buyers keep their purchase either
// way.
type CommitOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	scheduler  courierScheduler
	publisher  ports.EventPublisher
	dispatcher *appservices.NotificationDispatcher
	logger     *slog.Logger
}

// NewCommitOrderCommandHandler creates a handler for seller commits.
func NewCommitOrderCommandHandler(
	uowFactory OrderUoWFactory,
	orchestrator *appservices.DeliveryOrchestrator,
	publisher ports.EventPublisher,
	dispatcher *appservices.NotificationDispatcher,
	logger *slog.Logger,
) CommitOrderCommandHandler {
	return CommitOrderCommandHandler{
		uowFactory: uowFactory,
		scheduler: courierScheduler{
			uowFactory:   uowFactory,
			orchestrator: orchestrator,
			publisher:    publisher,
			dispatcher:   dispatcher,
			logger:       logger,
		},
		publisher:  publisher,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Handle processes the commit command.
// Re-committing an already committed or scheduled order is a no-op, so sellers
// double-clicking or retrying after a timeout never hit an error.
func (h *CommitOrderCommandHandler) Handle(ctx context.Context, cmd CommitOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	ord, err := h.commitOrder(ctx, cmd)
	if err != nil {
		return err
	}
	if ord == nil {
		// Already scheduled; the whole operation is a replay.
		return nil
	}

	if err = h.scheduler.schedule(ctx, ord); err != nil {
		h.logger.Warn("courier booking failed after commit, order stays committed",
			"order_id", ord.ID().String(), "error", err)
		return errs.NewPartialSuccessError(
			order.Committed.String(), order.CourierScheduled.String(), err)
	}

	return nil
}

// commitOrder performs the first atomic step and returns the order in its
// post-commit state. A nil order with a nil error means the order was already
// past the scheduling step.
func (h *CommitOrderCommandHandler) commitOrder(
	ctx context.Context,
	cmd CommitOrderCommand,
) (*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	ord, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}

	if !ord.SellerID().IsEqual(cmd.SellerID()) {
		return nil, ErrSellerMismatch
	}

	switch ord.Status() {
	case order.Committed:
		// Re-commit: nothing to persist, but scheduling may still be pending.
		return ord, nil
	case order.CourierScheduled:
		return nil, nil
	}

	now := time.Now().UTC()
	method := cmd.DeliveryMethod()
	lockerID := cmd.LockerID()

	noop, err := applyTransition(ctx, orderRepo, ord, order.Committed, ports.StatusUpdate{
		DeliveryMethod: &method,
		LockerID:       &lockerID,
		CommittedAt:    &now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, err
	}

	// Bring the aggregate in line with what was just persisted.
	if err = ord.Commit(method, lockerID, now); err != nil {
		return nil, err
	}

	if noop {
		return ord, nil
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	publishStatusChange(ctx, h.publisher, h.logger, ord, order.PendingCommit, order.Committed, now)
	h.dispatcher.Dispatch(ord.BuyerID().String(), appservices.TemplateOrderCommitted, map[string]any{
		"order_id": ord.ID().String(),
	})

	h.logger.Info("order committed",
		"order_id", ord.ID().String(),
		"delivery_method", method.String(),
	)

	return ord, nil
}
