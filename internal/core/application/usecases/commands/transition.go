package commands

import (
	"context"
	"log/slog"
	"time"

	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/ports"
	"marketplace/internal/pkg/errs"
	"marketplace/internal/pkg/metrics"
)

// applyTransition moves an order to the target status through the repository's
// conditional update. It is the only way handlers change status: a single
// guarded UPDATE, never read-then-write across two statements.
//
// Returns noop=true when the order is already at the target, including the case
// where a concurrent writer got there first (detected by reloading once after a
// zero-row update).
func applyTransition(
	ctx context.Context,
	repo ports.OrderRepository,
	ord *order.Order,
	target order.Status,
	update ports.StatusUpdate,
) (noop bool, err error) {
	from := ord.Status()
	if from == target {
		return true, nil
	}
	if !from.CanTransitionTo(target) {
		return false, errs.NewInvalidStateTransitionError(from.String(), target.String())
	}

	applied, err := repo.UpdateStatus(ctx, ord.ID(), from, target, update)
	if err != nil {
		return false, err
	}
	if applied {
		metrics.OrderTransitions.WithLabelValues(from.String(), target.String()).Inc()
		return false, nil
	}

	// Zero rows: either a concurrent writer won the race or the caller's view
	// was stale. One reload decides which.
	fresh, err := repo.Get(ctx, ord.ID())
	if err != nil {
		return false, err
	}
	if fresh.Status() == target {
		return true, nil
	}
	return false, errs.NewInvalidStateTransitionError(fresh.Status().String(), target.String())
}

// retryRefundIfUnsettled re-issues the refund for an order whose cancellation
// already took effect. A replayed cancel or decline lands on the transition
// no-op branch, which must still drive an unclaimed or failed refund to
// completion; the refund handler's claim guard makes the call safe to repeat.
func retryRefundIfUnsettled(
	ctx context.Context,
	refundHandler *RefundOrderCommandHandler,
	ord *order.Order,
	reason order.RefundReason,
) error {
	if ord.RefundStatus() != order.RefundNone && ord.RefundStatus() != order.RefundFailed {
		return nil
	}

	refundCmd, err := NewRefundOrderCommand(ord.PaymentReference(), 0, reason)
	if err != nil {
		return err
	}
	return refundHandler.Handle(ctx, refundCmd)
}

// publishStatusChange emits the order event after a successful transition.
// Broker failures are logged, never propagated.
func publishStatusChange(
	ctx context.Context,
	publisher ports.EventPublisher,
	logger *slog.Logger,
	ord *order.Order,
	from, to order.Status,
	at time.Time,
) {
	event := ports.OrderStatusChanged{
		OrderID:   ord.ID().String(),
		OldStatus: from.String(),
		NewStatus: to.String(),
		At:        at,
	}
	if err := publisher.PublishOrderStatusChanged(ctx, event); err != nil {
		logger.Warn("order event publish failed",
			"order_id", ord.ID().String(), "new_status", to.String(), "error", err)
	}
}
