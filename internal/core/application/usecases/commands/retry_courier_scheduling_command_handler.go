package commands

import (
	"context"
	"log/slog"

	appservices "marketplace/internal/core/application/services"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/ports"
)

// retryBatchLimit bounds one retry pass.
const retryBatchLimit = 50

// RetryResult aggregates one scheduling retry pass.
type RetryResult struct {
	Scheduled int
	Errors    int
}

// RetryCourierSchedulingCommandHandler finds committed orders without a
// tracking reference and re-drives courier booking through the same scheduler
// the commit path uses.
type RetryCourierSchedulingCommandHandler struct {
	uowFactory OrderUoWFactory
	scheduler  courierScheduler
	logger     *slog.Logger
}

// NewRetryCourierSchedulingCommandHandler creates the retry handler.
func NewRetryCourierSchedulingCommandHandler(
	uowFactory OrderUoWFactory,
	orchestrator *appservices.DeliveryOrchestrator,
	publisher ports.EventPublisher,
	dispatcher *appservices.NotificationDispatcher,
	logger *slog.Logger,
) RetryCourierSchedulingCommandHandler {
	return RetryCourierSchedulingCommandHandler{
		uowFactory: uowFactory,
		scheduler: courierScheduler{
			uowFactory:   uowFactory,
			orchestrator: orchestrator,
			publisher:    publisher,
			dispatcher:   dispatcher,
			logger:       logger,
		},
		logger: logger,
	}
}

// Handle runs one retry pass with per-order error isolation.
func (h *RetryCourierSchedulingCommandHandler) Handle(
	ctx context.Context,
	cmd RetryCourierSchedulingCommand,
) (RetryResult, error) {
	if err := cmd.Validate(); err != nil {
		return RetryResult{}, err
	}

	candidates, err := h.pendingScheduling(ctx)
	if err != nil {
		return RetryResult{}, err
	}

	var result RetryResult
	for _, ord := range candidates {
		if err := h.scheduler.schedule(ctx, ord); err != nil {
			h.logger.Warn("courier scheduling retry failed",
				"order_id", ord.ID().String(), "error", err)
			result.Errors++
			continue
		}
		result.Scheduled++
	}

	if result.Scheduled > 0 || result.Errors > 0 {
		h.logger.Info("courier scheduling retry finished",
			"scheduled", result.Scheduled, "errors", result.Errors)
	}

	return result, nil
}

func (h *RetryCourierSchedulingCommandHandler) pendingScheduling(
	ctx context.Context,
) ([]*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	return uow.OrderRepository().GetCommittedWithoutTracking(ctx, retryBatchLimit)
}
