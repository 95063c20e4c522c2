package commands

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	appservices "marketplace/internal/core/application/services"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/ports"
	"marketplace/internal/pkg/metrics"
)

// RefundOrderCommandHandler issues refunds against the payment processor with a
// double guard against paying twice:
//
//   - in-process: concurrent calls for the same payment reference are collapsed
//     through singleflight, so only one goroutine talks to the processor
//   - in storage: the refund claim is a conditional update on refund_status,
//     committed before the processor call, so replicas and retries see it
//
// A processor failure leaves the claim in refund_failed, which a later call may
// re-claim. An already pending or processed refund makes the call a no-op.
type RefundOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	payments   ports.PaymentClient
	dispatcher *appservices.NotificationDispatcher
	logger     *slog.Logger
	group      singleflight.Group
}

// NewRefundOrderCommandHandler creates a handler for refund issuance.
// The handler carries serialization state, so one instance must be shared by
// every caller that can refund (decline, cancel, sweep, webhook).
func NewRefundOrderCommandHandler(
	uowFactory OrderUoWFactory,
	payments ports.PaymentClient,
	dispatcher *appservices.NotificationDispatcher,
	logger *slog.Logger,
) *RefundOrderCommandHandler {
	return &RefundOrderCommandHandler{
		uowFactory: uowFactory,
		payments:   payments,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Handle processes the refund command.
func (h *RefundOrderCommandHandler) Handle(ctx context.Context, cmd RefundOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	_, err, _ := h.group.Do(cmd.PaymentReference(), func() (any, error) {
		return nil, h.issueRefund(ctx, cmd)
	})
	return err
}

func (h *RefundOrderCommandHandler) issueRefund(ctx context.Context, cmd RefundOrderCommand) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	ord, err := orderRepo.GetByPaymentReference(ctx, cmd.PaymentReference())
	if err != nil {
		return err
	}

	switch ord.RefundStatus() {
	case order.RefundPending, order.RefundProcessed:
		h.logger.Info("refund already issued",
			"payment_reference", cmd.PaymentReference(),
			"refund_status", ord.RefundStatus().String())
		return nil
	}

	amount := cmd.Amount()
	if amount.IsZero() {
		amount = ord.TotalAmount()
	}

	// Domain-level validation of the claim (amount bounds, reason).
	if err = ord.ClaimRefund(amount, cmd.Reason()); err != nil {
		return err
	}

	claimed, err := orderRepo.ClaimRefund(
		ctx, cmd.PaymentReference(), amount, cmd.Reason(), time.Now().UTC())
	if err != nil {
		return err
	}
	if !claimed {
		// A concurrent writer on another replica claimed it first.
		return nil
	}

	// The claim must be durable before the processor call: if we crash between
	// the two, the claim is visible and nobody issues a second refund blindly.
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	metrics.RefundsInitiated.WithLabelValues(cmd.Reason().String()).Inc()
	h.logger.Info("refund claimed",
		"payment_reference", cmd.PaymentReference(),
		"amount", amount.Units(),
		"reason", cmd.Reason().String(),
	)

	result, err := h.payments.Refund(ctx, cmd.PaymentReference(), amount)
	if err != nil {
		h.markRefund(ctx, cmd.PaymentReference(), order.RefundFailed)
		return err
	}

	h.markRefund(ctx, cmd.PaymentReference(), order.RefundProcessed)
	h.notifyBuyer(ord, amount)

	h.logger.Info("refund processed",
		"payment_reference", cmd.PaymentReference(),
		"refund_id", result.RefundID,
	)

	return nil
}

// markRefund records the outcome of the processor call. Failures here are only
// logged: the money already moved (or didn't), and the row can be reconciled.
func (h *RefundOrderCommandHandler) markRefund(
	ctx context.Context,
	paymentReference string,
	to order.RefundStatus,
) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		h.logger.Error("refund status update failed",
			"payment_reference", paymentReference, "error", err)
		return
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if _, err := uow.OrderRepository().SetRefundStatus(
		ctx, paymentReference, order.RefundPending, to); err != nil {
		h.logger.Error("refund status update failed",
			"payment_reference", paymentReference, "error", err)
		return
	}

	if err := uow.Commit(ctx); err != nil {
		h.logger.Error("refund status update failed",
			"payment_reference", paymentReference, "error", err)
	}
}

func (h *RefundOrderCommandHandler) notifyBuyer(ord *order.Order, amount kernel.Money) {
	h.dispatcher.Dispatch(ord.BuyerID().String(), appservices.TemplateRefundProcessed, map[string]any{
		"order_id": ord.ID().String(),
		"amount":   amount.Units(),
	})
}
