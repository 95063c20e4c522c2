package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	appservices "marketplace/internal/core/application/services"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/ports"
	"marketplace/internal/pkg/errs"
)

// ErrPaymentNotSuccessful is returned when the processor reports the charge as
// anything other than success.
var ErrPaymentNotSuccessful = errors.New("payment is not successful")

// ConfirmPaymentCommandHandler turns a confirmed charge into an order in
// pending_commit. The payment webhook delivers at least once, so the handler is
// idempotent by payment reference: a second confirmation for the same charge is
// a no-op.
type ConfirmPaymentCommandHandler struct {
	uowFactory OrderUoWFactory
	payments   ports.PaymentClient
	publisher  ports.EventPublisher
	dispatcher *appservices.NotificationDispatcher
	logger     *slog.Logger
}

// NewConfirmPaymentCommandHandler creates a handler for payment confirmation.
func NewConfirmPaymentCommandHandler(
	uowFactory OrderUoWFactory,
	payments ports.PaymentClient,
	publisher ports.EventPublisher,
	dispatcher *appservices.NotificationDispatcher,
	logger *slog.Logger,
) ConfirmPaymentCommandHandler {
	return ConfirmPaymentCommandHandler{
		uowFactory: uowFactory,
		payments:   payments,
		publisher:  publisher,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Handle processes the payment confirmation command.
// The charge is re-verified with the processor rather than trusted from the
// webhook payload, and the charged amount must match the checkout total.
func (h *ConfirmPaymentCommandHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	verification, err := h.payments.Verify(ctx, cmd.PaymentReference())
	if err != nil {
		return err
	}
	if verification.Status != ports.ChargeStatusSuccess {
		return fmt.Errorf("%w: charge %s is %s",
			ErrPaymentNotSuccessful, cmd.PaymentReference(), verification.Status)
	}

	expectedTotal := cmd.Subtotal().Add(cmd.DeliveryFee())
	if !verification.Amount.IsEqual(expectedTotal) {
		return errs.NewDataIntegrityError(
			"confirm payment",
			fmt.Errorf("charged %d but checkout total is %d for %s",
				verification.Amount.Units(), expectedTotal.Units(), cmd.PaymentReference()),
		)
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	// At-least-once webhook delivery: an order for this charge may already exist.
	_, err = orderRepo.GetByPaymentReference(ctx, cmd.PaymentReference())
	if err == nil {
		h.logger.Info("payment already confirmed",
			"payment_reference", cmd.PaymentReference())
		return nil
	}
	if !errors.Is(err, errs.ErrObjectNotFound) {
		return err
	}

	now := time.Now().UTC()
	newOrder, err := order.NewOrder(
		kernel.NewUUID(),
		cmd.BuyerID(), cmd.SellerID(), cmd.ItemID(),
		cmd.Shipping(),
		cmd.Subtotal(), cmd.DeliveryFee(), cmd.PlatformFee(), cmd.SellerAmount(),
		cmd.PaymentReference(),
		now,
	)
	if err != nil {
		return err
	}

	if err = orderRepo.Add(ctx, newOrder); err != nil {
		// Lost the race against a concurrent webhook delivery for the same
		// charge: the unique payment reference index rejected the insert.
		if _, getErr := orderRepo.GetByPaymentReference(ctx, cmd.PaymentReference()); getErr == nil {
			return nil
		}
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	publishStatusChange(ctx, h.publisher, h.logger, newOrder, order.Unknown, order.PendingCommit, now)

	h.dispatcher.Dispatch(cmd.SellerID().String(), appservices.TemplateActionNeededSeller, map[string]any{
		"order_id": newOrder.ID().String(),
		"item_id":  cmd.ItemID().String(),
	})
	h.dispatcher.Dispatch(cmd.BuyerID().String(), appservices.TemplatePaymentConfirmed, map[string]any{
		"order_id": newOrder.ID().String(),
	})

	h.logger.Info("order created",
		"order_id", newOrder.ID().String(),
		"payment_reference", cmd.PaymentReference(),
		"total", newOrder.TotalAmount().Units(),
	)

	return nil
}
