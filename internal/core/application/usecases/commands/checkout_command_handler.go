package commands

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	appservices "marketplace/internal/core/application/services"
	"marketplace/internal/core/domain/model/delivery"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/services"
	"marketplace/internal/core/ports"
)

// ErrItemAlreadyReserved is returned when another buyer holds the reservation
// for the item.
var ErrItemAlreadyReserved = errors.New("item is already reserved")

// Metadata keys attached to the charge at initialization. The processor echoes
// them back on verification and in webhook payloads, which is how order
// creation after payment recovers the checkout context.
const (
	metaBuyerID          = "buyer_id"
	metaSellerID         = "seller_id"
	metaItemID           = "item_id"
	metaSubtotal         = "subtotal"
	metaDeliveryFee      = "delivery_fee"
	metaPlatformFee      = "platform_fee"
	metaSellerAmount     = "seller_amount"
	metaWeightGrams      = "weight_grams"
	metaPickupStreet     = "pickup_street"
	metaPickupCity       = "pickup_city"
	metaPickupState      = "pickup_state"
	metaPickupPostcode   = "pickup_postcode"
	metaDeliveryStreet   = "delivery_street"
	metaDeliveryCity     = "delivery_city"
	metaDeliveryState    = "delivery_state"
	metaDeliveryPostcode = "delivery_postcode"
)

// CheckoutResult is returned to the caller so the buyer can be redirected to
// the processor's authorization page.
type CheckoutResult struct {
	PaymentReference string
	AuthorizationURL string
	DeliveryFee      kernel.Money
	TotalAmount      kernel.Money
	FallbackQuote    bool
}

// CheckoutCommandHandler starts a purchase: reserves the item, prices delivery,
// computes the settlement split and initializes the charge. No order row is
// created here; that happens only once payment is confirmed.
type CheckoutCommandHandler struct {
	reservations   ports.ReservationStore
	orchestrator   *appservices.DeliveryOrchestrator
	calculator     services.SettlementCalculator
	payments       ports.PaymentClient
	reservationTTL time.Duration
	logger         *slog.Logger
}

// NewCheckoutCommandHandler creates a handler for checkout initiation.
func NewCheckoutCommandHandler(
	reservations ports.ReservationStore,
	orchestrator *appservices.DeliveryOrchestrator,
	calculator services.SettlementCalculator,
	payments ports.PaymentClient,
	reservationTTL time.Duration,
	logger *slog.Logger,
) CheckoutCommandHandler {
	return CheckoutCommandHandler{
		reservations:   reservations,
		orchestrator:   orchestrator,
		calculator:     calculator,
		payments:       payments,
		reservationTTL: reservationTTL,
		logger:         logger,
	}
}

// Handle processes the checkout command.
// The reservation is taken first so two buyers can never both reach the
// processor for the same item; it expires on its own if payment never
// completes. A payment initialization failure releases it immediately.
func (h *CheckoutCommandHandler) Handle(
	ctx context.Context,
	cmd CheckoutCommand,
) (CheckoutResult, error) {
	if err := cmd.Validate(); err != nil {
		return CheckoutResult{}, err
	}

	reserved, err := h.reservations.Reserve(ctx, cmd.ItemID(), cmd.BuyerID(), h.reservationTTL)
	if err != nil {
		return CheckoutResult{}, err
	}
	if !reserved {
		return CheckoutResult{}, ErrItemAlreadyReserved
	}

	quote, err := h.orchestrator.SelectQuote(ctx, ports.QuoteRequest{
		From:        cmd.Shipping().PickupAddress(),
		To:          cmd.Shipping().DeliveryAddress(),
		WeightGrams: cmd.Shipping().WeightGrams(),
	})
	if err != nil {
		h.releaseReservation(ctx, cmd)
		return CheckoutResult{}, err
	}

	split, err := h.calculator.Calculate(cmd.Subtotal(), quote.Price())
	if err != nil {
		h.releaseReservation(ctx, cmd)
		return CheckoutResult{}, err
	}

	initialization, err := h.payments.Initialize(
		ctx, split.Total(), cmd.BuyerEmail(), split, checkoutMetadata(cmd, split, quote))
	if err != nil {
		h.releaseReservation(ctx, cmd)
		return CheckoutResult{}, err
	}

	h.logger.Info("checkout initialized",
		"item_id", cmd.ItemID().String(),
		"payment_reference", initialization.Reference,
		"delivery_fee", quote.Price().Units(),
		"fallback_quote", quote.IsFallback(),
	)

	return CheckoutResult{
		PaymentReference: initialization.Reference,
		AuthorizationURL: initialization.AuthorizationURL,
		DeliveryFee:      quote.Price(),
		TotalAmount:      split.Total(),
		FallbackQuote:    quote.IsFallback(),
	}, nil
}

func (h *CheckoutCommandHandler) releaseReservation(ctx context.Context, cmd CheckoutCommand) {
	if err := h.reservations.Release(ctx, cmd.ItemID()); err != nil {
		h.logger.Warn("reservation release failed",
			"item_id", cmd.ItemID().String(), "error", err)
	}
}

func checkoutMetadata(
	cmd CheckoutCommand,
	split services.SettlementSplit,
	quote delivery.Quote,
) map[string]string {
	pickup := cmd.Shipping().PickupAddress()
	dropoff := cmd.Shipping().DeliveryAddress()

	return map[string]string{
		metaBuyerID:          cmd.BuyerID().String(),
		metaSellerID:         cmd.SellerID().String(),
		metaItemID:           cmd.ItemID().String(),
		metaSubtotal:         strconv.FormatInt(cmd.Subtotal().Units(), 10),
		metaDeliveryFee:      strconv.FormatInt(quote.Price().Units(), 10),
		metaPlatformFee:      strconv.FormatInt(split.PlatformFee.Units(), 10),
		metaSellerAmount:     strconv.FormatInt(split.SellerAmount.Units(), 10),
		metaWeightGrams:      strconv.Itoa(cmd.Shipping().WeightGrams()),
		metaPickupStreet:     pickup.Street(),
		metaPickupCity:       pickup.City(),
		metaPickupState:      pickup.State(),
		metaPickupPostcode:   pickup.Postcode(),
		metaDeliveryStreet:   dropoff.Street(),
		metaDeliveryCity:     dropoff.City(),
		metaDeliveryState:    dropoff.State(),
		metaDeliveryPostcode: dropoff.Postcode(),
	}
}
