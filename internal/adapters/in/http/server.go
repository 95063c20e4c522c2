// Package http exposes the order lifecycle over REST plus the webhook
// endpoints the payment processor and courier networks call back on.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"marketplace/internal/adapters/out/payment"
	"marketplace/internal/core/application/usecases/commands"
	"marketplace/internal/core/application/usecases/queries"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/ports"
	"marketplace/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// paymentSignatureHeader carries the HMAC the processor signs webhook bodies with.
const paymentSignatureHeader = "X-Payment-Signature"

// timeFormat is how timestamps appear in responses.
const timeFormat = time.RFC3339

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.UTC().Format(timeFormat)
	return &formatted
}

// Server wires HTTP routes to the application use cases.
type Server struct {
	// Command handlers
	checkoutHandler       commands.CheckoutCommandHandler
	confirmPaymentHandler commands.ConfirmPaymentCommandHandler
	commitHandler         commands.CommitOrderCommandHandler
	declineHandler        commands.DeclineOrderCommandHandler
	cancelHandler         commands.CancelOrderCommandHandler
	missedPickupHandler   commands.CancelAfterMissedPickupCommandHandler
	markCollectedHandler  commands.MarkCollectedCommandHandler
	markDeliveredHandler  commands.MarkDeliveredCommandHandler

	// Query handlers
	getOrderHandler        queries.GetOrderQueryHandler
	getSellerOrdersHandler queries.GetSellerOrdersQueryHandler

	reservations  ports.ReservationStore
	webhookSecret string
	logger        *slog.Logger
}

// NewServer creates the HTTP server over the given handlers.
// webhookSecret is the shared secret payment webhook signatures are verified
// against; requests with a bad signature are rejected before parsing.
func NewServer(
	checkoutHandler commands.CheckoutCommandHandler,
	confirmPaymentHandler commands.ConfirmPaymentCommandHandler,
	commitHandler commands.CommitOrderCommandHandler,
	declineHandler commands.DeclineOrderCommandHandler,
	cancelHandler commands.CancelOrderCommandHandler,
	missedPickupHandler commands.CancelAfterMissedPickupCommandHandler,
	markCollectedHandler commands.MarkCollectedCommandHandler,
	markDeliveredHandler commands.MarkDeliveredCommandHandler,
	getOrderHandler queries.GetOrderQueryHandler,
	getSellerOrdersHandler queries.GetSellerOrdersQueryHandler,
	reservations ports.ReservationStore,
	webhookSecret string,
	logger *slog.Logger,
) *Server {
	return &Server{
		checkoutHandler:       checkoutHandler,
		confirmPaymentHandler: confirmPaymentHandler,
		commitHandler:         commitHandler,
		declineHandler:        declineHandler,
		cancelHandler:         cancelHandler,
		missedPickupHandler:   missedPickupHandler,
		markCollectedHandler:  markCollectedHandler,
		markDeliveredHandler:  markDeliveredHandler,

		getOrderHandler:        getOrderHandler,
		getSellerOrdersHandler: getSellerOrdersHandler,

		reservations:  reservations,
		webhookSecret: webhookSecret,
		logger:        logger.With("component", "http_server"),
	}
}

// RegisterRoutes attaches all routes to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.POST("/checkout", s.Checkout)
	api.POST("/orders/:id/commit", s.CommitOrder)
	api.POST("/orders/:id/decline", s.DeclineOrder)
	api.POST("/orders/:id/cancel", s.CancelOrder)
	api.POST("/orders/:id/cancel-missed-pickup", s.CancelAfterMissedPickup)
	api.GET("/orders/:id", s.GetOrder)
	api.GET("/sellers/:id/orders", s.GetSellerOrders)

	e.POST("/webhooks/payment", s.PaymentWebhook)
	e.POST("/webhooks/courier", s.CourierWebhook)

	e.GET("/health", s.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

type errorBody struct {
	Code     int    `json:"code"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// writeError maps the error taxonomy onto HTTP statuses with a
// machine-readable category.
func (s *Server) writeError(ctx echo.Context, err error) error {
	status := http.StatusInternalServerError
	category := "internal"

	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		status, category = http.StatusNotFound, "not_found"
	case errors.Is(err, commands.ErrBuyerMismatch),
		errors.Is(err, commands.ErrSellerMismatch):
		status, category = http.StatusForbidden, "forbidden"
	case errors.Is(err, commands.ErrItemAlreadyReserved):
		status, category = http.StatusConflict, "item_reserved"
	case errors.Is(err, errs.ErrInvalidStateTransition):
		status, category = http.StatusConflict, "state_conflict"
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange),
		errors.Is(err, commands.ErrPaymentNotSuccessful):
		status, category = http.StatusBadRequest, "validation"
	case errors.Is(err, errs.ErrUpstreamUnavailable):
		status, category = http.StatusBadGateway, "upstream_unavailable"
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", ctx.Path(), "error", err)
	}

	return ctx.JSON(status, errorBody{
		Code:     status,
		Category: category,
		Message:  err.Error(),
	})
}

func parseUUID(value, name string) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(value)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return id, nil
}

type checkoutRequest struct {
	BuyerID    string `json:"buyer_id"`
	SellerID   string `json:"seller_id"`
	ItemID     string `json:"item_id"`
	BuyerEmail string `json:"buyer_email"`
	Subtotal   int64  `json:"subtotal"`

	WeightGrams int            `json:"weight_grams"`
	Pickup      addressRequest `json:"pickup"`
	Delivery    addressRequest `json:"delivery"`
}

type addressRequest struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
}

type checkoutResponse struct {
	PaymentReference string `json:"payment_reference"`
	AuthorizationURL string `json:"authorization_url"`
	DeliveryFee      int64  `json:"delivery_fee"`
	TotalAmount      int64  `json:"total_amount"`
	FallbackQuote    bool   `json:"fallback_quote"`
}

// Checkout handles POST /api/v1/checkout - starts a purchase and returns the
// payment authorization URL.
func (s *Server) Checkout(ctx echo.Context) error {
	var req checkoutRequest
	if err := ctx.Bind(&req); err != nil {
		return s.writeError(ctx, errs.NewValueIsInvalidErrorWithCause("request body", err))
	}

	buyerID, err := parseUUID(req.BuyerID, "buyer_id")
	if err != nil {
		return s.writeError(ctx, err)
	}
	sellerID, err := parseUUID(req.SellerID, "seller_id")
	if err != nil {
		return s.writeError(ctx, err)
	}
	itemID, err := parseUUID(req.ItemID, "item_id")
	if err != nil {
		return s.writeError(ctx, err)
	}

	subtotal, err := kernel.NewMoney(req.Subtotal)
	if err != nil {
		return s.writeError(ctx, err)
	}

	pickup, err := kernel.NewAddress(
		req.Pickup.Street, req.Pickup.City, req.Pickup.State, req.Pickup.Postcode)
	if err != nil {
		return s.writeError(ctx, err)
	}
	delivery, err := kernel.NewAddress(
		req.Delivery.Street, req.Delivery.City, req.Delivery.State, req.Delivery.Postcode)
	if err != nil {
		return s.writeError(ctx, err)
	}
	shipping, err := order.NewShippingDetails(pickup, delivery, req.WeightGrams)
	if err != nil {
		return s.writeError(ctx, err)
	}

	cmd, err := commands.NewCheckoutCommand(
		buyerID, sellerID, itemID, req.BuyerEmail, subtotal, shipping)
	if err != nil {
		return s.writeError(ctx, err)
	}

	result, err := s.checkoutHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, checkoutResponse{
		PaymentReference: result.PaymentReference,
		AuthorizationURL: result.AuthorizationURL,
		DeliveryFee:      result.DeliveryFee.Units(),
		TotalAmount:      result.TotalAmount.Units(),
		FallbackQuote:    result.FallbackQuote,
	})
}

type commitRequest struct {
	SellerID       string `json:"seller_id"`
	DeliveryMethod string `json:"delivery_method"`
	LockerID       string `json:"locker_id"`
}

// CommitOrder handles POST /api/v1/orders/:id/commit - the seller confirms the
// sale and picks a delivery method. Courier booking failure still commits the
// order, reported as 202 so the caller knows scheduling is pending.
func (s *Server) CommitOrder(ctx echo.Context) error {
	orderID, err := parseUUID(ctx.Param("id"), "order id")
	if err != nil {
		return s.writeError(ctx, err)
	}

	var req commitRequest
	if err := ctx.Bind(&req); err != nil {
		return s.writeError(ctx, errs.NewValueIsInvalidErrorWithCause("request body", err))
	}

	sellerID, err := parseUUID(req.SellerID, "seller_id")
	if err != nil {
		return s.writeError(ctx, err)
	}
	method, err := order.DeliveryMethodFromString(req.DeliveryMethod)
	if err != nil {
		return s.writeError(ctx, err)
	}

	cmd, err := commands.NewCommitOrderCommand(orderID, sellerID, method, req.LockerID)
	if err != nil {
		return s.writeError(ctx, err)
	}

	if err := s.commitHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		if errors.Is(err, errs.ErrPartialSuccess) {
			return ctx.JSON(http.StatusAccepted, map[string]string{
				"status": order.Committed.String(),
				"detail": "courier scheduling pending, will be retried",
			})
		}
		return s.writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

type actorRequest struct {
	SellerID string `json:"seller_id"`
	BuyerID  string `json:"buyer_id"`
}

// DeclineOrder handles POST /api/v1/orders/:id/decline - the seller rejects the
// sale; the buyer is refunded in full.
func (s *Server) DeclineOrder(ctx echo.Context) error {
	orderID, err := parseUUID(ctx.Param("id"), "order id")
	if err != nil {
		return s.writeError(ctx, err)
	}

	var req actorRequest
	if err := ctx.Bind(&req); err != nil {
		return s.writeError(ctx, errs.NewValueIsInvalidErrorWithCause("request body", err))
	}
	sellerID, err := parseUUID(req.SellerID, "seller_id")
	if err != nil {
		return s.writeError(ctx, err)
	}

	cmd, err := commands.NewDeclineOrderCommand(orderID, sellerID)
	if err != nil {
		return s.writeError(ctx, err)
	}

	if err := s.declineHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// CancelOrder handles POST /api/v1/orders/:id/cancel - the buyer cancels while
// the order is still pending the seller's commit.
func (s *Server) CancelOrder(ctx echo.Context) error {
	orderID, err := parseUUID(ctx.Param("id"), "order id")
	if err != nil {
		return s.writeError(ctx, err)
	}

	var req actorRequest
	if err := ctx.Bind(&req); err != nil {
		return s.writeError(ctx, errs.NewValueIsInvalidErrorWithCause("request body", err))
	}
	buyerID, err := parseUUID(req.BuyerID, "buyer_id")
	if err != nil {
		return s.writeError(ctx, err)
	}

	cmd, err := commands.NewCancelOrderCommand(orderID, buyerID)
	if err != nil {
		return s.writeError(ctx, err)
	}

	if err := s.cancelHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// CancelAfterMissedPickup handles POST /api/v1/orders/:id/cancel-missed-pickup -
// the seller gives up on an order the courier never collected.
func (s *Server) CancelAfterMissedPickup(ctx echo.Context) error {
	orderID, err := parseUUID(ctx.Param("id"), "order id")
	if err != nil {
		return s.writeError(ctx, err)
	}

	var req actorRequest
	if err := ctx.Bind(&req); err != nil {
		return s.writeError(ctx, errs.NewValueIsInvalidErrorWithCause("request body", err))
	}
	sellerID, err := parseUUID(req.SellerID, "seller_id")
	if err != nil {
		return s.writeError(ctx, err)
	}

	cmd, err := commands.NewCancelAfterMissedPickupCommand(orderID, sellerID)
	if err != nil {
		return s.writeError(ctx, err)
	}

	if err := s.missedPickupHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// GetOrder handles GET /api/v1/orders/:id - returns the full order read model.
func (s *Server) GetOrder(ctx echo.Context) error {
	orderID, err := parseUUID(ctx.Param("id"), "order id")
	if err != nil {
		return s.writeError(ctx, err)
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return s.writeError(ctx, err)
	}

	view, err := s.getOrderHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toOrderResponse(view))
}

type orderResponse struct {
	ID       string `json:"id"`
	BuyerID  string `json:"buyer_id"`
	SellerID string `json:"seller_id"`
	ItemID   string `json:"item_id"`

	Status         string `json:"status"`
	DeliveryMethod string `json:"delivery_method,omitempty"`
	LockerID       string `json:"locker_id,omitempty"`

	TrackingReference string `json:"tracking_reference,omitempty"`
	DropoffCode       string `json:"dropoff_code,omitempty"`

	Subtotal     int64 `json:"subtotal"`
	DeliveryFee  int64 `json:"delivery_fee"`
	TotalAmount  int64 `json:"total_amount"`
	PlatformFee  int64 `json:"platform_fee"`
	SellerAmount int64 `json:"seller_amount"`

	PaymentReference string `json:"payment_reference"`
	RefundStatus     string `json:"refund_status"`
	RefundAmount     int64  `json:"refund_amount,omitempty"`
	RefundReason     string `json:"refund_reason,omitempty"`

	CommittedAt *string `json:"committed_at,omitempty"`
	CollectedAt *string `json:"collected_at,omitempty"`
	DeliveredAt *string `json:"delivered_at,omitempty"`
	CancelledAt *string `json:"cancelled_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toOrderResponse(view queries.GetOrderQueryResponse) orderResponse {
	return orderResponse{
		ID:       view.ID.String(),
		BuyerID:  view.BuyerID.String(),
		SellerID: view.SellerID.String(),
		ItemID:   view.ItemID.String(),

		Status:         view.Status,
		DeliveryMethod: view.DeliveryMethod,
		LockerID:       view.LockerID,

		TrackingReference: view.TrackingReference,
		DropoffCode:       view.DropoffCode,

		Subtotal:     view.Subtotal,
		DeliveryFee:  view.DeliveryFee,
		TotalAmount:  view.TotalAmount,
		PlatformFee:  view.PlatformFee,
		SellerAmount: view.SellerAmount,

		PaymentReference: view.PaymentReference,
		RefundStatus:     view.RefundStatus,
		RefundAmount:     view.RefundAmount,
		RefundReason:     view.RefundReason,

		CommittedAt: formatTime(view.CommittedAt),
		CollectedAt: formatTime(view.CollectedAt),
		DeliveredAt: formatTime(view.DeliveredAt),
		CancelledAt: formatTime(view.CancelledAt),
		CreatedAt:   view.CreatedAt.Format(timeFormat),
		UpdatedAt:   view.UpdatedAt.Format(timeFormat),
	}
}

// GetSellerOrders handles GET /api/v1/sellers/:id/orders - lists a seller's
// orders, newest first, with optional status and limit query parameters.
func (s *Server) GetSellerOrders(ctx echo.Context) error {
	sellerID, err := parseUUID(ctx.Param("id"), "seller id")
	if err != nil {
		return s.writeError(ctx, err)
	}

	limit := 0
	if raw := ctx.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return s.writeError(ctx, errs.NewValueIsInvalidErrorWithCause("limit", err))
		}
	}

	query, err := queries.NewGetSellerOrdersQuery(sellerID, ctx.QueryParam("status"), limit)
	if err != nil {
		return s.writeError(ctx, err)
	}

	views, err := s.getSellerOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.writeError(ctx, err)
	}

	response := make([]sellerOrderResponse, len(views))
	for i, view := range views {
		response[i] = sellerOrderResponse{
			ID:           view.ID.String(),
			BuyerID:      view.BuyerID.String(),
			ItemID:       view.ItemID.String(),
			Status:       view.Status,
			TotalAmount:  view.TotalAmount,
			SellerAmount: view.SellerAmount,
			RefundStatus: view.RefundStatus,
			CreatedAt:    view.CreatedAt.Format(timeFormat),
			UpdatedAt:    view.UpdatedAt.Format(timeFormat),
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

type sellerOrderResponse struct {
	ID           string `json:"id"`
	BuyerID      string `json:"buyer_id"`
	ItemID       string `json:"item_id"`
	Status       string `json:"status"`
	TotalAmount  int64  `json:"total_amount"`
	SellerAmount int64  `json:"seller_amount"`
	RefundStatus string `json:"refund_status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type paymentWebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string            `json:"reference"`
		Metadata  map[string]string `json:"metadata"`
	} `json:"data"`
}

// PaymentWebhook handles POST /webhooks/payment. The processor delivers events
// at least once, so every branch is idempotent and a repeat is acknowledged
// without side effects. Bodies failing the signature check are rejected before
// any parsing.
func (s *Server) PaymentWebhook(ctx echo.Context) error {
	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return ctx.NoContent(http.StatusBadRequest)
	}

	signature := ctx.Request().Header.Get(paymentSignatureHeader)
	if !payment.VerifySignature(s.webhookSecret, body, signature) {
		s.logger.Warn("payment webhook signature rejected")
		return ctx.NoContent(http.StatusUnauthorized)
	}

	var event paymentWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return ctx.NoContent(http.StatusBadRequest)
	}

	switch event.Event {
	case "charge.success":
		return s.handleChargeSuccess(ctx, event)
	case "charge.failed":
		s.handleChargeFailed(ctx, event)
		return ctx.NoContent(http.StatusOK)
	case "refund.processed":
		s.logger.Info("refund processed by payment provider",
			"payment_reference", event.Data.Reference)
		return ctx.NoContent(http.StatusOK)
	default:
		// Unknown events are acknowledged so the processor stops redelivering.
		s.logger.Info("ignoring payment webhook event", "event", event.Event)
		return ctx.NoContent(http.StatusOK)
	}
}

func (s *Server) handleChargeSuccess(ctx echo.Context, event paymentWebhookEvent) error {
	cmd, err := commands.NewConfirmPaymentCommandFromMetadata(
		event.Data.Reference, event.Data.Metadata)
	if err != nil {
		s.logger.Error("payment webhook carried unusable metadata",
			"payment_reference", event.Data.Reference, "error", err)
		return ctx.NoContent(http.StatusBadRequest)
	}

	if err := s.confirmPaymentHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusOK)
}

// handleChargeFailed frees the item for other buyers as soon as the processor
// reports the charge dead, instead of waiting out the reservation TTL.
func (s *Server) handleChargeFailed(ctx echo.Context, event paymentWebhookEvent) {
	itemID, err := kernel.UUIDFromString(event.Data.Metadata["item_id"])
	if err != nil {
		return
	}

	if err := s.reservations.Release(ctx.Request().Context(), itemID); err != nil {
		s.logger.Warn("failed to release reservation after failed charge",
			"item_id", itemID.String(), "error", err)
	}
}

type courierWebhookEvent struct {
	OrderID           string `json:"order_id"`
	TrackingReference string `json:"tracking_reference"`
	Code              string `json:"code"`
}

// CourierWebhook handles POST /webhooks/courier. Courier networks push
// tracking updates here; only collection and delivery move the order, other
// codes are acknowledged and dropped.
func (s *Server) CourierWebhook(ctx echo.Context) error {
	var event courierWebhookEvent
	if err := ctx.Bind(&event); err != nil {
		return ctx.NoContent(http.StatusBadRequest)
	}

	orderID, err := parseUUID(event.OrderID, "order_id")
	if err != nil {
		return s.writeError(ctx, err)
	}

	switch event.Code {
	case "collected":
		cmd, err := commands.NewMarkCollectedCommand(orderID)
		if err != nil {
			return s.writeError(ctx, err)
		}
		if err := s.markCollectedHandler.Handle(ctx.Request().Context(), cmd); err != nil {
			return s.writeError(ctx, err)
		}
	case "delivered":
		cmd, err := commands.NewMarkDeliveredCommand(orderID)
		if err != nil {
			return s.writeError(ctx, err)
		}
		if err := s.markDeliveredHandler.Handle(ctx.Request().Context(), cmd); err != nil {
			return s.writeError(ctx, err)
		}
	default:
		s.logger.Info("ignoring courier tracking code",
			"order_id", event.OrderID, "code", event.Code)
	}

	return ctx.NoContent(http.StatusOK)
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Healthy")
}
