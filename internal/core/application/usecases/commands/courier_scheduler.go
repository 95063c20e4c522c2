package commands

import (
	"context"
	"log/slog"
	"time"

	appservices "marketplace/internal/core/application/services"
	"marketplace/internal/core/domain/model/delivery"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/ports"
)

// courierScheduler books a shipment for a committed order and persists the
// committed -> courier_scheduled transition. Shared by the commit handler and
// the scheduling retry; the two must behave identically so a retried order ends
// up indistinguishable from one scheduled on the first attempt.
type courierScheduler struct {
	uowFactory   OrderUoWFactory
	orchestrator *appservices.DeliveryOrchestrator
	publisher    ports.EventPublisher
	dispatcher   *appservices.NotificationDispatcher
	logger       *slog.Logger
}

// schedule books the shipment and records the tracking reference. The selected
// quote is not persisted on the order, so booking walks the configured
// providers until one accepts.
func (s courierScheduler) schedule(ctx context.Context, ord *order.Order) error {
	shipment, err := s.orchestrator.CreateShipment(ctx, delivery.FallbackCourier, ports.ShipmentRequest{
		OrderID:     ord.ID(),
		From:        ord.Shipping().PickupAddress(),
		To:          ord.Shipping().DeliveryAddress(),
		WeightGrams: ord.Shipping().WeightGrams(),
		Method:      ord.DeliveryMethod(),
		LockerID:    ord.LockerID(),
		Service:     "standard",
	})
	if err != nil {
		return err
	}

	uow := s.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	now := time.Now().UTC()
	trackingReference := shipment.TrackingReference()
	dropoffCode := shipment.DropoffCode()

	noop, err := applyTransition(ctx, uow.OrderRepository(), ord, order.CourierScheduled, ports.StatusUpdate{
		TrackingReference: &trackingReference,
		DropoffCode:       &dropoffCode,
		UpdatedAt:         now,
	})
	if err != nil {
		return err
	}
	if noop {
		// A concurrent scheduling attempt already recorded a shipment.
		return nil
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	publishStatusChange(ctx, s.publisher, s.logger, ord, order.Committed, order.CourierScheduled, now)

	data := map[string]any{
		"order_id":           ord.ID().String(),
		"tracking_reference": trackingReference,
	}
	if dropoffCode != "" {
		data["dropoff_code"] = dropoffCode
	}
	s.dispatcher.Dispatch(ord.SellerID().String(), appservices.TemplateCourierScheduled, data)
	s.dispatcher.Dispatch(ord.BuyerID().String(), appservices.TemplateCourierScheduled, map[string]any{
		"order_id":           ord.ID().String(),
		"tracking_reference": trackingReference,
	})

	s.logger.Info("courier scheduled",
		"order_id", ord.ID().String(),
		"tracking_reference", trackingReference,
	)

	return nil
}
