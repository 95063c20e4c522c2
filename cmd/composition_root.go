package cmd

import (
	"log/slog"
	"time"

	"marketplace/internal/adapters/out/courier"
	"marketplace/internal/adapters/out/kafkabus"
	"marketplace/internal/adapters/out/notify"
	"marketplace/internal/adapters/out/payment"
	"marketplace/internal/adapters/out/postgres"
	redisadapter "marketplace/internal/adapters/out/redis"
	appservices "marketplace/internal/core/application/services"
	"marketplace/internal/core/application/usecases/commands"
	"marketplace/internal/core/application/usecases/queries"
	"marketplace/internal/core/domain/model/kernel"
	domainservices "marketplace/internal/core/domain/services"
	"marketplace/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// notificationTimeout bounds each background notification delivery attempt.
const notificationTimeout = 10 * time.Second

// CompositionRoot wires adapters and use cases together. Stateful
// collaborators (the refund handler's serialization group, the notification
// dispatcher's worker accounting, the kafka writer) are built once here and
// shared by every handler the root creates.
type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	uowFactory postgres.GormUnitOfWorkFactory

	reservations ports.ReservationStore
	payments     ports.PaymentClient
	publisher    ports.EventPublisher

	orchestrator *appservices.DeliveryOrchestrator
	dispatcher   *appservices.NotificationDispatcher
	calculator   domainservices.SettlementCalculator

	refundHandler *commands.RefundOrderCommandHandler

	logger *slog.Logger
}

func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	root := &CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		uowFactory: *postgres.NewGormUnitOfWorkFactory(gormDB),
		logger:     logger,
	}

	root.reservations = redisadapter.NewReservationStore(goredis.NewClient(&goredis.Options{
		Addr: config.RedisAddr,
	}))

	if err := root.buildPaymentClient(); err != nil {
		return nil, err
	}
	if err := root.buildPublisher(); err != nil {
		return nil, err
	}
	if err := root.buildOrchestrator(); err != nil {
		return nil, err
	}
	if err := root.buildDispatcher(); err != nil {
		return nil, err
	}

	calculator, err := domainservices.NewSettlementCalculator(config.PlatformFeeBps)
	if err != nil {
		return nil, err
	}
	root.calculator = calculator

	root.refundHandler = commands.NewRefundOrderCommandHandler(
		root.orderUoWFactory(), root.payments, root.dispatcher, logger)

	return root, nil
}

func (c *CompositionRoot) buildPaymentClient() error {
	if c.config.PaymentSandbox {
		c.logger.Warn("payment sandbox mode enabled, no real charges will be made")
		c.payments = payment.NewSandboxClient()
		return nil
	}

	client, err := payment.NewClient(c.config.PaymentBaseURL, c.config.PaymentSecretKey)
	if err != nil {
		return err
	}
	c.payments = client
	return nil
}

func (c *CompositionRoot) buildPublisher() error {
	publisher, err := kafkabus.NewPublisher(c.config.KafkaHost, c.config.KafkaOrderEventsTopic)
	if err != nil {
		return err
	}
	c.publisher = publisher
	return nil
}

func (c *CompositionRoot) buildOrchestrator() error {
	providers, err := c.config.ParseCourierProviders()
	if err != nil {
		return err
	}

	clients := make([]ports.CourierClient, 0, len(providers))
	for _, provider := range providers {
		client, err := courier.NewClient(provider.Name, provider.BaseURL, c.config.CourierAPIKey)
		if err != nil {
			return err
		}
		clients = append(clients, client)
	}

	fallbackPrice, err := kernel.NewMoney(c.config.FallbackDeliveryFee)
	if err != nil {
		return err
	}

	orchestrator, err := appservices.NewDeliveryOrchestrator(
		clients,
		domainservices.NewQuoteSelector(),
		c.config.CourierQuoteTimeout,
		fallbackPrice,
		c.logger,
	)
	if err != nil {
		return err
	}
	c.orchestrator = orchestrator
	return nil
}

func (c *CompositionRoot) buildDispatcher() error {
	client, err := notify.NewClient(c.config.NotifyBaseURL)
	if err != nil {
		return err
	}

	dispatcher, err := appservices.NewNotificationDispatcher(client, notificationTimeout, c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = dispatcher
	return nil
}

// Close flushes the event publisher and waits for in-flight notifications.
func (c *CompositionRoot) Close() error {
	c.dispatcher.Wait()
	return c.publisher.Close()
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCheckoutCommandHandler() commands.CheckoutCommandHandler {
	return commands.NewCheckoutCommandHandler(
		c.reservations, c.orchestrator, c.calculator, c.payments,
		c.config.ReservationTTL, c.logger)
}

func (c *CompositionRoot) CreateConfirmPaymentCommandHandler() commands.ConfirmPaymentCommandHandler {
	return commands.NewConfirmPaymentCommandHandler(
		c.orderUoWFactory(), c.payments, c.publisher, c.dispatcher, c.logger)
}

func (c *CompositionRoot) CreateCommitOrderCommandHandler() commands.CommitOrderCommandHandler {
	return commands.NewCommitOrderCommandHandler(
		c.orderUoWFactory(), c.orchestrator, c.publisher, c.dispatcher, c.logger)
}

func (c *CompositionRoot) CreateDeclineOrderCommandHandler() commands.DeclineOrderCommandHandler {
	return commands.NewDeclineOrderCommandHandler(
		c.orderUoWFactory(), c.reservations, c.refundHandler,
		c.publisher, c.dispatcher, c.logger)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(
		c.orderUoWFactory(), c.reservations, c.refundHandler,
		c.publisher, c.dispatcher, c.logger)
}

func (c *CompositionRoot) CreateCancelAfterMissedPickupCommandHandler() commands.CancelAfterMissedPickupCommandHandler {
	return commands.NewCancelAfterMissedPickupCommandHandler(
		c.orderUoWFactory(), c.refundHandler, c.publisher, c.dispatcher, c.logger)
}

func (c *CompositionRoot) CreateMarkCollectedCommandHandler() commands.MarkCollectedCommandHandler {
	return commands.NewMarkCollectedCommandHandler(
		c.orderUoWFactory(), c.publisher, c.dispatcher, c.logger)
}

func (c *CompositionRoot) CreateMarkDeliveredCommandHandler() commands.MarkDeliveredCommandHandler {
	return commands.NewMarkDeliveredCommandHandler(
		c.orderUoWFactory(), c.publisher, c.dispatcher, c.logger)
}

func (c *CompositionRoot) CreateExpireStaleOrdersCommandHandler() (commands.ExpireStaleOrdersCommandHandler, error) {
	policy := commands.ExpiryPolicy{
		PendingCommitTTL:   c.config.ExpiryPendingCommitTTL,
		CollectionTTL:      c.config.ExpiryCollectionTTL,
		AutoDeliverTTL:     c.config.ExpiryAutoDeliverTTL,
		AutoDeliverEnabled: c.config.ExpiryAutoDeliverEnabled,
	}

	return commands.NewExpireStaleOrdersCommandHandler(
		c.orderUoWFactory(), c.reservations, c.refundHandler,
		c.publisher, c.dispatcher, policy, c.logger)
}

func (c *CompositionRoot) CreateRetryCourierSchedulingCommandHandler() commands.RetryCourierSchedulingCommandHandler {
	return commands.NewRetryCourierSchedulingCommandHandler(
		c.orderUoWFactory(), c.orchestrator, c.publisher, c.dispatcher, c.logger)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetSellerOrdersQueryHandler() queries.GetSellerOrdersQueryHandler {
	return queries.NewGetSellerOrdersQueryHandler(c.gormDB)
}

// ReservationStore exposes the shared store for the webhook handler.
func (c *CompositionRoot) ReservationStore() ports.ReservationStore {
	return c.reservations
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}
