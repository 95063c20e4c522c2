package commands_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	appservices "marketplace/internal/core/application/services"
	"marketplace/internal/core/application/usecases/commands"
	"marketplace/internal/core/domain/model/delivery"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/domain/services"
	"marketplace/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	args := m.Called(ctx, aggregate)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByPaymentReference(ctx context.Context, reference string) (*order.Order, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(
	ctx context.Context,
	id kernel.UUID,
	from, to order.Status,
	update ports.StatusUpdate,
) (bool, error) {
	args := m.Called(ctx, id, from, to, update)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) ClaimRefund(
	ctx context.Context,
	paymentReference string,
	amount kernel.Money,
	reason order.RefundReason,
	at time.Time,
) (bool, error) {
	args := m.Called(ctx, paymentReference, amount, reason, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) SetRefundStatus(
	ctx context.Context,
	paymentReference string,
	from, to order.RefundStatus,
) (bool, error) {
	args := m.Called(ctx, paymentReference, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) GetStaleInStatus(
	ctx context.Context,
	status order.Status,
	cutoff time.Time,
	limit int,
) ([]*order.Order, error) {
	args := m.Called(ctx, status, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetCommittedWithoutTracking(ctx context.Context, limit int) ([]*order.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockPaymentClient struct{ mock.Mock }

func (m *MockPaymentClient) Initialize(
	ctx context.Context,
	amount kernel.Money,
	email string,
	split services.SettlementSplit,
	metadata map[string]string,
) (ports.PaymentInitialization, error) {
	args := m.Called(ctx, amount, email, split, metadata)
	return args.Get(0).(ports.PaymentInitialization), args.Error(1)
}

func (m *MockPaymentClient) Verify(ctx context.Context, reference string) (ports.PaymentVerification, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).(ports.PaymentVerification), args.Error(1)
}

func (m *MockPaymentClient) Refund(
	ctx context.Context,
	reference string,
	amount kernel.Money,
) (ports.RefundResult, error) {
	args := m.Called(ctx, reference, amount)
	return args.Get(0).(ports.RefundResult), args.Error(1)
}

type MockReservationStore struct{ mock.Mock }

func (m *MockReservationStore) Reserve(
	ctx context.Context,
	itemID, buyerID kernel.UUID,
	ttl time.Duration,
) (bool, error) {
	args := m.Called(ctx, itemID, buyerID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationStore) Release(ctx context.Context, itemID kernel.UUID) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

func (m *MockReservationStore) ReservedBy(ctx context.Context, itemID kernel.UUID) (kernel.UUID, bool, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).(kernel.UUID), args.Bool(1), args.Error(2)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) PublishOrderStatusChanged(ctx context.Context, event ports.OrderStatusChanged) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockNotificationClient struct{ mock.Mock }

func (m *MockNotificationClient) Send(ctx context.Context, to, template string, data map[string]any) error {
	args := m.Called(ctx, to, template, data)
	return args.Error(0)
}

type MockCourierClient struct {
	mock.Mock
	name string
}

func (m *MockCourierClient) Name() string { return m.name }

func (m *MockCourierClient) Quote(ctx context.Context, req ports.QuoteRequest) ([]delivery.Quote, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]delivery.Quote), args.Error(1)
}

func (m *MockCourierClient) CreateShipment(ctx context.Context, req ports.ShipmentRequest) (delivery.Shipment, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(delivery.Shipment), args.Error(1)
}

func (m *MockCourierClient) Track(ctx context.Context, trackingReference string) ([]ports.TrackingEvent, error) {
	args := m.Called(ctx, trackingReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.TrackingEvent), args.Error(1)
}

// handlerEnv bundles the permissive plumbing mocks every handler test needs:
// transaction lifecycle, event publishing and notifications succeed unless a
// test says otherwise. Repository expectations stay strict.
type handlerEnv struct {
	repo         *MockOrderRepository
	uow          *MockOrderUoW
	factory      *MockOrderUoWFactory
	publisher    *MockEventPublisher
	notifyClient *MockNotificationClient
	dispatcher   *appservices.NotificationDispatcher
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	repo := &MockOrderRepository{}
	uow := &MockOrderUoW{}
	uow.On("Begin", mock.Anything).Return(nil).Maybe()
	uow.On("Commit", mock.Anything).Return(nil).Maybe()
	uow.On("Rollback", mock.Anything).Return(nil).Maybe()
	uow.On("OrderRepository").Return(repo).Maybe()

	factory := &MockOrderUoWFactory{}
	factory.On("Create").Return(uow).Maybe()

	publisher := &MockEventPublisher{}
	publisher.On("PublishOrderStatusChanged", mock.Anything, mock.Anything).Return(nil).Maybe()

	notifyClient := &MockNotificationClient{}
	notifyClient.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Maybe()

	dispatcher, err := appservices.NewNotificationDispatcher(notifyClient, time.Second, slog.Default())
	require.NoError(t, err)
	t.Cleanup(dispatcher.Wait)

	return &handlerEnv{
		repo:         repo,
		uow:          uow,
		factory:      factory,
		publisher:    publisher,
		notifyClient: notifyClient,
		dispatcher:   dispatcher,
	}
}

func (e *handlerEnv) logger() *slog.Logger {
	return slog.Default()
}

func testShipping(t *testing.T) order.ShippingDetails {
	t.Helper()

	pickup, err := kernel.NewAddress("1 Seller St", "Lagos", "", "")
	require.NoError(t, err)
	dropoff, err := kernel.NewAddress("2 Buyer Rd", "Abuja", "", "")
	require.NoError(t, err)

	shipping, err := order.NewShippingDetails(pickup, dropoff, 1200)
	require.NoError(t, err)
	return shipping
}

// restoreTestOrder builds an order in the given status with the standard test
// money split (1000 subtotal, 250 delivery fee, 100/900 platform/seller).
func restoreTestOrder(t *testing.T, status order.Status) *order.Order {
	t.Helper()
	return restoreTestOrderWithRefund(t, status, order.RefundNone)
}

func restoreTestOrderWithRefund(
	t *testing.T,
	status order.Status,
	refundStatus order.RefundStatus,
) *order.Order {
	t.Helper()

	subtotal, _ := kernel.NewMoney(1000)
	deliveryFee, _ := kernel.NewMoney(250)
	platformFee, _ := kernel.NewMoney(100)
	sellerAmount, _ := kernel.NewMoney(900)
	now := time.Now().UTC()

	ord, err := order.RestoreOrder(order.RestoreOrderParams{
		ID:               kernel.NewUUID(),
		BuyerID:          kernel.NewUUID(),
		SellerID:         kernel.NewUUID(),
		ItemID:           kernel.NewUUID(),
		Shipping:         testShipping(t),
		Subtotal:         subtotal,
		DeliveryFee:      deliveryFee,
		PlatformFee:      platformFee,
		SellerAmount:     sellerAmount,
		Status:           status,
		DeliveryMethod:   order.MethodHome,
		PaymentReference: "PAY-1",
		RefundStatus:     refundStatus,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	require.NoError(t, err)
	return ord
}

func testMoney(t *testing.T, units int64) kernel.Money {
	t.Helper()
	m, err := kernel.NewMoney(units)
	require.NoError(t, err)
	return m
}

func testShipment(t *testing.T, ref string) delivery.Shipment {
	t.Helper()
	s, err := delivery.NewShipment(ref, "https://labels.test/"+ref, "")
	require.NoError(t, err)
	return s
}

func testOrchestrator(t *testing.T, clients ...ports.CourierClient) *appservices.DeliveryOrchestrator {
	t.Helper()
	orchestrator, err := appservices.NewDeliveryOrchestrator(
		clients,
		services.NewQuoteSelector(),
		time.Second,
		testMoney(t, 500),
		slog.Default(),
	)
	require.NoError(t, err)
	return orchestrator
}
