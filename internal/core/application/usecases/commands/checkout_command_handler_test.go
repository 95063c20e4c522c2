package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace/internal/core/application/usecases/commands"
	"marketplace/internal/core/domain/model/delivery"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/services"
	"marketplace/internal/core/ports"
	"marketplace/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCheckoutCommand(t *testing.T) commands.CheckoutCommand {
	t.Helper()

	cmd, err := commands.NewCheckoutCommand(
		kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
		"buyer@mail.test",
		testMoney(t, 1000),
		testShipping(t),
	)
	require.NoError(t, err)
	return cmd
}

func newCheckoutHandler(
	t *testing.T,
	reservations *MockReservationStore,
	payments *MockPaymentClient,
	couriers ...ports.CourierClient,
) commands.CheckoutCommandHandler {
	t.Helper()

	calculator, err := services.NewSettlementCalculator(services.DefaultPlatformFeeBps)
	require.NoError(t, err)

	env := newHandlerEnv(t)
	return commands.NewCheckoutCommandHandler(
		reservations, testOrchestrator(t, couriers...), calculator, payments,
		48*time.Hour, env.logger())
}

func Test_CheckoutCommandHandler_InitializesPayment(t *testing.T) {
	// Arrange
	cmd := newCheckoutCommand(t)
	reservations := &MockReservationStore{}
	payments := &MockPaymentClient{}

	reservations.On("Reserve", mock.Anything, cmd.ItemID(), cmd.BuyerID(), 48*time.Hour).
		Return(true, nil).Once()

	courier := &MockCourierClient{name: "econoship"}
	quote, err := delivery.NewQuote("econoship", "standard", testMoney(t, 250), 3)
	require.NoError(t, err)
	courier.On("Quote", mock.Anything, mock.Anything).
		Return([]delivery.Quote{quote}, nil).Once()

	// 1000 subtotal + 250 delivery, 10% platform fee on the subtotal.
	payments.On("Initialize",
		mock.Anything, testMoney(t, 1250), "buyer@mail.test", mock.Anything, mock.Anything).
		Return(ports.PaymentInitialization{
			Reference:        "PAY-77",
			AuthorizationURL: "https://pay.test/PAY-77",
		}, nil).Once()

	handler := newCheckoutHandler(t, reservations, payments, courier)

	// Act
	result, err := handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "PAY-77", result.PaymentReference)
	assert.Equal(t, "https://pay.test/PAY-77", result.AuthorizationURL)
	assert.Equal(t, int64(250), result.DeliveryFee.Units())
	assert.Equal(t, int64(1250), result.TotalAmount.Units())
	assert.False(t, result.FallbackQuote)
	reservations.AssertExpectations(t)
	payments.AssertExpectations(t)
}

func Test_CheckoutCommandHandler_ReservedItemRejectsSecondBuyer(t *testing.T) {
	// Arrange
	cmd := newCheckoutCommand(t)
	reservations := &MockReservationStore{}
	payments := &MockPaymentClient{}

	reservations.On("Reserve", mock.Anything, cmd.ItemID(), cmd.BuyerID(), mock.Anything).
		Return(false, nil).Once()

	handler := newCheckoutHandler(t, reservations, payments, &MockCourierClient{name: "econoship"})

	// Act
	_, err := handler.Handle(context.Background(), cmd)

	// Assert
	require.ErrorIs(t, err, commands.ErrItemAlreadyReserved)
	payments.AssertNotCalled(t, "Initialize",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func Test_CheckoutCommandHandler_ProviderOutageFallsBackToFixedFee(t *testing.T) {
	// Arrange: every courier down, checkout still goes through.
	cmd := newCheckoutCommand(t)
	reservations := &MockReservationStore{}
	payments := &MockPaymentClient{}

	reservations.On("Reserve", mock.Anything, cmd.ItemID(), cmd.BuyerID(), mock.Anything).
		Return(true, nil).Once()

	courier := &MockCourierClient{name: "econoship"}
	courier.On("Quote", mock.Anything, mock.Anything).
		Return(nil, errs.NewUpstreamUnavailableError("econoship", errors.New("down"))).Once()

	payments.On("Initialize",
		mock.Anything, testMoney(t, 1500), "buyer@mail.test", mock.Anything, mock.Anything).
		Return(ports.PaymentInitialization{Reference: "PAY-78"}, nil).Once()

	handler := newCheckoutHandler(t, reservations, payments, courier)

	// Act
	result, err := handler.Handle(context.Background(), cmd)

	// Assert: the 500 fallback fee was charged and flagged.
	require.NoError(t, err)
	assert.True(t, result.FallbackQuote)
	assert.Equal(t, int64(500), result.DeliveryFee.Units())
	payments.AssertExpectations(t)
}

func Test_CheckoutCommandHandler_PaymentFailureReleasesReservation(t *testing.T) {
	// Arrange
	cmd := newCheckoutCommand(t)
	reservations := &MockReservationStore{}
	payments := &MockPaymentClient{}

	reservations.On("Reserve", mock.Anything, cmd.ItemID(), cmd.BuyerID(), mock.Anything).
		Return(true, nil).Once()
	reservations.On("Release", mock.Anything, cmd.ItemID()).Return(nil).Once()

	courier := &MockCourierClient{name: "econoship"}
	quote, err := delivery.NewQuote("econoship", "standard", testMoney(t, 250), 3)
	require.NoError(t, err)
	courier.On("Quote", mock.Anything, mock.Anything).
		Return([]delivery.Quote{quote}, nil).Once()

	payments.On("Initialize",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(ports.PaymentInitialization{},
			errs.NewUpstreamUnavailableError("payment processor", errors.New("timeout"))).Once()

	handler := newCheckoutHandler(t, reservations, payments, courier)

	// Act
	_, err = handler.Handle(context.Background(), cmd)

	// Assert
	require.ErrorIs(t, err, errs.ErrUpstreamUnavailable)
	reservations.AssertExpectations(t)
}
