package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace/internal/core/application/usecases/commands"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testExpiryPolicy() commands.ExpiryPolicy {
	return commands.ExpiryPolicy{
		PendingCommitTTL:   48 * time.Hour,
		CollectionTTL:      7 * 24 * time.Hour,
		AutoDeliverTTL:     14 * 24 * time.Hour,
		AutoDeliverEnabled: true,
	}
}

func newSweepHandler(
	t *testing.T,
	env *handlerEnv,
	reservations *MockReservationStore,
	payments *MockPaymentClient,
	policy commands.ExpiryPolicy,
) commands.ExpireStaleOrdersCommandHandler {
	t.Helper()

	refundHandler := commands.NewRefundOrderCommandHandler(
		env.factory, payments, env.dispatcher, env.logger())
	handler, err := commands.NewExpireStaleOrdersCommandHandler(
		env.factory, reservations, refundHandler, env.publisher, env.dispatcher,
		policy, env.logger())
	require.NoError(t, err)
	return handler
}

func Test_ExpireStaleOrdersCommandHandler_ExpiresPendingCommit(t *testing.T) {
	// Arrange: one order sat in pending_commit past the 48h window.
	env := newHandlerEnv(t)
	ord := restoreTestOrder(t, order.PendingCommit)
	reservations := &MockReservationStore{}
	payments := &MockPaymentClient{}

	env.repo.On("GetStaleInStatus",
		mock.Anything, order.PendingCommit, mock.Anything, mock.Anything).
		Return([]*order.Order{ord}, nil).Once()
	env.repo.On("GetStaleInStatus",
		mock.Anything, order.CourierScheduled, mock.Anything, mock.Anything).
		Return([]*order.Order{}, nil).Once()
	env.repo.On("GetStaleInStatus",
		mock.Anything, order.Collected, mock.Anything, mock.Anything).
		Return([]*order.Order{}, nil).Once()

	env.repo.On("UpdateStatus",
		mock.Anything, ord.ID(), order.PendingCommit, order.DeclinedBySeller, mock.Anything).
		Return(true, nil).Once()
	reservations.On("Release", mock.Anything, ord.ItemID()).Return(nil).Once()

	// Full refund, reason expiry.
	env.repo.On("GetByPaymentReference", mock.Anything, "PAY-1").Return(ord, nil).Once()
	env.repo.On("ClaimRefund",
		mock.Anything, "PAY-1", ord.TotalAmount(), order.ReasonExpiry, mock.Anything).
		Return(true, nil).Once()
	payments.On("Refund", mock.Anything, "PAY-1", ord.TotalAmount()).
		Return(ports.RefundResult{RefundID: "RF-9"}, nil).Once()
	env.repo.On("SetRefundStatus",
		mock.Anything, "PAY-1", order.RefundPending, order.RefundProcessed).
		Return(true, nil).Once()

	handler := newSweepHandler(t, env, reservations, payments, testExpiryPolicy())

	// Act
	result, err := handler.Handle(context.Background(), commands.NewExpireStaleOrdersCommand())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Errors)
	env.repo.AssertExpectations(t)
	reservations.AssertExpectations(t)
	payments.AssertExpectations(t)
}

func Test_ExpireStaleOrdersCommandHandler_TimesOutCollection(t *testing.T) {
	// Arrange: courier never collected within the window. No refund here.
	env := newHandlerEnv(t)
	ord := restoreTestOrder(t, order.CourierScheduled)
	reservations := &MockReservationStore{}
	payments := &MockPaymentClient{}

	env.repo.On("GetStaleInStatus",
		mock.Anything, order.PendingCommit, mock.Anything, mock.Anything).
		Return([]*order.Order{}, nil).Once()
	env.repo.On("GetStaleInStatus",
		mock.Anything, order.CourierScheduled, mock.Anything, mock.Anything).
		Return([]*order.Order{ord}, nil).Once()
	env.repo.On("GetStaleInStatus",
		mock.Anything, order.Collected, mock.Anything, mock.Anything).
		Return([]*order.Order{}, nil).Once()

	env.repo.On("UpdateStatus",
		mock.Anything, ord.ID(), order.CourierScheduled, order.CollectionTimeout, mock.Anything).
		Return(true, nil).Once()

	handler := newSweepHandler(t, env, reservations, payments, testExpiryPolicy())

	// Act
	result, err := handler.Handle(context.Background(), commands.NewExpireStaleOrdersCommand())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	payments.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
	env.repo.AssertExpectations(t)
}

func Test_ExpireStaleOrdersCommandHandler_AutoDelivers(t *testing.T) {
	// Arrange
	env := newHandlerEnv(t)
	ord := restoreTestOrder(t, order.Collected)
	reservations := &MockReservationStore{}
	payments := &MockPaymentClient{}

	env.repo.On("GetStaleInStatus",
		mock.Anything, order.PendingCommit, mock.Anything, mock.Anything).
		Return([]*order.Order{}, nil).Once()
	env.repo.On("GetStaleInStatus",
		mock.Anything, order.CourierScheduled, mock.Anything, mock.Anything).
		Return([]*order.Order{}, nil).Once()
	env.repo.On("GetStaleInStatus",
		mock.Anything, order.Collected, mock.Anything, mock.Anything).
		Return([]*order.Order{ord}, nil).Once()

	env.repo.On("UpdateStatus",
		mock.Anything, ord.ID(), order.Collected, order.Delivered, mock.Anything).
		Return(true, nil).Once()

	handler := newSweepHandler(t, env, reservations, payments, testExpiryPolicy())

	// Act
	result, err := handler.Handle(context.Background(), commands.NewExpireStaleOrdersCommand())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	env.repo.AssertExpectations(t)
}

func Test_ExpireStaleOrdersCommandHandler_AutoDeliverDisabledSkipsCollected(t *testing.T) {
	// Arrange
	env := newHandlerEnv(t)
	reservations := &MockReservationStore{}
	payments := &MockPaymentClient{}

	env.repo.On("GetStaleInStatus",
		mock.Anything, order.PendingCommit, mock.Anything, mock.Anything).
		Return([]*order.Order{}, nil).Once()
	env.repo.On("GetStaleInStatus",
		mock.Anything, order.CourierScheduled, mock.Anything, mock.Anything).
		Return([]*order.Order{}, nil).Once()

	policy := testExpiryPolicy()
	policy.AutoDeliverEnabled = false
	handler := newSweepHandler(t, env, reservations, payments, policy)

	// Act
	_, err := handler.Handle(context.Background(), commands.NewExpireStaleOrdersCommand())

	// Assert
	require.NoError(t, err)
	env.repo.AssertNotCalled(t, "GetStaleInStatus",
		mock.Anything, order.Collected, mock.Anything, mock.Anything)
}

func Test_ExpireStaleOrdersCommandHandler_IsolatesPerOrderFailures(t *testing.T) {
	// Arrange: two expired orders, the first one's write fails.
	env := newHandlerEnv(t)
	broken := restoreTestOrder(t, order.CourierScheduled)
	healthy := restoreTestOrder(t, order.CourierScheduled)
	reservations := &MockReservationStore{}
	payments := &MockPaymentClient{}

	env.repo.On("GetStaleInStatus",
		mock.Anything, order.PendingCommit, mock.Anything, mock.Anything).
		Return([]*order.Order{}, nil).Once()
	env.repo.On("GetStaleInStatus",
		mock.Anything, order.CourierScheduled, mock.Anything, mock.Anything).
		Return([]*order.Order{broken, healthy}, nil).Once()
	env.repo.On("GetStaleInStatus",
		mock.Anything, order.Collected, mock.Anything, mock.Anything).
		Return([]*order.Order{}, nil).Once()

	env.repo.On("UpdateStatus",
		mock.Anything, broken.ID(), order.CourierScheduled, order.CollectionTimeout, mock.Anything).
		Return(false, errors.New("connection reset")).Once()
	env.repo.On("UpdateStatus",
		mock.Anything, healthy.ID(), order.CourierScheduled, order.CollectionTimeout, mock.Anything).
		Return(true, nil).Once()

	handler := newSweepHandler(t, env, reservations, payments, testExpiryPolicy())

	// Act
	result, err := handler.Handle(context.Background(), commands.NewExpireStaleOrdersCommand())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Errors)
	env.repo.AssertExpectations(t)
}
