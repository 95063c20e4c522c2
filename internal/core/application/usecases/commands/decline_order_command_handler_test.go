package commands_test

import (
	"context"
	"testing"

	"marketplace/internal/core/application/usecases/commands"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func Test_DeclineOrderCommandHandler_DeclinesAndRefunds(t *testing.T) {
	// Arrange
	env := newHandlerEnv(t)
	ord := restoreTestOrder(t, order.PendingCommit)
	reservations := &MockReservationStore{}
	payments := &MockPaymentClient{}

	getOrder := env.repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil).Once()
	decline := env.repo.On("UpdateStatus",
		mock.Anything, ord.ID(), order.PendingCommit, order.DeclinedBySeller, mock.Anything).
		Return(true, nil).Once()
	release := reservations.On("Release", mock.Anything, ord.ItemID()).Return(nil).Once()
	claim := env.repo.On("ClaimRefund",
		mock.Anything, "PAY-1", ord.TotalAmount(), order.ReasonSellerDecline, mock.Anything).
		Return(true, nil).Once()
	refund := payments.On("Refund", mock.Anything, "PAY-1", ord.TotalAmount()).
		Return(ports.RefundResult{RefundID: "RF-3"}, nil).Once()

	env.repo.On("GetByPaymentReference", mock.Anything, "PAY-1").Return(ord, nil).Once()
	env.repo.On("SetRefundStatus",
		mock.Anything, "PAY-1", order.RefundPending, order.RefundProcessed).
		Return(true, nil).Once()

	// The decline is durable before the reservation opens up and before any
	// money moves.
	mock.InOrder(getOrder, decline, release, claim, refund)

	refundHandler := commands.NewRefundOrderCommandHandler(
		env.factory, payments, env.dispatcher, env.logger())
	handler := commands.NewDeclineOrderCommandHandler(
		env.factory, reservations, refundHandler, env.publisher, env.dispatcher, env.logger())

	cmd, err := commands.NewDeclineOrderCommand(ord.ID(), ord.SellerID())
	require.NoError(t, err)

	// Act
	err = handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	env.repo.AssertExpectations(t)
	reservations.AssertExpectations(t)
	payments.AssertExpectations(t)
}

func Test_DeclineOrderCommandHandler_RepeatDeclineIsNoop(t *testing.T) {
	// Arrange
	env := newHandlerEnv(t)
	ord := restoreTestOrderWithRefund(t, order.DeclinedBySeller, order.RefundProcessed)
	reservations := &MockReservationStore{}
	payments := &MockPaymentClient{}

	env.repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil).Once()

	refundHandler := commands.NewRefundOrderCommandHandler(
		env.factory, payments, env.dispatcher, env.logger())
	handler := commands.NewDeclineOrderCommandHandler(
		env.factory, reservations, refundHandler, env.publisher, env.dispatcher, env.logger())

	cmd, err := commands.NewDeclineOrderCommand(ord.ID(), ord.SellerID())
	require.NoError(t, err)

	// Act
	err = handler.Handle(context.Background(), cmd)

	// Assert: no second refund, no reservation churn.
	require.NoError(t, err)
	payments.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
	reservations.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func Test_DeclineOrderCommandHandler_RepeatDeclineRetriesFailedRefund(t *testing.T) {
	// Arrange: the first decline took effect but the processor call failed,
	// leaving the claim in refund_failed.
	env := newHandlerEnv(t)
	ord := restoreTestOrderWithRefund(t, order.DeclinedBySeller, order.RefundFailed)
	reservations := &MockReservationStore{}
	payments := &MockPaymentClient{}

	env.repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil).Once()
	env.repo.On("GetByPaymentReference", mock.Anything, "PAY-1").Return(ord, nil).Once()
	env.repo.On("ClaimRefund",
		mock.Anything, "PAY-1", ord.TotalAmount(), order.ReasonSellerDecline, mock.Anything).
		Return(true, nil).Once()
	payments.On("Refund", mock.Anything, "PAY-1", ord.TotalAmount()).
		Return(ports.RefundResult{RefundID: "RF-4"}, nil).Once()
	env.repo.On("SetRefundStatus",
		mock.Anything, "PAY-1", order.RefundPending, order.RefundProcessed).
		Return(true, nil).Once()

	refundHandler := commands.NewRefundOrderCommandHandler(
		env.factory, payments, env.dispatcher, env.logger())
	handler := commands.NewDeclineOrderCommandHandler(
		env.factory, reservations, refundHandler, env.publisher, env.dispatcher, env.logger())

	cmd, err := commands.NewDeclineOrderCommand(ord.ID(), ord.SellerID())
	require.NoError(t, err)

	// Act
	err = handler.Handle(context.Background(), cmd)

	// Assert: no second transition, and the stranded refund is driven through
	// exactly once.
	require.NoError(t, err)
	env.repo.AssertNotCalled(t, "UpdateStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	env.repo.AssertExpectations(t)
	payments.AssertExpectations(t)
}

func Test_DeclineOrderCommandHandler_SellerMismatch(t *testing.T) {
	// Arrange
	env := newHandlerEnv(t)
	ord := restoreTestOrder(t, order.PendingCommit)
	reservations := &MockReservationStore{}
	payments := &MockPaymentClient{}

	env.repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil).Once()

	refundHandler := commands.NewRefundOrderCommandHandler(
		env.factory, payments, env.dispatcher, env.logger())
	handler := commands.NewDeclineOrderCommandHandler(
		env.factory, reservations, refundHandler, env.publisher, env.dispatcher, env.logger())

	cmd, err := commands.NewDeclineOrderCommand(ord.ID(), kernel.NewUUID())
	require.NoError(t, err)

	// Act
	err = handler.Handle(context.Background(), cmd)

	// Assert
	require.ErrorIs(t, err, commands.ErrSellerMismatch)
	env.repo.AssertNotCalled(t, "UpdateStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
