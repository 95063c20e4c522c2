package commands_test

import (
	"context"
	"errors"
	"testing"

	"marketplace/internal/core/application/usecases/commands"
	"marketplace/internal/core/domain/model/delivery"
	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func Test_CommitOrderCommandHandler_CommitsAndSchedules(t *testing.T) {
	// Arrange
	env := newHandlerEnv(t)
	ord := restoreTestOrder(t, order.PendingCommit)

	env.repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil).Once()
	env.repo.On("UpdateStatus",
		mock.Anything, ord.ID(), order.PendingCommit, order.Committed, mock.Anything).
		Return(true, nil).Once()
	env.repo.On("UpdateStatus",
		mock.Anything, ord.ID(), order.Committed, order.CourierScheduled, mock.Anything).
		Return(true, nil).Once()

	courier := &MockCourierClient{name: "econoship"}
	courier.On("CreateShipment", mock.Anything, mock.Anything).
		Return(testShipment(t, "TRK-1"), nil).Once()

	handler := commands.NewCommitOrderCommandHandler(
		env.factory, testOrchestrator(t, courier), env.publisher, env.dispatcher, env.logger())

	cmd, err := commands.NewCommitOrderCommand(ord.ID(), ord.SellerID(), order.MethodHome, "")
	require.NoError(t, err)

	// Act
	err = handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	env.repo.AssertExpectations(t)
	courier.AssertExpectations(t)
}

func Test_CommitOrderCommandHandler_CourierFailureLeavesOrderCommitted(t *testing.T) {
	// Arrange
	env := newHandlerEnv(t)
	ord := restoreTestOrder(t, order.PendingCommit)

	env.repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil).Once()
	env.repo.On("UpdateStatus",
		mock.Anything, ord.ID(), order.PendingCommit, order.Committed, mock.Anything).
		Return(true, nil).Once()

	courier := &MockCourierClient{name: "econoship"}
	courier.On("CreateShipment", mock.Anything, mock.Anything).
		Return(delivery.Shipment{}, errs.NewUpstreamUnavailableError("econoship", errors.New("503"))).
		Twice() // initial attempt plus the single retry

	handler := commands.NewCommitOrderCommandHandler(
		env.factory, testOrchestrator(t, courier), env.publisher, env.dispatcher, env.logger())

	cmd, err := commands.NewCommitOrderCommand(ord.ID(), ord.SellerID(), order.MethodHome, "")
	require.NoError(t, err)

	// Act
	err = handler.Handle(context.Background(), cmd)

	// Assert: partial success, and no attempt to move past committed.
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrPartialSuccess)
	env.repo.AssertNumberOfCalls(t, "UpdateStatus", 1)
	courier.AssertExpectations(t)
}

func Test_CommitOrderCommandHandler_RecommitIsIdempotent(t *testing.T) {
	// Arrange: already committed, scheduling still pending.
	env := newHandlerEnv(t)
	ord := restoreTestOrder(t, order.Committed)

	env.repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil).Once()
	env.repo.On("UpdateStatus",
		mock.Anything, ord.ID(), order.Committed, order.CourierScheduled, mock.Anything).
		Return(true, nil).Once()

	courier := &MockCourierClient{name: "econoship"}
	courier.On("CreateShipment", mock.Anything, mock.Anything).
		Return(testShipment(t, "TRK-2"), nil).Once()

	handler := commands.NewCommitOrderCommandHandler(
		env.factory, testOrchestrator(t, courier), env.publisher, env.dispatcher, env.logger())

	cmd, err := commands.NewCommitOrderCommand(ord.ID(), ord.SellerID(), order.MethodHome, "")
	require.NoError(t, err)

	// Act
	err = handler.Handle(context.Background(), cmd)

	// Assert: no second pending_commit -> committed write happened.
	require.NoError(t, err)
	env.repo.AssertNumberOfCalls(t, "UpdateStatus", 1)
	env.repo.AssertExpectations(t)
}

func Test_CommitOrderCommandHandler_AlreadyScheduledIsNoop(t *testing.T) {
	// Arrange
	env := newHandlerEnv(t)
	ord := restoreTestOrder(t, order.CourierScheduled)

	env.repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil).Once()

	courier := &MockCourierClient{name: "econoship"}
	handler := commands.NewCommitOrderCommandHandler(
		env.factory, testOrchestrator(t, courier), env.publisher, env.dispatcher, env.logger())

	cmd, err := commands.NewCommitOrderCommand(ord.ID(), ord.SellerID(), order.MethodHome, "")
	require.NoError(t, err)

	// Act
	err = handler.Handle(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	env.repo.AssertNotCalled(t, "UpdateStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	courier.AssertNotCalled(t, "CreateShipment", mock.Anything, mock.Anything)
}

func Test_CommitOrderCommandHandler_SellerMismatch(t *testing.T) {
	// Arrange
	env := newHandlerEnv(t)
	ord := restoreTestOrder(t, order.PendingCommit)

	env.repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil).Once()

	courier := &MockCourierClient{name: "econoship"}
	handler := commands.NewCommitOrderCommandHandler(
		env.factory, testOrchestrator(t, courier), env.publisher, env.dispatcher, env.logger())

	cmd, err := commands.NewCommitOrderCommand(ord.ID(), kernel.NewUUID(), order.MethodHome, "")
	require.NoError(t, err)

	// Act
	err = handler.Handle(context.Background(), cmd)

	// Assert
	require.ErrorIs(t, err, commands.ErrSellerMismatch)
	env.repo.AssertNotCalled(t, "UpdateStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func Test_CommitOrderCommandHandler_CommitFromTerminalStateFails(t *testing.T) {
	// Arrange
	env := newHandlerEnv(t)
	ord := restoreTestOrder(t, order.DeclinedBySeller)

	env.repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil).Once()

	courier := &MockCourierClient{name: "econoship"}
	handler := commands.NewCommitOrderCommandHandler(
		env.factory, testOrchestrator(t, courier), env.publisher, env.dispatcher, env.logger())

	cmd, err := commands.NewCommitOrderCommand(ord.ID(), ord.SellerID(), order.MethodHome, "")
	require.NoError(t, err)

	// Act
	err = handler.Handle(context.Background(), cmd)

	// Assert
	require.ErrorIs(t, err, errs.ErrInvalidStateTransition)
}
