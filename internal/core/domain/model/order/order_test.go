package order_test

import (
	"testing"
	"time"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShipping(t *testing.T) order.ShippingDetails {
	t.Helper()

	pickup, err := kernel.NewAddress("1 Seller St", "Lagos", "", "")
	require.NoError(t, err)
	delivery, err := kernel.NewAddress("2 Buyer Rd", "Abuja", "", "")
	require.NoError(t, err)

	shipping, err := order.NewShippingDetails(pickup, delivery, 1200)
	require.NoError(t, err)
	return shipping
}

func newTestOrder(t *testing.T) *order.Order {
	t.Helper()

	subtotal, _ := kernel.NewMoney(1000)
	deliveryFee, _ := kernel.NewMoney(250)
	platformFee, _ := kernel.NewMoney(100)
	sellerAmount, _ := kernel.NewMoney(900)

	o, err := order.NewOrder(
		kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
		newTestShipping(t),
		subtotal, deliveryFee, platformFee, sellerAmount,
		"PAY-REF-123",
		time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("creates order in pending_commit with derived total", func(t *testing.T) {
		o := newTestOrder(t)

		assert.Equal(t, order.PendingCommit, o.Status())
		assert.Equal(t, int64(1250), o.TotalAmount().Units())
		assert.Equal(t, o.Subtotal().Add(o.DeliveryFee()), o.TotalAmount())
		assert.Equal(t, order.RefundNone, o.RefundStatus())
		assert.Equal(t, "PAY-REF-123", o.PaymentReference())
		require.NoError(t, o.Validate())
	})

	t.Run("rejects split that does not sum to subtotal", func(t *testing.T) {
		subtotal, _ := kernel.NewMoney(1000)
		deliveryFee, _ := kernel.NewMoney(250)
		platformFee, _ := kernel.NewMoney(100)
		sellerAmount, _ := kernel.NewMoney(850) // 100 + 850 != 1000

		_, err := order.NewOrder(
			kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			newTestShipping(t),
			subtotal, deliveryFee, platformFee, sellerAmount,
			"PAY-REF-123", time.Now().UTC(),
		)

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("rejects missing payment reference", func(t *testing.T) {
		subtotal, _ := kernel.NewMoney(1000)
		platformFee, _ := kernel.NewMoney(100)
		sellerAmount, _ := kernel.NewMoney(900)

		_, err := order.NewOrder(
			kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			newTestShipping(t),
			subtotal, 0, platformFee, sellerAmount,
			"", time.Now().UTC(),
		)

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("zero value order fails validation", func(t *testing.T) {
		var o order.Order
		require.ErrorIs(t, o.Validate(), order.ErrOrderIsNotConstructed)
	})
}

func TestOrder_Commit(t *testing.T) {
	now := time.Now().UTC()

	t.Run("home pickup", func(t *testing.T) {
		o := newTestOrder(t)

		require.NoError(t, o.Commit(order.MethodHome, "", now))

		assert.Equal(t, order.Committed, o.Status())
		assert.Equal(t, order.MethodHome, o.DeliveryMethod())
		require.NotNil(t, o.CommittedAt())
		assert.Equal(t, now, *o.CommittedAt())
	})

	t.Run("locker requires locker id", func(t *testing.T) {
		o := newTestOrder(t)

		err := o.Commit(order.MethodLocker, "", now)

		require.ErrorIs(t, err, order.ErrLockerIDIsRequired)
		assert.Equal(t, order.PendingCommit, o.Status())
	})

	t.Run("locker with id", func(t *testing.T) {
		o := newTestOrder(t)

		require.NoError(t, o.Commit(order.MethodLocker, "LKR-042", now))

		assert.Equal(t, "LKR-042", o.LockerID())
	})

	t.Run("re-commit is a no-op", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.Commit(order.MethodHome, "", now))

		require.NoError(t, o.Commit(order.MethodHome, "", now.Add(time.Hour)))

		assert.Equal(t, order.Committed, o.Status())
		assert.Equal(t, now, *o.CommittedAt())
	})

	t.Run("commit after decline is illegal", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.Decline(now))

		err := o.Commit(order.MethodHome, "", now)

		require.ErrorIs(t, err, errs.ErrInvalidStateTransition)
	})
}

func TestOrder_ScheduleCourier(t *testing.T) {
	now := time.Now().UTC()

	t.Run("persists tracking reference", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.Commit(order.MethodHome, "", now))

		require.NoError(t, o.ScheduleCourier("TRK-900", "", now))

		assert.Equal(t, order.CourierScheduled, o.Status())
		assert.Equal(t, "TRK-900", o.TrackingReference())
	})

	t.Run("tracking reference is required", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.Commit(order.MethodHome, "", now))

		err := o.ScheduleCourier("", "", now)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("illegal from pending_commit", func(t *testing.T) {
		o := newTestOrder(t)

		err := o.ScheduleCourier("TRK-900", "", now)

		require.ErrorIs(t, err, errs.ErrInvalidStateTransition)
	})
}

func TestOrder_FullLifecycle(t *testing.T) {
	now := time.Now().UTC()
	o := newTestOrder(t)

	require.NoError(t, o.Commit(order.MethodLocker, "LKR-7", now))
	require.NoError(t, o.ScheduleCourier("TRK-1", "QR-55", now))
	require.NoError(t, o.MarkCollected(now))
	require.NoError(t, o.MarkDelivered(now))

	assert.Equal(t, order.Delivered, o.Status())
	assert.NotNil(t, o.CollectedAt())
	assert.NotNil(t, o.DeliveredAt())
	assert.Equal(t, "QR-55", o.DropoffCode())

	// Money invariant holds at the terminal state too.
	assert.Equal(t, o.Subtotal().Add(o.DeliveryFee()), o.TotalAmount())

	// Nothing leaves delivered.
	require.Error(t, o.TimeoutCollection(now))
	require.Error(t, o.CancelByBuyer(now))
}

func TestOrder_ClaimRefund(t *testing.T) {
	t.Run("claims full amount", func(t *testing.T) {
		o := newTestOrder(t)

		require.NoError(t, o.ClaimRefund(o.TotalAmount(), order.ReasonSellerDecline))

		assert.Equal(t, order.RefundPending, o.RefundStatus())
		assert.Equal(t, o.TotalAmount(), o.RefundAmount())
		assert.Equal(t, order.ReasonSellerDecline, o.RefundReason())
	})

	t.Run("claims partial amount", func(t *testing.T) {
		o := newTestOrder(t)
		partial, _ := kernel.NewMoney(1000) // retain the delivery fee

		require.NoError(t, o.ClaimRefund(partial, order.ReasonBuyerCancel))

		assert.Equal(t, partial, o.RefundAmount())
	})

	t.Run("rejects amount above total", func(t *testing.T) {
		o := newTestOrder(t)
		tooMuch, _ := kernel.NewMoney(1251)

		err := o.ClaimRefund(tooMuch, order.ReasonExpiry)

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
		assert.Equal(t, order.RefundNone, o.RefundStatus())
	})

	t.Run("second claim on pending refund fails", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.ClaimRefund(o.TotalAmount(), order.ReasonExpiry))

		err := o.ClaimRefund(o.TotalAmount(), order.ReasonExpiry)

		require.Error(t, err)
	})

	t.Run("claim after processed refund fails", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.ClaimRefund(o.TotalAmount(), order.ReasonDispute))
		require.NoError(t, o.CompleteRefund())

		err := o.ClaimRefund(o.TotalAmount(), order.ReasonDispute)

		require.Error(t, err)
	})

	t.Run("failed claim can be retried", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.ClaimRefund(o.TotalAmount(), order.ReasonExpiry))
		require.NoError(t, o.FailRefund())

		require.NoError(t, o.ClaimRefund(o.TotalAmount(), order.ReasonExpiry))
		assert.Equal(t, order.RefundPending, o.RefundStatus())
	})
}

func TestRestoreOrder(t *testing.T) {
	now := time.Now().UTC()

	t.Run("restores persisted state", func(t *testing.T) {
		subtotal, _ := kernel.NewMoney(2000)
		deliveryFee, _ := kernel.NewMoney(500)
		platformFee, _ := kernel.NewMoney(200)
		sellerAmount, _ := kernel.NewMoney(1800)

		o, err := order.RestoreOrder(order.RestoreOrderParams{
			ID:                kernel.NewUUID(),
			BuyerID:           kernel.NewUUID(),
			SellerID:          kernel.NewUUID(),
			ItemID:            kernel.NewUUID(),
			Subtotal:          subtotal,
			DeliveryFee:       deliveryFee,
			PlatformFee:       platformFee,
			SellerAmount:      sellerAmount,
			Status:            order.CourierScheduled,
			DeliveryMethod:    order.MethodHome,
			TrackingReference: "TRK-7",
			PaymentReference:  "PAY-9",
			RefundStatus:      order.RefundNone,
			CreatedAt:         now,
			UpdatedAt:         now,
		})

		require.NoError(t, err)
		assert.Equal(t, order.CourierScheduled, o.Status())
		assert.Equal(t, int64(2500), o.TotalAmount().Units())
	})

	t.Run("rejects corrupted split", func(t *testing.T) {
		subtotal, _ := kernel.NewMoney(2000)
		platformFee, _ := kernel.NewMoney(300)
		sellerAmount, _ := kernel.NewMoney(1800)

		_, err := order.RestoreOrder(order.RestoreOrderParams{
			ID:               kernel.NewUUID(),
			BuyerID:          kernel.NewUUID(),
			SellerID:         kernel.NewUUID(),
			ItemID:           kernel.NewUUID(),
			Subtotal:         subtotal,
			PlatformFee:      platformFee,
			SellerAmount:     sellerAmount,
			Status:           order.PendingCommit,
			PaymentReference: "PAY-9",
			CreatedAt:        now,
			UpdatedAt:        now,
		})

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrDataIntegrity)
	})
}
