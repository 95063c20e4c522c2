package orderrepo

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/core/ports"
	"marketplace/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM.
//
// All status and refund mutations are single conditional UPDATE statements
// guarded by the expected current value. The guard makes concurrent writers
// race on the database row instead of on stale in-memory state: exactly one
// wins, the rest observe RowsAffected == 0.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order to the database. The unique index on payment_reference
// rejects a second order for the same charge.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetByPaymentReference retrieves an order by its processor-side payment identifier.
func (r *GormOrderRepository) GetByPaymentReference(ctx context.Context, reference string) (*order.Order, error) {
	if reference == "" {
		return nil, errs.NewValueIsRequiredError("payment reference")
	}

	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "payment_reference = ?", reference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", reference)
		}
		return nil, err
	}

	return toDomain(dto)
}

// UpdateStatus executes the atomic conditional transition guarded by the
// expected current status. Nil pointer fields in update are left untouched.
func (r *GormOrderRepository) UpdateStatus(
	ctx context.Context,
	id kernel.UUID,
	from, to order.Status,
	update ports.StatusUpdate,
) (bool, error) {
	if err := id.Validate(); err != nil {
		return false, err
	}

	columns := map[string]any{
		"status":     to.String(),
		"updated_at": update.UpdatedAt,
	}
	if update.DeliveryMethod != nil {
		columns["delivery_method"] = update.DeliveryMethod.String()
	}
	if update.LockerID != nil {
		columns["locker_id"] = *update.LockerID
	}
	if update.TrackingReference != nil {
		columns["tracking_reference"] = *update.TrackingReference
	}
	if update.DropoffCode != nil {
		columns["dropoff_code"] = *update.DropoffCode
	}
	if update.CommittedAt != nil {
		columns["committed_at"] = *update.CommittedAt
	}
	if update.CollectedAt != nil {
		columns["collected_at"] = *update.CollectedAt
	}
	if update.DeliveredAt != nil {
		columns["delivered_at"] = *update.DeliveredAt
	}
	if update.CancelledAt != nil {
		columns["cancelled_at"] = *update.CancelledAt
	}

	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ? AND status = ?", id.Bytes(), from.String()).
		Updates(columns)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// ClaimRefund conditionally marks a refund as pending. The claim succeeds only
// when no refund is in flight or processed for the payment, which is the
// persistence half of the double-refund guard.
func (r *GormOrderRepository) ClaimRefund(
	ctx context.Context,
	paymentReference string,
	amount kernel.Money,
	reason order.RefundReason,
	at time.Time,
) (bool, error) {
	if paymentReference == "" {
		return false, errs.NewValueIsRequiredError("payment reference")
	}

	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("payment_reference = ? AND refund_status IN ?",
			paymentReference,
			[]string{order.RefundNone.String(), order.RefundFailed.String()}).
		Updates(map[string]any{
			"refund_status": order.RefundPending.String(),
			"refund_amount": amount.Units(),
			"refund_reason": reason.String(),
			"updated_at":    at,
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// SetRefundStatus conditionally moves refund_status from -> to.
func (r *GormOrderRepository) SetRefundStatus(
	ctx context.Context,
	paymentReference string,
	from, to order.RefundStatus,
) (bool, error) {
	if paymentReference == "" {
		return false, errs.NewValueIsRequiredError("payment reference")
	}

	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("payment_reference = ? AND refund_status = ?", paymentReference, from.String()).
		Updates(map[string]any{
			"refund_status": to.String(),
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// GetStaleInStatus retrieves up to limit orders that have sat in the given
// status since before the cutoff, oldest first.
func (r *GormOrderRepository) GetStaleInStatus(
	ctx context.Context,
	status order.Status,
	cutoff time.Time,
	limit int,
) ([]*order.Order, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}

	var dtos []OrderDTO
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", status.String(), cutoff).
		Order("updated_at").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	return toDomainSlice(dtos)
}

// GetCommittedWithoutTracking retrieves committed orders whose courier
// scheduling is still pending, oldest first.
func (r *GormOrderRepository) GetCommittedWithoutTracking(ctx context.Context, limit int) ([]*order.Order, error) {
	var dtos []OrderDTO
	err := r.db.WithContext(ctx).
		Where("status = ? AND tracking_reference = ''", order.Committed.String()).
		Order("updated_at").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	return toDomainSlice(dtos)
}

func toDomainSlice(dtos []OrderDTO) ([]*order.Order, error) {
	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		aggregate, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, aggregate)
	}
	return orders, nil
}
