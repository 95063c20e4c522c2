package queries

import (
	"context"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrderQueryHandler reads a single order row from the database.
// It deliberately skips aggregate reconstruction: the read side returns wire
// names and integer amounts as stored, without re-running domain invariants.
type GetOrderQueryHandler struct {
	db *gorm.DB
}

// NewGetOrderQueryHandler creates a handler for single-order queries.
// Requires a GORM database connection for query execution.
func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

// Handle executes the query. Returns an ObjectNotFoundError when no order with
// the given identifier exists.
func (h GetOrderQueryHandler) Handle(
	ctx context.Context,
	query GetOrderQuery,
) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			buyer_id,
			seller_id,
			item_id,
			status,
			delivery_method,
			locker_id,
			tracking_reference,
			dropoff_code,
			subtotal,
			delivery_fee,
			platform_fee,
			seller_amount,
			payment_reference,
			refund_status,
			refund_amount,
			refund_reason,
			committed_at,
			collected_at,
			delivered_at,
			cancelled_at,
			created_at,
			updated_at
		FROM orders
		WHERE id = ?
	`, query.OrderID().Bytes()).Rows()
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return GetOrderQueryResponse{}, err
		}
		return GetOrderQueryResponse{}, errs.NewObjectNotFoundError("order", query.OrderID().String())
	}

	var resp GetOrderQueryResponse
	var id, buyerID, sellerID, itemID uuid.UUID

	err = rows.Scan(
		&id,
		&buyerID,
		&sellerID,
		&itemID,
		&resp.Status,
		&resp.DeliveryMethod,
		&resp.LockerID,
		&resp.TrackingReference,
		&resp.DropoffCode,
		&resp.Subtotal,
		&resp.DeliveryFee,
		&resp.PlatformFee,
		&resp.SellerAmount,
		&resp.PaymentReference,
		&resp.RefundStatus,
		&resp.RefundAmount,
		&resp.RefundReason,
		&resp.CommittedAt,
		&resp.CollectedAt,
		&resp.DeliveredAt,
		&resp.CancelledAt,
		&resp.CreatedAt,
		&resp.UpdatedAt,
	)
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	if resp.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
		return GetOrderQueryResponse{}, err
	}
	if resp.BuyerID, err = kernel.UUIDFromBytes(buyerID[:]); err != nil {
		return GetOrderQueryResponse{}, err
	}
	if resp.SellerID, err = kernel.UUIDFromBytes(sellerID[:]); err != nil {
		return GetOrderQueryResponse{}, err
	}
	if resp.ItemID, err = kernel.UUIDFromBytes(itemID[:]); err != nil {
		return GetOrderQueryResponse{}, err
	}

	resp.TotalAmount = resp.Subtotal + resp.DeliveryFee

	return resp, nil
}
