package queries

import (
	"context"

	"marketplace/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetSellerOrdersQueryHandler lists a seller's orders from the database.
// Results are sorted newest first so the orders most likely to need a commit
// decision appear at the top.
type GetSellerOrdersQueryHandler struct {
	db *gorm.DB
}

// NewGetSellerOrdersQueryHandler creates a handler for seller order list queries.
// Requires a GORM database connection for query execution.
func NewGetSellerOrdersQueryHandler(db *gorm.DB) GetSellerOrdersQueryHandler {
	return GetSellerOrdersQueryHandler{db: db}
}

// Handle executes the query. An empty result is a valid response, not an error.
func (h GetSellerOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetSellerOrdersQuery,
) ([]GetSellerOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	sql := `
		SELECT
			id,
			buyer_id,
			item_id,
			status,
			subtotal + delivery_fee AS total_amount,
			seller_amount,
			refund_status,
			created_at,
			updated_at
		FROM orders
		WHERE seller_id = ?
	`
	args := []any{query.SellerID().Bytes()}

	if query.StatusFilter() != "" {
		sql += " AND status = ?"
		args = append(args, query.StatusFilter())
	}

	sql += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, query.Limit())

	rows, err := h.db.WithContext(ctx).Raw(sql, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]GetSellerOrdersQueryResponse, 0)

	for rows.Next() {
		var resp GetSellerOrdersQueryResponse
		var id, buyerID, itemID uuid.UUID

		err = rows.Scan(
			&id,
			&buyerID,
			&itemID,
			&resp.Status,
			&resp.TotalAmount,
			&resp.SellerAmount,
			&resp.RefundStatus,
			&resp.CreatedAt,
			&resp.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if resp.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if resp.BuyerID, err = kernel.UUIDFromBytes(buyerID[:]); err != nil {
			return nil, err
		}
		if resp.ItemID, err = kernel.UUIDFromBytes(itemID[:]); err != nil {
			return nil, err
		}

		orders = append(orders, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
