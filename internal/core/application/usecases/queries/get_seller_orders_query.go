package queries

import (
	"errors"
	"time"

	"marketplace/internal/core/domain/model/kernel"
	"marketplace/internal/core/domain/model/order"
	"marketplace/internal/pkg/errs"
	"marketplace/internal/pkg/guard"
)

const (
	defaultSellerOrdersLimit = 50
	maxSellerOrdersLimit     = 200
)

var ErrGetSellerOrdersQueryIsNotConstructed = errors.New(
	"GetSellerOrdersQuery must be created via NewGetSellerOrdersQuery constructor",
)

// GetSellerOrdersQuery lists a seller's orders, newest first, with an optional
// status filter. Sellers poll this view to find orders awaiting their commit.
//
// Example:
//
//	query, err := NewGetSellerOrdersQuery(sellerID, "pending_commit", 20)
//	if err != nil {
//	    return err
//	}
//
//	handler := NewGetSellerOrdersQueryHandler(db)
//	orders, err := handler.Handle(ctx, query)
type GetSellerOrdersQuery struct {
	sellerID     kernel.UUID
	statusFilter string
	limit        int

	guard guard.ConstructorGuard
}

// NewGetSellerOrdersQuery creates a query for a seller's orders.
// statusFilter may be empty for all statuses, otherwise it must be a valid
// status wire name. A non-positive limit falls back to the default page size.
func NewGetSellerOrdersQuery(sellerID kernel.UUID, statusFilter string, limit int) (GetSellerOrdersQuery, error) {
	if err := sellerID.Validate(); err != nil {
		return GetSellerOrdersQuery{}, err
	}

	if statusFilter != "" {
		if _, err := order.StatusFromString(statusFilter); err != nil {
			return GetSellerOrdersQuery{}, err
		}
	}

	if limit > maxSellerOrdersLimit {
		return GetSellerOrdersQuery{}, errs.NewValueIsOutOfRangeError(
			"limit", limit, 0, maxSellerOrdersLimit)
	}
	if limit <= 0 {
		limit = defaultSellerOrdersLimit
	}

	return GetSellerOrdersQuery{
		sellerID:     sellerID,
		statusFilter: statusFilter,
		limit:        limit,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
// Returns ErrGetSellerOrdersQueryIsNotConstructed if validation fails.
func (q GetSellerOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetSellerOrdersQueryIsNotConstructed)
}

// SellerID returns the seller whose orders are requested.
func (q GetSellerOrdersQuery) SellerID() kernel.UUID {
	return q.sellerID
}

// StatusFilter returns the status wire name to filter by, empty for all.
func (q GetSellerOrdersQuery) StatusFilter() string {
	return q.statusFilter
}

// Limit returns the maximum number of rows to return.
func (q GetSellerOrdersQuery) Limit() int {
	return q.limit
}

// GetSellerOrdersQueryResponse is a summary row in the seller's order list.
type GetSellerOrdersQueryResponse struct {
	ID           kernel.UUID
	BuyerID      kernel.UUID
	ItemID       kernel.UUID
	Status       string
	TotalAmount  int64
	SellerAmount int64
	RefundStatus string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
