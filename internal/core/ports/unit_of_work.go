package ports

import (
	"context"
)

// UnitOfWorkFactory creates one UnitOfWork per command so concurrent handlers
// never share a transaction.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is the transaction boundary around order writes. Handlers call
// Begin, apply their changes through OrderRepository and Commit; they defer
// Rollback unconditionally and ignore its error once the commit succeeded.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// OrderRepository returns a repository bound to the transaction started
	// by Begin.
	OrderRepository() OrderRepository
}
