package repositories

import (
	"context"
)

// UnitOfWork runs a group of store calls atomically
type UnitOfWork interface {
	// Do executes fn within a transaction carried by ctx
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	// WithLock makes reads inside the transaction lock the rows they select
	WithLock(ctx context.Context) context.Context
}
