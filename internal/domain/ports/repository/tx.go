package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX Tx

// TransactionManager runs fn inside a single database transaction and hands
// the transaction handle to fn as `tx`.
//
// Repositories accept that handle on every method; the concrete type is
// infra-defined (pgx.Tx for Postgres) and NoTX selects the plain pool.
// When fn returns an error the transaction is rolled back, otherwise it is
// committed. The underlying connection is released on every path.
//
// USAGE
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx Tx) error {
//		ok, err := sales.MarkPaid(ctx, tx, id, ...)
//		...
//		return enrollments.Create(ctx, tx, e)
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
