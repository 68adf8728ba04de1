package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// SerializableTxOptions isolate read-validate-write ledger work. Two
// cycles on the same lobby or account cannot both commit; the loser gets
// SQLSTATE 40001.
var SerializableTxOptions = pgx.TxOptions{IsoLevel: pgx.Serializable}

// ReadCommittedTxOptions are for plain reads and commutative increments
var ReadCommittedTxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// InTx runs fn in a transaction with opts. The transaction commits when fn
// returns nil and rolls back otherwise.
func (db *DB) InTx(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	return pgx.BeginTxFunc(ctx, db.Pool, opts, fn)
}
