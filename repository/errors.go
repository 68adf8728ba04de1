package repository

import (
	"errors"
	"fmt"

	"bingohub/service"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrMalformedRecord is returned when a stored row fails validation
	ErrMalformedRecord = errors.New("malformed record")

	// ErrInvariantViolation is returned when a schema trigger rejects a write
	ErrInvariantViolation = errors.New("ledger invariant violation")
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateCheckViolation       = "23514"
	sqlStateStakeImmutable       = "BG001"
	sqlStateAppendOnly           = "BG002"

	constraintBalanceNonNegative = "users_balance_non_negative"
	constraintPotNonNegative     = "lobbies_winning_pot_non_negative"
)

// mapError translates PostgreSQL failures into the service error taxonomy.
// Errors it does not recognise are returned unchanged.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return fmt.Errorf("%w: %s", service.ErrConcurrentModification, pgErr.Message)
	case sqlStateStakeImmutable:
		return fmt.Errorf("%w: %s", service.ErrStakeImmutable, pgErr.Message)
	case sqlStateAppendOnly:
		return fmt.Errorf("%w: %s", ErrInvariantViolation, pgErr.Message)
	case sqlStateCheckViolation:
		switch pgErr.ConstraintName {
		case constraintBalanceNonNegative:
			return fmt.Errorf("%w: %s", service.ErrInsufficientFunds, pgErr.Message)
		case constraintPotNonNegative:
			return fmt.Errorf("%w: %s", ErrInvariantViolation, pgErr.Message)
		}
	}
	return err
}
