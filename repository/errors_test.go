package repository

import (
	"errors"
	"fmt"
	"testing"

	"bingohub/service"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	plain := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, want: service.ErrConcurrentModification},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: service.ErrConcurrentModification},
		{name: "wrapped serialization failure", err: fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"}), want: service.ErrConcurrentModification},
		{name: "stake trigger", err: &pgconn.PgError{Code: "BG001"}, want: service.ErrStakeImmutable},
		{name: "append-only trigger", err: &pgconn.PgError{Code: "BG002"}, want: ErrInvariantViolation},
		{name: "negative balance", err: &pgconn.PgError{Code: "23514", ConstraintName: "users_balance_non_negative"}, want: service.ErrInsufficientFunds},
		{name: "negative winning pot", err: &pgconn.PgError{Code: "23514", ConstraintName: "lobbies_winning_pot_non_negative"}, want: ErrInvariantViolation},
		{name: "other check", err: &pgconn.PgError{Code: "23514", ConstraintName: "lobbies_stake_non_negative"}},
		{name: "not a postgres error", err: plain, want: plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := mapError(tt.err)
			if tt.want == nil {
				assert.Same(t, tt.err, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestMapError_OnlyConflictsAreRetryable(t *testing.T) {
	t.Parallel()

	assert.True(t, service.IsRetryable(mapError(&pgconn.PgError{Code: "40001"})))
	assert.False(t, service.IsRetryable(mapError(&pgconn.PgError{Code: "BG001"})))
	assert.False(t, service.IsRetryable(mapError(&pgconn.PgError{Code: "23505"})))
}
