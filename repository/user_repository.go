package repository

import (
	"context"
	"errors"
	"fmt"

	"bingohub/database"
	"bingohub/models"
	"bingohub/service"

	"github.com/jackc/pgx/v5"
)

const userColumns = `uid, display_name, email, photo_url, balance, created_at, updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByUID retrieves an account by its identity provider subject id
func (r *UserRepository) GetByUID(ctx context.Context, uid string) (*models.UserAccount, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", uid, mapError(err))
	}
	return account, nil
}

// CreateIfMissing inserts the account unless the uid already exists. The
// stored row is returned either way, with created reporting which happened.
func (r *UserRepository) CreateIfMissing(ctx context.Context, account *models.UserAccount) (*models.UserAccount, bool, error) {
	if err := account.Validate(); err != nil {
		return nil, false, fmt.Errorf("invalid account: %w", err)
	}

	query := `
		INSERT INTO users (uid, display_name, email, photo_url, balance)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (uid) DO NOTHING
		RETURNING ` + userColumns

	created, err := scanAccount(r.q.QueryRow(ctx, query,
		account.UID,
		account.DisplayName,
		account.Email,
		account.PhotoURL,
		account.Balance,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to create account %s: %w", account.UID, mapError(err))
	}

	existing, err := r.GetByUID(ctx, account.UID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		// Conflicting row is not visible to this snapshot
		return nil, false, fmt.Errorf("account %s: %w", account.UID, service.ErrConcurrentModification)
	}
	return existing, false, nil
}

// UpdateProfile refreshes the identity provider fields
func (r *UserRepository) UpdateProfile(ctx context.Context, uid, displayName, email, photoURL string) error {
	query := `
		UPDATE users
		SET display_name = $2, email = $3, photo_url = $4, updated_at = NOW()
		WHERE uid = $1
	`

	result, err := r.q.Exec(ctx, query, uid, displayName, email, photoURL)
	if err != nil {
		return fmt.Errorf("failed to update profile for %s: %w", uid, mapError(err))
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %s: %w", uid, service.ErrAccountNotFound)
	}
	return nil
}

// AddBalance increments the balance in place and returns the new balance
func (r *UserRepository) AddBalance(ctx context.Context, uid string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: must be positive, got %d", service.ErrInvalidAmount, amount)
	}

	query := `
		UPDATE users
		SET balance = balance + $2, updated_at = NOW()
		WHERE uid = $1
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, uid, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("account %s: %w", uid, service.ErrAccountNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add balance for %s: %w", uid, mapError(err))
	}
	return balance, nil
}

// DeductBalance decrements the balance only when it covers amount
func (r *UserRepository) DeductBalance(ctx context.Context, uid string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: must be positive, got %d", service.ErrInvalidAmount, amount)
	}

	query := `
		UPDATE users
		SET balance = balance - $2, updated_at = NOW()
		WHERE uid = $1 AND balance >= $2
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, uid, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to deduct balance for %s: %w", uid, mapError(err))
	}

	// Check if the account exists or has insufficient balance
	account, err := r.GetByUID(ctx, uid)
	if err != nil {
		return 0, fmt.Errorf("failed to check account: %w", err)
	}
	if account == nil {
		return 0, fmt.Errorf("account %s: %w", uid, service.ErrAccountNotFound)
	}
	return 0, fmt.Errorf("%w: have %d, need %d", service.ErrInsufficientFunds, account.Balance, amount)
}

func scanAccount(row pgx.Row) (*models.UserAccount, error) {
	var account models.UserAccount
	err := row.Scan(
		&account.UID,
		&account.DisplayName,
		&account.Email,
		&account.PhotoURL,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := account.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return &account, nil
}
