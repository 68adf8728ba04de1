package service

import (
	"context"
	"fmt"

	"bingohub/config"
	"bingohub/models"

	log "github.com/sirupsen/logrus"
)

type userService struct {
	uowFactory      UnitOfWorkFactory
	metrics         Metrics
	startingBalance int64
	retry           retryPolicy
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, metrics Metrics, cfg *config.Config) UserService {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &userService{
		uowFactory:      uowFactory,
		metrics:         metrics,
		startingBalance: cfg.StartingBalance,
		retry:           retryPolicy{maxAttempts: cfg.MaxTxAttempts, backoff: cfg.TxRetryBackoff},
	}
}

func (s *userService) EnsureAccount(ctx context.Context, identity Identity) (*models.UserAccount, error) {
	if err := identity.validate(); err != nil {
		return nil, err
	}

	var account *models.UserAccount
	err := withRetry(ctx, s.retry, s.metrics, "ensure_account", func() error {
		uow := s.uowFactory.CreateWithIsolation(IsolationReadCommitted)
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		acct, err := ensureAccount(ctx, uow, identity, s.startingBalance)
		if err != nil {
			return err
		}

		// Sign-in refreshes the profile the identity provider reports
		if profileChanged(acct, identity) {
			if err := uow.UserRepository().UpdateProfile(ctx, identity.UID, identity.displayName(), identity.Email, identity.PhotoURL); err != nil {
				return fmt.Errorf("failed to update profile: %w", err)
			}
			acct.DisplayName = identity.displayName()
			acct.Email = identity.Email
			acct.PhotoURL = identity.PhotoURL
		}

		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		account = acct
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *userService) GetAccount(ctx context.Context, identity Identity) (*models.UserAccount, error) {
	if err := identity.validate(); err != nil {
		return nil, err
	}

	uow := s.uowFactory.CreateWithIsolation(IsolationReadCommitted)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.UserRepository().GetByUID(ctx, identity.UID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (s *userService) Deposit(ctx context.Context, identity Identity, amount int64) (*models.UserAccount, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: deposit must be positive, got %d", ErrInvalidAmount, amount)
	}
	if err := identity.validate(); err != nil {
		return nil, err
	}

	var account *models.UserAccount
	err := withRetry(ctx, s.retry, s.metrics, "deposit", func() error {
		// The increment applies to the latest row version under read committed
		uow := s.uowFactory.CreateWithIsolation(IsolationReadCommitted)
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		acct, err := ensureAccount(ctx, uow, identity, s.startingBalance)
		if err != nil {
			return err
		}

		newBalance, err := uow.UserRepository().AddBalance(ctx, identity.UID, amount)
		if err != nil {
			return fmt.Errorf("failed to add deposit: %w", err)
		}

		history := &models.BalanceHistory{
			UserUID:         identity.UID,
			BalanceBefore:   newBalance - amount,
			BalanceAfter:    newBalance,
			ChangeAmount:    amount,
			TransactionType: models.TransactionTypeDeposit,
			TransactionMetadata: map[string]any{
				"amount": amount,
			},
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return fmt.Errorf("failed to record deposit: %w", err)
		}

		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}

		acct.Balance = newBalance
		account = acct
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.BalanceTransaction(ctx, models.TransactionTypeDeposit, amount)
	log.WithFields(log.Fields{
		"uid":        identity.UID,
		"amount":     amount,
		"newBalance": account.Balance,
	}).Info("Deposit applied")
	return account, nil
}

func (s *userService) GetBalanceHistory(ctx context.Context, identity Identity, limit int) ([]*models.BalanceHistory, error) {
	if err := identity.validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	uow := s.uowFactory.CreateWithIsolation(IsolationReadCommitted)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	history, err := uow.BalanceHistoryRepository().GetByUser(ctx, identity.UID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history: %w", err)
	}
	return history, nil
}

func profileChanged(account *models.UserAccount, identity Identity) bool {
	return account.DisplayName != identity.displayName() ||
		account.Email != identity.Email ||
		account.PhotoURL != identity.PhotoURL
}
