package service

import (
	"context"
	"fmt"
	"time"

	"bingohub/events"
	"bingohub/models"
)

// RecordBalanceChange records a balance history entry and emits the matching
// events. Every balance change goes through here.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	event := events.BalanceChangeEvent{
		UserUID:         history.UserUID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	}
	if history.RelatedLobbyID != nil {
		event.LobbyID = *history.RelatedLobbyID
	}
	if err := uow.EventBus().Publish(event); err != nil {
		return fmt.Errorf("failed to queue balance change event: %w", err)
	}

	if history.TransactionType == models.TransactionTypeStartingBalance {
		displayName, _ := history.TransactionMetadata["display_name"].(string)
		created := events.UserCreatedEvent{
			UserUID:        history.UserUID,
			DisplayName:    displayName,
			InitialBalance: history.BalanceAfter,
		}
		if err := uow.EventBus().Publish(created); err != nil {
			return fmt.Errorf("failed to queue user created event: %w", err)
		}
	}

	return nil
}

// ensureAccount returns the caller's account inside uow, creating it with
// the starting balance when this is the caller's first operation.
func ensureAccount(ctx context.Context, uow UnitOfWork, identity Identity, startingBalance int64) (*models.UserAccount, error) {
	now := time.Now().UTC()
	account, created, err := uow.UserRepository().CreateIfMissing(ctx, &models.UserAccount{
		UID:         identity.UID,
		DisplayName: identity.displayName(),
		Email:       identity.Email,
		PhotoURL:    identity.PhotoURL,
		Balance:     startingBalance,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure account: %w", err)
	}
	if !created {
		return account, nil
	}

	history := &models.BalanceHistory{
		UserUID:         identity.UID,
		BalanceBefore:   0,
		BalanceAfter:    account.Balance,
		ChangeAmount:    account.Balance,
		TransactionType: models.TransactionTypeStartingBalance,
		TransactionMetadata: map[string]any{
			"display_name": account.DisplayName,
		},
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record starting balance: %w", err)
	}
	return account, nil
}
