package models

import (
	"time"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeStartingBalance TransactionType = "starting_balance"
	TransactionTypeDeposit         TransactionType = "deposit"
	TransactionTypeStake           TransactionType = "stake"
	TransactionTypePotAward        TransactionType = "pot_award"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID                  int64           `db:"id" json:"id"`
	UserUID             string          `db:"user_uid" json:"userUid"`
	BalanceBefore       int64           `db:"balance_before" json:"balanceBefore"`
	BalanceAfter        int64           `db:"balance_after" json:"balanceAfter"`
	ChangeAmount        int64           `db:"change_amount" json:"changeAmount"`
	TransactionType     TransactionType `db:"transaction_type" json:"transactionType"`
	TransactionMetadata map[string]any  `db:"transaction_metadata" json:"transactionMetadata,omitempty"`
	RelatedLobbyID      *string         `db:"related_lobby_id" json:"relatedLobbyId,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"createdAt"`
}
