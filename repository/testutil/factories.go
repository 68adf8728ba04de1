package testutil

import (
	"time"

	"bingohub/game"
	"bingohub/models"
)

// CreateTestAccount creates an account with the starting balance
func CreateTestAccount(uid string) *models.UserAccount {
	now := time.Now().UTC()
	return &models.UserAccount{
		UID:         uid,
		DisplayName: "Player " + uid,
		Email:       uid + "@example.com",
		Balance:     1000,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CreateTestAccountWithBalance creates an account with a specific balance
func CreateTestAccountWithBalance(uid string, balance int64) *models.UserAccount {
	account := CreateTestAccount(uid)
	account.Balance = balance
	return account
}

// CreateTestLobby creates a waiting lobby without players
func CreateTestLobby(id, hostUID string, stake int64) *models.Lobby {
	return &models.Lobby{
		ID:            id,
		Status:        models.LobbyStatusWaiting,
		HostUID:       hostUID,
		Stake:         stake,
		Players:       map[string]models.Player{},
		CalledNumbers: []int{},
		CreatedAt:     time.Now().UTC(),
	}
}

// CreateTestPlayer creates a player with a board from a seeded shuffle
func CreateTestPlayer(uid string, seed int64) *models.Player {
	return &models.Player{
		UID:         uid,
		DisplayName: "Player " + uid,
		Board:       game.NewSeededGenerator(seed).Board(),
	}
}

// OrderedBoard is 1..25 in row-major order; row 0 wins on {1,2,3,4,5}
func OrderedBoard() models.Board {
	var board models.Board
	for i := range board {
		board[i] = i + 1
	}
	return board
}

// CreateTestBalanceHistory creates a balance history entry
func CreateTestBalanceHistory(uid string, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		UserUID:         uid,
		BalanceBefore:   1000,
		BalanceAfter:    950,
		ChangeAmount:    -50,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
	}
}
