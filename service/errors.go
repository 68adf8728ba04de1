package service

import (
	"errors"

	"bingohub/game"
)

var (
	ErrNotAuthenticated       = errors.New("not authenticated")
	ErrLobbyNotFound          = errors.New("lobby not found")
	ErrNotAPlayer             = errors.New("not a player in this lobby")
	ErrAlreadyFinished        = errors.New("game is already finished")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrExhaustedPool          = game.ErrExhaustedPool
	ErrNoWinningLine          = errors.New("no winning line on board")
	ErrNotHost                = errors.New("only the host can call numbers")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrStakeImmutable         = errors.New("lobby stake cannot be changed")
	ErrAccountNotFound        = errors.New("account not found")
	ErrSubscriptionClosed     = errors.New("subscription closed")
)

// IsRetryable reports whether err may succeed if the operation is run again
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
