package service

import (
	"context"

	"bingohub/events"
	"bingohub/models"
)

// UserRepository defines the interface for account data access
type UserRepository interface {
	// GetByUID retrieves an account, returning nil when it does not exist
	GetByUID(ctx context.Context, uid string) (*models.UserAccount, error)

	// CreateIfMissing inserts the account unless one already exists and
	// returns the stored row together with whether it was created
	CreateIfMissing(ctx context.Context, account *models.UserAccount) (*models.UserAccount, bool, error)

	// UpdateProfile refreshes the identity-provider fields of an account
	UpdateProfile(ctx context.Context, uid, displayName, email, photoURL string) error

	// AddBalance increments the balance without reading it first and returns the new balance
	AddBalance(ctx context.Context, uid string, amount int64) (int64, error)

	// DeductBalance decrements the balance only if it covers amount and returns the new balance
	DeductBalance(ctx context.Context, uid string, amount int64) (int64, error)
}

// LobbyRepository defines the interface for lobby data access
type LobbyRepository interface {
	// Create inserts a new lobby row; players are added with AddPlayer
	Create(ctx context.Context, lobby *models.Lobby) error

	// GetByID retrieves a lobby with its players, returning nil when absent
	GetByID(ctx context.Context, id string) (*models.Lobby, error)

	// GetByIDForUpdate is GetByID with the lobby row locked for the transaction
	GetByIDForUpdate(ctx context.Context, id string) (*models.Lobby, error)

	// GetSummaryForUpdate locks the lobby row and returns it without players
	GetSummaryForUpdate(ctx context.Context, id string) (*models.Lobby, error)

	// HasPlayer reports whether uid is seated in the lobby
	HasPlayer(ctx context.Context, lobbyID, uid string) (bool, error)

	// CountPlayers returns the number of seated players
	CountPlayers(ctx context.Context, lobbyID string) (int, error)

	// AddPlayer sets one participant entry, returning false if the participant already exists
	AddPlayer(ctx context.Context, lobbyID string, player *models.Player) (bool, error)

	// AppendCalledNumber appends number to the called numbers and returns the new sequence
	AppendCalledNumber(ctx context.Context, lobbyID string, number int) ([]int, error)

	// Finish moves a waiting lobby to finished with its winner and pot
	Finish(ctx context.Context, lobbyID, winnerUID string, pot int64) error

	// ListByStatus returns lobbies in the given status, newest first
	ListByStatus(ctx context.Context, status models.LobbyStatus, limit int) ([]*models.Lobby, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns balance history for an account, newest first
	GetByUser(ctx context.Context, uid string, limit int) ([]*models.BalanceHistory, error)
}

// EventPublisher accepts domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher holds events until the owning transaction finishes
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}

// IsolationLevel selects how a unit of work isolates itself from concurrent ones
type IsolationLevel int

const (
	// IsolationSerializable is used for read-validate-write ledger operations
	IsolationSerializable IsolationLevel = iota
	// IsolationReadCommitted is enough for commutative increments and plain reads
	IsolationReadCommitted
)

// UnitOfWork groups repository calls into one transaction
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() UserRepository
	LobbyRepository() LobbyRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	// Create returns a serializable unit of work
	Create() UnitOfWork
	// CreateWithIsolation returns a unit of work at the given isolation level
	CreateWithIsolation(level IsolationLevel) UnitOfWork
}

// ChangeFeed notifies about committed changes whose subject matches a pattern
type ChangeFeed interface {
	Subscribe(pattern string, handler func(events.Event)) (unsubscribe func(), err error)
}

// LobbyLocker is a short-lived mutual exclusion keyed by name
type LobbyLocker interface {
	Acquire(ctx context.Context, key string) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

// Randomizer produces boards and number draws
type Randomizer interface {
	Board() models.Board
	Draw(called []int) (int, error)
}

// Metrics receives ledger counters
type Metrics interface {
	LobbyCreated(ctx context.Context, stake int64)
	PlayerJoined(ctx context.Context)
	NumberCalled(ctx context.Context)
	WinClaimed(ctx context.Context, pot int64)
	BalanceTransaction(ctx context.Context, transactionType models.TransactionType, amount int64)
	TransactionRetried(ctx context.Context, operation string)
}

// UserService defines account operations
type UserService interface {
	// EnsureAccount returns the caller's account, creating it with the starting balance on first use
	EnsureAccount(ctx context.Context, identity Identity) (*models.UserAccount, error)

	// GetAccount returns the caller's account without creating it
	GetAccount(ctx context.Context, identity Identity) (*models.UserAccount, error)

	// Deposit adds coins to the caller's balance
	Deposit(ctx context.Context, identity Identity, amount int64) (*models.UserAccount, error)

	// GetBalanceHistory returns the caller's most recent balance changes
	GetBalanceHistory(ctx context.Context, identity Identity, limit int) ([]*models.BalanceHistory, error)
}

// LobbyService defines the game and stake operations
type LobbyService interface {
	// CreateLobby debits the stake from the host and opens a lobby with the host seated
	CreateLobby(ctx context.Context, identity Identity, stake int64) (*models.Lobby, error)

	// JoinLobby debits the stake and seats the caller; rejoining is a no-op
	JoinLobby(ctx context.Context, identity Identity, lobbyID string) (*models.Lobby, error)

	// CallNext draws one uncalled number; only the host may call
	CallNext(ctx context.Context, identity Identity, lobbyID string) (*models.Lobby, error)

	// ClaimWin validates the caller's board and pays the pot
	ClaimWin(ctx context.Context, identity Identity, lobbyID string) (*models.ClaimResult, error)

	// GetLobby returns a lobby snapshot
	GetLobby(ctx context.Context, lobbyID string) (*models.Lobby, error)

	// ListWaitingLobbies returns open lobbies, newest first
	ListWaitingLobbies(ctx context.Context) ([]*models.Lobby, error)
}

// WatchService opens snapshot subscriptions
type WatchService interface {
	WatchLobby(ctx context.Context, lobbyID string) (*Subscription[*models.Lobby], error)
	WatchWaitingLobbies(ctx context.Context) (*Subscription[[]*models.Lobby], error)
	WatchAccount(ctx context.Context, identity Identity) (*Subscription[*models.UserAccount], error)
}
