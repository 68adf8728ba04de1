package service

import (
	"context"
	"sync"

	"bingohub/events"
	"bingohub/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByUID(ctx context.Context, uid string) (*models.UserAccount, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAccount), args.Error(1)
}

func (m *MockUserRepository) CreateIfMissing(ctx context.Context, account *models.UserAccount) (*models.UserAccount, bool, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.UserAccount), args.Bool(1), args.Error(2)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, uid, displayName, email, photoURL string) error {
	args := m.Called(ctx, uid, displayName, email, photoURL)
	return args.Error(0)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, uid string, amount int64) (int64, error) {
	args := m.Called(ctx, uid, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, uid string, amount int64) (int64, error) {
	args := m.Called(ctx, uid, amount)
	return args.Get(0).(int64), args.Error(1)
}

// MockLobbyRepository is a mock implementation of LobbyRepository
type MockLobbyRepository struct {
	mock.Mock
}

func (m *MockLobbyRepository) Create(ctx context.Context, lobby *models.Lobby) error {
	args := m.Called(ctx, lobby)
	return args.Error(0)
}

func (m *MockLobbyRepository) GetByID(ctx context.Context, id string) (*models.Lobby, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lobby), args.Error(1)
}

func (m *MockLobbyRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Lobby, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lobby), args.Error(1)
}

func (m *MockLobbyRepository) GetSummaryForUpdate(ctx context.Context, id string) (*models.Lobby, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lobby), args.Error(1)
}

func (m *MockLobbyRepository) HasPlayer(ctx context.Context, lobbyID, uid string) (bool, error) {
	args := m.Called(ctx, lobbyID, uid)
	return args.Bool(0), args.Error(1)
}

func (m *MockLobbyRepository) CountPlayers(ctx context.Context, lobbyID string) (int, error) {
	args := m.Called(ctx, lobbyID)
	return args.Int(0), args.Error(1)
}

func (m *MockLobbyRepository) AddPlayer(ctx context.Context, lobbyID string, player *models.Player) (bool, error) {
	args := m.Called(ctx, lobbyID, player)
	return args.Bool(0), args.Error(1)
}

func (m *MockLobbyRepository) AppendCalledNumber(ctx context.Context, lobbyID string, number int) ([]int, error) {
	args := m.Called(ctx, lobbyID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockLobbyRepository) Finish(ctx context.Context, lobbyID, winnerUID string, pot int64) error {
	args := m.Called(ctx, lobbyID, winnerUID, pot)
	return args.Error(0)
}

func (m *MockLobbyRepository) ListByStatus(ctx context.Context, status models.LobbyStatus, limit int) ([]*models.Lobby, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Lobby), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, uid string, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, uid, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

// MockEventPublisher records every published event. Expectations are
// optional; when none are set Publish succeeds.
type MockEventPublisher struct {
	mock.Mock

	mu        sync.Mutex
	published []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	m.mu.Lock()
	m.published = append(m.published, event)
	m.mu.Unlock()

	if len(m.ExpectedCalls) == 0 {
		return nil
	}
	args := m.Called(event)
	return args.Error(0)
}

// Published returns the events seen so far
func (m *MockEventPublisher) Published() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.Event(nil), m.published...)
}

// PublishedTypes returns the types of the events seen so far, in order
func (m *MockEventPublisher) PublishedTypes() []events.EventType {
	published := m.Published()
	types := make([]events.EventType, len(published))
	for i, e := range published {
		types[i] = e.Type()
	}
	return types
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// plain fields so tests only set expectations on the calls they care about.
type MockUnitOfWork struct {
	mock.Mock

	userRepo           UserRepository
	lobbyRepo          LobbyRepository
	balanceHistoryRepo BalanceHistoryRepository
	eventBus           *MockEventPublisher
}

// SetRepositories sets the repositories handed out by the unit of work
func (m *MockUnitOfWork) SetRepositories(userRepo UserRepository, lobbyRepo LobbyRepository, balanceHistoryRepo BalanceHistoryRepository) {
	m.userRepo = userRepo
	m.lobbyRepo = lobbyRepo
	m.balanceHistoryRepo = balanceHistoryRepo
}

// Events returns the publisher behind EventBus
func (m *MockUnitOfWork) Events() *MockEventPublisher {
	if m.eventBus == nil {
		m.eventBus = new(MockEventPublisher)
	}
	return m.eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) LobbyRepository() LobbyRepository {
	return m.lobbyRepo
}

func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return m.balanceHistoryRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.Events()
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

func (m *MockUnitOfWorkFactory) CreateWithIsolation(level IsolationLevel) UnitOfWork {
	args := m.Called(level)
	return args.Get(0).(UnitOfWork)
}

// MockLobbyLocker is a mock implementation of LobbyLocker
type MockLobbyLocker struct {
	mock.Mock
}

func (m *MockLobbyLocker) Acquire(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockLobbyLocker) Release(ctx context.Context, key, token string) error {
	args := m.Called(ctx, key, token)
	return args.Error(0)
}

// MockRandomizer is a mock implementation of Randomizer
type MockRandomizer struct {
	mock.Mock
}

func (m *MockRandomizer) Board() models.Board {
	args := m.Called()
	return args.Get(0).(models.Board)
}

func (m *MockRandomizer) Draw(called []int) (int, error) {
	args := m.Called(called)
	return args.Int(0), args.Error(1)
}

// MockChangeFeed is a mock implementation of ChangeFeed that keeps the
// registered handlers so tests can fire notifications by hand
type MockChangeFeed struct {
	mock.Mock

	mu       sync.Mutex
	handlers map[string]func(events.Event)
}

func (m *MockChangeFeed) Subscribe(pattern string, handler func(events.Event)) (func(), error) {
	args := m.Called(pattern)
	if err := args.Error(1); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.handlers == nil {
		m.handlers = make(map[string]func(events.Event))
	}
	m.handlers[pattern] = handler
	m.mu.Unlock()

	unsubscribe, _ := args.Get(0).(func())
	return func() {
		m.mu.Lock()
		delete(m.handlers, pattern)
		m.mu.Unlock()
		if unsubscribe != nil {
			unsubscribe()
		}
	}, nil
}

// Fire delivers event to the handler registered for pattern, if any, and
// reports whether one was registered
func (m *MockChangeFeed) Fire(pattern string, event events.Event) bool {
	m.mu.Lock()
	handler, ok := m.handlers[pattern]
	m.mu.Unlock()
	if ok {
		handler(event)
	}
	return ok
}

// MockLobbyService is a mock implementation of LobbyService
type MockLobbyService struct {
	mock.Mock
}

func (m *MockLobbyService) CreateLobby(ctx context.Context, identity Identity, stake int64) (*models.Lobby, error) {
	args := m.Called(ctx, identity, stake)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lobby), args.Error(1)
}

func (m *MockLobbyService) JoinLobby(ctx context.Context, identity Identity, lobbyID string) (*models.Lobby, error) {
	args := m.Called(ctx, identity, lobbyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lobby), args.Error(1)
}

func (m *MockLobbyService) CallNext(ctx context.Context, identity Identity, lobbyID string) (*models.Lobby, error) {
	args := m.Called(ctx, identity, lobbyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lobby), args.Error(1)
}

func (m *MockLobbyService) ClaimWin(ctx context.Context, identity Identity, lobbyID string) (*models.ClaimResult, error) {
	args := m.Called(ctx, identity, lobbyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClaimResult), args.Error(1)
}

func (m *MockLobbyService) GetLobby(ctx context.Context, lobbyID string) (*models.Lobby, error) {
	args := m.Called(ctx, lobbyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lobby), args.Error(1)
}

func (m *MockLobbyService) ListWaitingLobbies(ctx context.Context) ([]*models.Lobby, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Lobby), args.Error(1)
}

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) EnsureAccount(ctx context.Context, identity Identity) (*models.UserAccount, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAccount), args.Error(1)
}

func (m *MockUserService) GetAccount(ctx context.Context, identity Identity) (*models.UserAccount, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAccount), args.Error(1)
}

func (m *MockUserService) Deposit(ctx context.Context, identity Identity, amount int64) (*models.UserAccount, error) {
	args := m.Called(ctx, identity, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAccount), args.Error(1)
}

func (m *MockUserService) GetBalanceHistory(ctx context.Context, identity Identity, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, identity, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}
