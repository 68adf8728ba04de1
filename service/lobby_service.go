package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bingohub/config"
	"bingohub/events"
	"bingohub/game"
	"bingohub/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const waitingLobbyListLimit = 100

type lobbyService struct {
	uowFactory      UnitOfWorkFactory
	rng             Randomizer
	locker          LobbyLocker
	metrics         Metrics
	startingBalance int64
	retry           retryPolicy
	newID           func() string
	now             func() time.Time
}

// NewLobbyService creates a new lobby service
func NewLobbyService(uowFactory UnitOfWorkFactory, rng Randomizer, locker LobbyLocker, metrics Metrics, cfg *config.Config) LobbyService {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &lobbyService{
		uowFactory:      uowFactory,
		rng:             rng,
		locker:          locker,
		metrics:         metrics,
		startingBalance: cfg.StartingBalance,
		retry:           retryPolicy{maxAttempts: cfg.MaxTxAttempts, backoff: cfg.TxRetryBackoff},
		newID:           uuid.NewString,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (s *lobbyService) CreateLobby(ctx context.Context, identity Identity, stake int64) (*models.Lobby, error) {
	if err := identity.validate(); err != nil {
		return nil, err
	}
	if stake < 0 {
		return nil, fmt.Errorf("%w: stake must not be negative, got %d", ErrInvalidAmount, stake)
	}

	var lobby *models.Lobby
	err := withRetry(ctx, s.retry, s.metrics, "create_lobby", func() error {
		uow := s.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		account, err := ensureAccount(ctx, uow, identity, s.startingBalance)
		if err != nil {
			return err
		}
		if !account.CanAfford(stake) {
			return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, account.Balance, stake)
		}

		now := s.now()
		host := models.Player{
			UID:         identity.UID,
			DisplayName: identity.displayName(),
			Board:       s.rng.Board(),
			JoinedAt:    now,
		}
		created := &models.Lobby{
			ID:            s.newID(),
			Status:        models.LobbyStatusWaiting,
			HostUID:       identity.UID,
			Stake:         stake,
			Players:       map[string]models.Player{identity.UID: host},
			CalledNumbers: []int{},
			CreatedAt:     now,
		}

		if err := uow.LobbyRepository().Create(ctx, created); err != nil {
			return fmt.Errorf("failed to create lobby: %w", err)
		}
		if _, err := uow.LobbyRepository().AddPlayer(ctx, created.ID, &host); err != nil {
			return fmt.Errorf("failed to seat host: %w", err)
		}
		if err := s.debitStake(ctx, uow, identity.UID, created.ID, stake); err != nil {
			return err
		}

		if err := uow.EventBus().Publish(events.LobbyCreatedEvent{
			LobbyID: created.ID,
			HostUID: created.HostUID,
			Stake:   created.Stake,
		}); err != nil {
			return fmt.Errorf("failed to queue lobby created event: %w", err)
		}

		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		lobby = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.LobbyCreated(ctx, stake)
	s.recordStake(ctx, stake)
	log.WithFields(log.Fields{
		"lobbyID": lobby.ID,
		"host":    lobby.HostUID,
		"stake":   lobby.Stake,
	}).Info("Lobby created")
	return lobby, nil
}

func (s *lobbyService) JoinLobby(ctx context.Context, identity Identity, lobbyID string) (*models.Lobby, error) {
	if err := identity.validate(); err != nil {
		return nil, err
	}
	if lobbyID == "" {
		return nil, ErrLobbyNotFound
	}

	var (
		lobby  *models.Lobby
		joined bool
	)
	err := withRetry(ctx, s.retry, s.metrics, "join_lobby", func() error {
		joined = false

		// Joiners queue on the lobby row lock. Under read committed every
		// statement after the lock sees the seats committed before it.
		uow := s.uowFactory.CreateWithIsolation(IsolationReadCommitted)
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()
		lobbies := uow.LobbyRepository()

		current, err := lobbies.GetSummaryForUpdate(ctx, lobbyID)
		if err != nil {
			return fmt.Errorf("failed to get lobby: %w", err)
		}
		if current == nil {
			return ErrLobbyNotFound
		}
		seated, err := lobbies.HasPlayer(ctx, current.ID, identity.UID)
		if err != nil {
			return fmt.Errorf("failed to check seat: %w", err)
		}
		if seated {
			existing, err := lobbies.GetByID(ctx, current.ID)
			if err != nil {
				return fmt.Errorf("failed to get lobby: %w", err)
			}
			lobby = existing
			return nil
		}
		if current.IsFinished() {
			return ErrAlreadyFinished
		}

		account, err := ensureAccount(ctx, uow, identity, s.startingBalance)
		if err != nil {
			return err
		}
		if !account.CanAfford(current.Stake) {
			return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, account.Balance, current.Stake)
		}

		player := models.Player{
			UID:         identity.UID,
			DisplayName: identity.displayName(),
			Board:       s.rng.Board(),
			JoinedAt:    s.now(),
		}
		added, err := lobbies.AddPlayer(ctx, current.ID, &player)
		if err != nil {
			return fmt.Errorf("failed to add player: %w", err)
		}
		if !added {
			// Seated by a concurrent request between our read and write
			return ErrConcurrentModification
		}
		count, err := lobbies.CountPlayers(ctx, current.ID)
		if err != nil {
			return fmt.Errorf("failed to count players: %w", err)
		}
		if _, err := models.PotFor(current.Stake, count); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		if err := s.debitStake(ctx, uow, identity.UID, current.ID, current.Stake); err != nil {
			return err
		}

		if err := uow.EventBus().Publish(events.PlayerJoinedEvent{
			LobbyID:     current.ID,
			UserUID:     identity.UID,
			PlayerCount: count,
		}); err != nil {
			return fmt.Errorf("failed to queue player joined event: %w", err)
		}

		updated, err := lobbies.GetByID(ctx, current.ID)
		if err != nil {
			return fmt.Errorf("failed to reload lobby: %w", err)
		}
		if updated == nil {
			return ErrLobbyNotFound
		}

		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		lobby = updated
		joined = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if joined {
		s.metrics.PlayerJoined(ctx)
		s.recordStake(ctx, lobby.Stake)
		log.WithFields(log.Fields{
			"lobbyID":     lobby.ID,
			"uid":         identity.UID,
			"playerCount": lobby.PlayerCount(),
		}).Info("Player joined lobby")
	} else {
		log.WithFields(log.Fields{
			"lobbyID": lobby.ID,
			"uid":     identity.UID,
		}).Debug("Player rejoined lobby")
	}
	return lobby, nil
}

func (s *lobbyService) CallNext(ctx context.Context, identity Identity, lobbyID string) (*models.Lobby, error) {
	if err := identity.validate(); err != nil {
		return nil, err
	}
	if lobbyID == "" {
		return nil, ErrLobbyNotFound
	}

	// Callers who could never call are turned away before the caller lock
	precheck, err := s.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	if !precheck.IsHost(identity.UID) {
		return nil, ErrNotHost
	}
	if precheck.IsFinished() {
		return nil, ErrAlreadyFinished
	}

	var (
		lobby  *models.Lobby
		number int
	)
	err = withRetry(ctx, s.retry, s.metrics, "call_next", func() error {
		lockKey := callerLockKey(lobbyID)
		token, ok, err := s.locker.Acquire(ctx, lockKey)
		if err != nil {
			return fmt.Errorf("failed to acquire caller lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: another call is in progress", ErrConcurrentModification)
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), lockKey, token); err != nil {
				log.WithFields(log.Fields{
					"lobbyID": lobbyID,
					"error":   err,
				}).Warn("Failed to release caller lock")
			}
		}()

		uow := s.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		current, err := uow.LobbyRepository().GetByIDForUpdate(ctx, lobbyID)
		if err != nil {
			return fmt.Errorf("failed to get lobby: %w", err)
		}
		if current == nil {
			return ErrLobbyNotFound
		}
		if !current.IsHost(identity.UID) {
			return ErrNotHost
		}
		if current.IsFinished() {
			return ErrAlreadyFinished
		}

		n, err := s.rng.Draw(current.CalledNumbers)
		if err != nil {
			return err
		}
		called, err := uow.LobbyRepository().AppendCalledNumber(ctx, current.ID, n)
		if err != nil {
			return fmt.Errorf("failed to append called number: %w", err)
		}
		current.CalledNumbers = called

		if err := uow.EventBus().Publish(events.NumberCalledEvent{
			LobbyID:     current.ID,
			Number:      n,
			CalledCount: len(called),
		}); err != nil {
			return fmt.Errorf("failed to queue number called event: %w", err)
		}

		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		lobby = current
		number = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.NumberCalled(ctx)
	log.WithFields(log.Fields{
		"lobbyID":     lobby.ID,
		"number":      number,
		"calledCount": len(lobby.CalledNumbers),
	}).Info("Number called")
	return lobby, nil
}

func (s *lobbyService) ClaimWin(ctx context.Context, identity Identity, lobbyID string) (*models.ClaimResult, error) {
	if err := identity.validate(); err != nil {
		return nil, err
	}
	if lobbyID == "" {
		return nil, ErrLobbyNotFound
	}

	var result *models.ClaimResult
	err := withRetry(ctx, s.retry, s.metrics, "claim_win", func() error {
		uow := s.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		current, err := uow.LobbyRepository().GetByIDForUpdate(ctx, lobbyID)
		if err != nil {
			return fmt.Errorf("failed to get lobby: %w", err)
		}
		if current == nil {
			return ErrLobbyNotFound
		}
		if current.IsFinished() {
			return ErrAlreadyFinished
		}
		player, ok := current.Players[identity.UID]
		if !ok {
			return ErrNotAPlayer
		}
		if !game.HasWin(player.Board, current.CalledNumbers) {
			return ErrNoWinningLine
		}

		pot, err := models.PotFor(current.Stake, current.PlayerCount())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		if err := uow.LobbyRepository().Finish(ctx, current.ID, identity.UID, pot); err != nil {
			return fmt.Errorf("failed to finish lobby: %w", err)
		}

		newBalance, err := s.awardPot(ctx, uow, identity.UID, current.ID, pot)
		if err != nil {
			return err
		}

		finishedAt := s.now()
		winner := identity.UID
		current.Status = models.LobbyStatusFinished
		current.WinnerUID = &winner
		current.WinningPot = &pot
		current.FinishedAt = &finishedAt

		if err := uow.EventBus().Publish(events.LobbyFinishedEvent{
			LobbyID:    current.ID,
			WinnerUID:  winner,
			WinningPot: pot,
		}); err != nil {
			return fmt.Errorf("failed to queue lobby finished event: %w", err)
		}

		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}

		lines := game.WinningLines(player.Board, current.CalledNumbers)
		names := make([]string, len(lines))
		for i, l := range lines {
			names[i] = l.String()
		}
		result = &models.ClaimResult{
			Lobby:        current,
			Pot:          pot,
			NewBalance:   newBalance,
			WinningLines: names,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.WinClaimed(ctx, result.Pot)
	if result.Pot > 0 {
		s.metrics.BalanceTransaction(ctx, models.TransactionTypePotAward, result.Pot)
	}
	log.WithFields(log.Fields{
		"lobbyID": result.Lobby.ID,
		"winner":  identity.UID,
		"pot":     result.Pot,
		"lines":   result.WinningLines,
	}).Info("Win claimed")
	return result, nil
}

func (s *lobbyService) GetLobby(ctx context.Context, lobbyID string) (*models.Lobby, error) {
	if lobbyID == "" {
		return nil, ErrLobbyNotFound
	}

	uow := s.uowFactory.CreateWithIsolation(IsolationReadCommitted)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	lobby, err := uow.LobbyRepository().GetByID(ctx, lobbyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lobby: %w", err)
	}
	if lobby == nil {
		return nil, ErrLobbyNotFound
	}
	return lobby, nil
}

func (s *lobbyService) ListWaitingLobbies(ctx context.Context) ([]*models.Lobby, error) {
	uow := s.uowFactory.CreateWithIsolation(IsolationReadCommitted)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	lobbies, err := uow.LobbyRepository().ListByStatus(ctx, models.LobbyStatusWaiting, waitingLobbyListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting lobbies: %w", err)
	}
	return lobbies, nil
}

// debitStake takes stake from uid for lobbyID; a zero stake changes nothing
func (s *lobbyService) debitStake(ctx context.Context, uow UnitOfWork, uid, lobbyID string, stake int64) error {
	if stake == 0 {
		return nil
	}

	newBalance, err := uow.UserRepository().DeductBalance(ctx, uid, stake)
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return err
		}
		return fmt.Errorf("failed to deduct stake: %w", err)
	}

	related := lobbyID
	history := &models.BalanceHistory{
		UserUID:         uid,
		BalanceBefore:   newBalance + stake,
		BalanceAfter:    newBalance,
		ChangeAmount:    -stake,
		TransactionType: models.TransactionTypeStake,
		TransactionMetadata: map[string]any{
			"lobby_id": lobbyID,
			"stake":    stake,
		},
		RelatedLobbyID: &related,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return fmt.Errorf("failed to record stake: %w", err)
	}
	return nil
}

// awardPot credits pot to the winner and returns the resulting balance
func (s *lobbyService) awardPot(ctx context.Context, uow UnitOfWork, uid, lobbyID string, pot int64) (int64, error) {
	if pot == 0 {
		account, err := uow.UserRepository().GetByUID(ctx, uid)
		if err != nil {
			return 0, fmt.Errorf("failed to get winner account: %w", err)
		}
		if account == nil {
			return 0, ErrAccountNotFound
		}
		return account.Balance, nil
	}

	newBalance, err := uow.UserRepository().AddBalance(ctx, uid, pot)
	if err != nil {
		return 0, fmt.Errorf("failed to award pot: %w", err)
	}

	related := lobbyID
	history := &models.BalanceHistory{
		UserUID:         uid,
		BalanceBefore:   newBalance - pot,
		BalanceAfter:    newBalance,
		ChangeAmount:    pot,
		TransactionType: models.TransactionTypePotAward,
		TransactionMetadata: map[string]any{
			"lobby_id": lobbyID,
			"pot":      pot,
		},
		RelatedLobbyID: &related,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return 0, fmt.Errorf("failed to record pot award: %w", err)
	}
	return newBalance, nil
}

func (s *lobbyService) recordStake(ctx context.Context, stake int64) {
	if stake > 0 {
		s.metrics.BalanceTransaction(ctx, models.TransactionTypeStake, stake)
	}
}

func callerLockKey(lobbyID string) string {
	return "bingo:lobby:" + lobbyID + ":caller"
}
