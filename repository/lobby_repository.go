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

const lobbyColumns = `id, status, host_uid, stake, called_numbers, winner_uid, winning_pot, created_at, finished_at`

// LobbyRepository implements the LobbyRepository interface
type LobbyRepository struct {
	q queryable
}

// NewLobbyRepository creates a new lobby repository
func NewLobbyRepository(db *database.DB) *LobbyRepository {
	return &LobbyRepository{q: db.Pool}
}

// newLobbyRepositoryWithTx creates a new lobby repository with a transaction
func newLobbyRepositoryWithTx(tx queryable) *LobbyRepository {
	return &LobbyRepository{q: tx}
}

// Create inserts the lobby row. Participants, the host included, are added
// with AddPlayer.
func (r *LobbyRepository) Create(ctx context.Context, lobby *models.Lobby) error {
	if lobby.ID == "" {
		return fmt.Errorf("lobby id is required")
	}
	if lobby.Stake < 0 {
		return fmt.Errorf("%w: stake must not be negative, got %d", service.ErrInvalidAmount, lobby.Stake)
	}

	query := `
		INSERT INTO lobbies (id, status, host_uid, stake, called_numbers)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		lobby.ID,
		models.LobbyStatusWaiting,
		lobby.HostUID,
		lobby.Stake,
		toInt32s(lobby.CalledNumbers),
	).Scan(&lobby.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create lobby %s: %w", lobby.ID, mapError(err))
	}
	return nil
}

// GetByID retrieves a lobby and its players
func (r *LobbyRepository) GetByID(ctx context.Context, id string) (*models.Lobby, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate retrieves a lobby and its players, locking the lobby row
// until the transaction ends
func (r *LobbyRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Lobby, error) {
	return r.get(ctx, id, true)
}

// GetSummaryForUpdate locks the lobby row and returns it without players.
// Joins use it so that concurrent joiners queue on the row lock instead of
// reading the whole player set.
func (r *LobbyRepository) GetSummaryForUpdate(ctx context.Context, id string) (*models.Lobby, error) {
	query := `SELECT ` + lobbyColumns + ` FROM lobbies WHERE id = $1 FOR UPDATE`

	lobby, err := scanLobby(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock lobby %s: %w", id, mapError(err))
	}
	lobby.Players = map[string]models.Player{}
	return lobby, nil
}

// HasPlayer reports whether uid is seated in the lobby
func (r *LobbyRepository) HasPlayer(ctx context.Context, lobbyID, uid string) (bool, error) {
	var seated bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM lobby_players WHERE lobby_id = $1 AND user_uid = $2)`,
		lobbyID, uid,
	).Scan(&seated)
	if err != nil {
		return false, fmt.Errorf("failed to check player %s in lobby %s: %w", uid, lobbyID, mapError(err))
	}
	return seated, nil
}

// CountPlayers returns the number of seated players as kept on the lobby row
func (r *LobbyRepository) CountPlayers(ctx context.Context, lobbyID string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT player_count FROM lobbies WHERE id = $1`, lobbyID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, service.ErrLobbyNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count players of lobby %s: %w", lobbyID, mapError(err))
	}
	return count, nil
}

func (r *LobbyRepository) get(ctx context.Context, id string, forUpdate bool) (*models.Lobby, error) {
	query := `SELECT ` + lobbyColumns + ` FROM lobbies WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	lobby, err := scanLobby(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lobby %s: %w", id, mapError(err))
	}

	players, err := r.playersFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	lobby.Players = players[id]
	if lobby.Players == nil {
		lobby.Players = map[string]models.Player{}
	}

	if err := lobby.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return lobby, nil
}

// AddPlayer inserts one participant entry and bumps the lobby's player
// count in the same statement. Existing entries are left alone and reported
// with false, so concurrent joins never overwrite each other. The bump writes
// the lobby row, so a serializable claim or call that read it concurrently
// fails with a serialization error instead of paying a stale pot.
func (r *LobbyRepository) AddPlayer(ctx context.Context, lobbyID string, player *models.Player) (bool, error) {
	if err := player.Validate(); err != nil {
		return false, fmt.Errorf("invalid player: %w", err)
	}

	query := `
		WITH seated AS (
			INSERT INTO lobby_players (lobby_id, user_uid, display_name, board)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (lobby_id, user_uid) DO NOTHING
			RETURNING lobby_id, joined_at
		)
		UPDATE lobbies
		SET player_count = lobbies.player_count + 1
		FROM seated
		WHERE lobbies.id = seated.lobby_id
		RETURNING seated.joined_at
	`

	err := r.q.QueryRow(ctx, query, lobbyID, player.UID, player.DisplayName, player.Board.Slice()).Scan(&player.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to add player %s to lobby %s: %w", player.UID, lobbyID, mapError(err))
	}
	return true, nil
}

// AppendCalledNumber appends number to the lobby's sequence as read by the
// UPDATE itself and returns the resulting sequence
func (r *LobbyRepository) AppendCalledNumber(ctx context.Context, lobbyID string, number int) ([]int, error) {
	if number < 1 || number > models.BoardSize {
		return nil, fmt.Errorf("number %d outside 1..%d", number, models.BoardSize)
	}

	query := `
		UPDATE lobbies
		SET called_numbers = array_append(called_numbers, $2)
		WHERE id = $1
		  AND status = 'waiting'
		  AND NOT ($2 = ANY(called_numbers))
		RETURNING called_numbers
	`

	var called []int32
	err := r.q.QueryRow(ctx, query, lobbyID, int32(number)).Scan(&called)
	if err == nil {
		return toInts(called), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to append number to lobby %s: %w", lobbyID, mapError(err))
	}

	status, err := r.status(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	if status == models.LobbyStatusFinished {
		return nil, service.ErrAlreadyFinished
	}
	// Another caller appended the same number first
	return nil, fmt.Errorf("number %d already called in lobby %s: %w", number, lobbyID, service.ErrConcurrentModification)
}

// Finish moves a waiting lobby to finished. Only one caller can win the
// transition; the rest get ErrAlreadyFinished.
func (r *LobbyRepository) Finish(ctx context.Context, lobbyID, winnerUID string, pot int64) error {
	query := `
		UPDATE lobbies
		SET status = 'finished', winner_uid = $2, winning_pot = $3, finished_at = NOW()
		WHERE id = $1 AND status = 'waiting'
	`

	result, err := r.q.Exec(ctx, query, lobbyID, winnerUID, pot)
	if err != nil {
		return fmt.Errorf("failed to finish lobby %s: %w", lobbyID, mapError(err))
	}
	if result.RowsAffected() == 1 {
		return nil
	}

	if _, err := r.status(ctx, lobbyID); err != nil {
		return err
	}
	return service.ErrAlreadyFinished
}

// ListByStatus returns lobbies in status with their players, newest first
func (r *LobbyRepository) ListByStatus(ctx context.Context, status models.LobbyStatus, limit int) ([]*models.Lobby, error) {
	query := `
		SELECT ` + lobbyColumns + `
		FROM lobbies
		WHERE status = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s lobbies: %w", status, mapError(err))
	}
	defer rows.Close()

	var lobbies []*models.Lobby
	for rows.Next() {
		lobby, err := scanLobby(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lobby: %w", err)
		}
		lobbies = append(lobbies, lobby)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lobbies: %w", mapError(err))
	}
	if len(lobbies) == 0 {
		return []*models.Lobby{}, nil
	}

	ids := make([]string, len(lobbies))
	for i, l := range lobbies {
		ids[i] = l.ID
	}
	players, err := r.playersFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, lobby := range lobbies {
		lobby.Players = players[lobby.ID]
		if lobby.Players == nil {
			lobby.Players = map[string]models.Player{}
		}
		if err := lobby.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
	}
	return lobbies, nil
}

func (r *LobbyRepository) status(ctx context.Context, lobbyID string) (models.LobbyStatus, error) {
	var status models.LobbyStatus
	err := r.q.QueryRow(ctx, `SELECT status FROM lobbies WHERE id = $1`, lobbyID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", service.ErrLobbyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get status of lobby %s: %w", lobbyID, mapError(err))
	}
	return status, nil
}

// playersFor loads the participants of every lobby in ids, keyed by lobby then uid
func (r *LobbyRepository) playersFor(ctx context.Context, ids []string) (map[string]map[string]models.Player, error) {
	query := `
		SELECT lobby_id, user_uid, display_name, board, joined_at
		FROM lobby_players
		WHERE lobby_id = ANY($1)
		ORDER BY joined_at, user_uid
	`

	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get lobby players: %w", mapError(err))
	}
	defer rows.Close()

	players := make(map[string]map[string]models.Player, len(ids))
	for rows.Next() {
		var (
			lobbyID string
			cells   []int32
			player  models.Player
		)
		if err := rows.Scan(&lobbyID, &player.UID, &player.DisplayName, &cells, &player.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lobby player: %w", err)
		}
		board, err := models.BoardFromSlice(cells)
		if err != nil {
			return nil, fmt.Errorf("%w: player %s in lobby %s: %v", ErrMalformedRecord, player.UID, lobbyID, err)
		}
		player.Board = board

		if players[lobbyID] == nil {
			players[lobbyID] = make(map[string]models.Player)
		}
		players[lobbyID][player.UID] = player
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lobby players: %w", mapError(err))
	}
	return players, nil
}

func scanLobby(row pgx.Row) (*models.Lobby, error) {
	var (
		lobby  models.Lobby
		called []int32
	)
	err := row.Scan(
		&lobby.ID,
		&lobby.Status,
		&lobby.HostUID,
		&lobby.Stake,
		&called,
		&lobby.WinnerUID,
		&lobby.WinningPot,
		&lobby.CreatedAt,
		&lobby.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	lobby.CalledNumbers = toInts(called)
	return &lobby, nil
}

func toInts(values []int32) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}

func toInt32s(values []int) []int32 {
	out := make([]int32, len(values))
	for i, v := range values {
		out[i] = int32(v)
	}
	return out
}
