package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrPotOverflow is returned when stake times players does not fit in an int64
var ErrPotOverflow = errors.New("pot overflows")

// BoardSize is the number of cells on a card; cells hold the values 1..BoardSize
const BoardSize = 25

// Board is a 5x5 card stored in row-major order
type Board [BoardSize]int

// LobbyStatus represents where a lobby is in its single round
type LobbyStatus string

const (
	LobbyStatusWaiting  LobbyStatus = "waiting"
	LobbyStatusFinished LobbyStatus = "finished"
)

// Lobby is one round of bingo shared by its players
type Lobby struct {
	ID            string            `db:"id" json:"id"`
	Status        LobbyStatus       `db:"status" json:"status"`
	HostUID       string            `db:"host_uid" json:"hostUid"`
	Stake         int64             `db:"stake" json:"stake"`
	Players       map[string]Player `db:"-" json:"players"`
	CalledNumbers []int             `db:"called_numbers" json:"calledNumbers"`
	WinnerUID     *string           `db:"winner_uid" json:"winnerUid,omitempty"`
	WinningPot    *int64            `db:"winning_pot" json:"winningPot,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"createdAt"`
	FinishedAt    *time.Time        `db:"finished_at" json:"finishedAt,omitempty"`
}

// Player is a participant's entry in a lobby
type Player struct {
	UID         string    `db:"user_uid" json:"uid"`
	DisplayName string    `db:"display_name" json:"displayName"`
	Board       Board     `db:"board" json:"board"`
	JoinedAt    time.Time `db:"joined_at" json:"joinedAt"`
}

// IsWaiting returns true while numbers can still be called and claimed
func (l *Lobby) IsWaiting() bool {
	return l.Status == LobbyStatusWaiting
}

// IsFinished returns true once a winner has been paid
func (l *Lobby) IsFinished() bool {
	return l.Status == LobbyStatusFinished
}

// IsHost reports whether uid may call numbers
func (l *Lobby) IsHost(uid string) bool {
	return l.HostUID == uid
}

// HasPlayer reports whether uid already holds a board in this lobby
func (l *Lobby) HasPlayer(uid string) bool {
	_, ok := l.Players[uid]
	return ok
}

// PlayerCount returns the number of participants
func (l *Lobby) PlayerCount() int {
	return len(l.Players)
}

// Pot is the amount paid to the winner: stake times participants. Stored
// lobbies always pass Validate, so their pot fits; use PotFor before seating.
func (l *Lobby) Pot() int64 {
	return l.Stake * int64(len(l.Players))
}

// PotFor returns stake times players, or ErrPotOverflow when the product
// does not fit in an int64
func PotFor(stake int64, players int) (int64, error) {
	if stake < 0 || players < 0 {
		return 0, fmt.Errorf("pot of %d players at stake %d: negative input", players, stake)
	}
	if stake > 0 && int64(players) > math.MaxInt64/stake {
		return 0, fmt.Errorf("%w: %d players at stake %d", ErrPotOverflow, players, stake)
	}
	return stake * int64(players), nil
}

// PlayerUIDs returns participant ids in a stable order
func (l *Lobby) PlayerUIDs() []string {
	uids := make([]string, 0, len(l.Players))
	for uid := range l.Players {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}

// Validate checks every invariant a stored lobby must satisfy
func (l *Lobby) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("lobby id is empty")
	}
	switch l.Status {
	case LobbyStatusWaiting, LobbyStatusFinished:
	default:
		return fmt.Errorf("lobby %s has unknown status %q", l.ID, l.Status)
	}
	if err := ValidateUID(l.HostUID); err != nil {
		return fmt.Errorf("lobby %s host: %w", l.ID, err)
	}
	if l.Stake < 0 {
		return fmt.Errorf("lobby %s has negative stake %d", l.ID, l.Stake)
	}
	if _, err := PotFor(l.Stake, len(l.Players)); err != nil {
		return fmt.Errorf("lobby %s: %w", l.ID, err)
	}
	if err := validateCalledNumbers(l.CalledNumbers); err != nil {
		return fmt.Errorf("lobby %s: %w", l.ID, err)
	}
	if l.IsFinished() != (l.WinnerUID != nil) {
		return fmt.Errorf("lobby %s: winner must be set exactly when finished", l.ID)
	}
	if l.IsFinished() != (l.WinningPot != nil) {
		return fmt.Errorf("lobby %s: winning pot must be set exactly when finished", l.ID)
	}
	for uid, player := range l.Players {
		if uid != player.UID {
			return fmt.Errorf("lobby %s: player keyed %q carries uid %q", l.ID, uid, player.UID)
		}
		if err := player.Validate(); err != nil {
			return fmt.Errorf("lobby %s: %w", l.ID, err)
		}
	}
	return nil
}

// Validate checks the player's uid and board
func (p *Player) Validate() error {
	if err := ValidateUID(p.UID); err != nil {
		return fmt.Errorf("player: %w", err)
	}
	if err := p.Board.Validate(); err != nil {
		return fmt.Errorf("player %s: %w", p.UID, err)
	}
	return nil
}

// Validate checks that the board is a permutation of 1..BoardSize
func (b Board) Validate() error {
	var seen [BoardSize + 1]bool
	for i, n := range b {
		if n < 1 || n > BoardSize {
			return fmt.Errorf("board cell %d holds %d, outside 1..%d", i, n, BoardSize)
		}
		if seen[n] {
			return fmt.Errorf("board holds %d more than once", n)
		}
		seen[n] = true
	}
	return nil
}

// BoardFromSlice converts a stored cell list into a validated Board
func BoardFromSlice(cells []int32) (Board, error) {
	var board Board
	if len(cells) != BoardSize {
		return board, fmt.Errorf("board has %d cells, want %d", len(cells), BoardSize)
	}
	for i, n := range cells {
		board[i] = int(n)
	}
	if err := board.Validate(); err != nil {
		return Board{}, err
	}
	return board, nil
}

// Slice returns the cells as a slice suitable for an INTEGER[] column
func (b Board) Slice() []int32 {
	cells := make([]int32, BoardSize)
	for i, n := range b {
		cells[i] = int32(n)
	}
	return cells
}

func validateCalledNumbers(called []int) error {
	var seen [BoardSize + 1]bool
	for _, n := range called {
		if n < 1 || n > BoardSize {
			return fmt.Errorf("called number %d outside 1..%d", n, BoardSize)
		}
		if seen[n] {
			return fmt.Errorf("number %d called more than once", n)
		}
		seen[n] = true
	}
	return nil
}
