package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"

	"bingohub/models"
)

// Source supplies uniform integers in [0, n). *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// GenerateBoard returns a uniformly shuffled permutation of 1..25 using
// Fisher-Yates over rng.
func GenerateBoard(rng Source) models.Board {
	var board models.Board
	for i := range board {
		board[i] = i + 1
	}
	for i := len(board) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		board[i], board[j] = board[j], board[i]
	}
	return board
}

// Generator makes boards and draws numbers from one random stream.
// It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator wraps an explicit random source
func NewGenerator(src rand.Source) *Generator {
	return &Generator{rng: rand.New(src)}
}

// NewSeededGenerator returns a deterministic generator for tests and replays
func NewSeededGenerator(seed int64) *Generator {
	return NewGenerator(rand.NewSource(seed))
}

// NewCryptoGenerator returns a generator backed by crypto/rand
func NewCryptoGenerator() *Generator {
	return NewGenerator(cryptoSource{})
}

// Intn implements Source
func (g *Generator) Intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(n)
}

// Board generates a new player board
func (g *Generator) Board() models.Board {
	g.mu.Lock()
	defer g.mu.Unlock()
	return GenerateBoard(g.rng)
}

// Draw picks the next number for a lobby that has already called `called`
func (g *Generator) Draw(called []int) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return DrawNumber(g.rng, called)
}

// cryptoSource adapts crypto/rand to math/rand.Source64
type cryptoSource struct{}

func (cryptoSource) Seed(int64) {}

func (s cryptoSource) Int63() int64 {
	return int64(s.Uint64() & (1<<63 - 1))
}

func (cryptoSource) Uint64() uint64 {
	var b [8]byte
	// crypto/rand.Read never returns an error and always fills b
	_, _ = crand.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}
