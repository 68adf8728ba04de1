package game

import (
	"errors"

	"bingohub/models"
)

// ErrExhaustedPool is returned when every number has already been called
var ErrExhaustedPool = errors.New("all numbers have been called")

// Available returns the numbers in 1..25 not yet present in called, ascending
func Available(called []int) []int {
	var seen [models.BoardSize + 1]bool
	for _, n := range called {
		if n >= 1 && n <= models.BoardSize {
			seen[n] = true
		}
	}
	available := make([]int, 0, models.BoardSize)
	for n := 1; n <= models.BoardSize; n++ {
		if !seen[n] {
			available = append(available, n)
		}
	}
	return available
}

// DrawNumber picks uniformly among the uncalled numbers. It never returns a
// number already in called and does not modify called.
func DrawNumber(rng Source, called []int) (int, error) {
	available := Available(called)
	if len(available) == 0 {
		return 0, ErrExhaustedPool
	}
	return available[rng.Intn(len(available))], nil
}
