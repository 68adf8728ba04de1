package game

import (
	"testing"

	"bingohub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityBoard() models.Board {
	var b models.Board
	for i := range b {
		b[i] = i + 1
	}
	return b
}

func TestHasWin(t *testing.T) {
	t.Parallel()

	board := identityBoard()

	tests := []struct {
		name   string
		called []int
		want   bool
	}{
		{name: "empty called", called: nil, want: false},
		{name: "row 0", called: []int{1, 2, 3, 4, 5}, want: true},
		{name: "row 4 unordered", called: []int{25, 21, 23, 22, 24}, want: true},
		{name: "column 0", called: []int{1, 6, 11, 16, 21}, want: true},
		{name: "column 4", called: []int{5, 10, 15, 20, 25}, want: true},
		{name: "main diagonal", called: []int{1, 7, 13, 19, 25}, want: true},
		{name: "anti diagonal", called: []int{5, 9, 13, 17, 21}, want: true},
		{name: "wrapping run is not a row", called: []int{2, 3, 4, 5, 6}, want: false},
		{name: "four of a row", called: []int{1, 2, 3, 4}, want: false},
		{name: "centre needs calling", called: []int{1, 7, 19, 25}, want: false},
		{name: "out of range values ignored", called: []int{0, 26, 99}, want: false},
		{name: "everything called", called: Available(nil), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, HasWin(board, tt.called))
		})
	}
}

func TestHasWin_MatchesBruteForce(t *testing.T) {
	t.Parallel()

	gen := NewSeededGenerator(2024)
	for trial := 0; trial < 2000; trial++ {
		board := gen.Board()
		count := gen.Intn(26)
		called := make([]int, 0, count)
		for len(called) < count {
			n, err := gen.Draw(called)
			require.NoError(t, err)
			called = append(called, n)
		}

		set := make(map[int]bool)
		for _, n := range called {
			set[n] = true
		}
		want := false
		for _, line := range Lines() {
			all := true
			for _, idx := range line.Cells {
				if !set[board[idx]] {
					all = false
					break
				}
			}
			if all {
				want = true
			}
		}

		require.Equal(t, want, HasWin(board, called), "board %v called %v", board, called)
	}
}

func TestHasWin_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	board := identityBoard()
	called := []int{1, 2, 3, 4, 5}
	boardCopy := board
	calledCopy := append([]int(nil), called...)

	HasWin(board, called)
	WinningLines(board, called)

	assert.Equal(t, boardCopy, board)
	assert.Equal(t, calledCopy, called)
}

func TestWinningLines(t *testing.T) {
	t.Parallel()

	board := identityBoard()
	got := WinningLines(board, []int{1, 2, 3, 4, 5, 6, 11, 16, 21})
	require.Len(t, got, 2)
	assert.Equal(t, "row 0", got[0].String())
	assert.Equal(t, "column 0", got[1].String())

	assert.Empty(t, WinningLines(board, []int{2, 3}))
}

func TestLines_Shape(t *testing.T) {
	t.Parallel()

	all := Lines()
	require.Len(t, all, 12)

	kinds := map[LineKind]int{}
	for _, l := range all {
		kinds[l.Kind]++
	}
	assert.Equal(t, 5, kinds[LineRow])
	assert.Equal(t, 5, kinds[LineColumn])
	assert.Equal(t, 2, kinds[LineDiagonal])
}
