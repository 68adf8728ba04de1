package game

import (
	"fmt"

	"bingohub/models"
)

const gridWidth = 5

// LineKind names the shape of a winning line
type LineKind string

const (
	LineRow      LineKind = "row"
	LineColumn   LineKind = "column"
	LineDiagonal LineKind = "diagonal"
)

// Line is a set of five board indices that wins when all are called
type Line struct {
	Kind  LineKind
	Index int
	Cells [gridWidth]int
}

func (l Line) String() string {
	return fmt.Sprintf("%s %d", l.Kind, l.Index)
}

// lines holds the 5 rows, 5 columns and 2 diagonals of a row-major grid
var lines = buildLines()

func buildLines() []Line {
	out := make([]Line, 0, 2*gridWidth+2)
	for r := 0; r < gridWidth; r++ {
		var cells [gridWidth]int
		for c := 0; c < gridWidth; c++ {
			cells[c] = r*gridWidth + c
		}
		out = append(out, Line{Kind: LineRow, Index: r, Cells: cells})
	}
	for c := 0; c < gridWidth; c++ {
		var cells [gridWidth]int
		for r := 0; r < gridWidth; r++ {
			cells[r] = r*gridWidth + c
		}
		out = append(out, Line{Kind: LineColumn, Index: c, Cells: cells})
	}
	var lead, anti [gridWidth]int
	for i := 0; i < gridWidth; i++ {
		lead[i] = i*gridWidth + i
		anti[i] = i*gridWidth + (gridWidth - 1 - i)
	}
	out = append(out,
		Line{Kind: LineDiagonal, Index: 0, Cells: lead},
		Line{Kind: LineDiagonal, Index: 1, Cells: anti},
	)
	return out
}

// Lines returns every line checked by HasWin
func Lines() []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

// HasWin reports whether any row, column or diagonal of board has all of
// its values in called. Every cell counts; there is no free square.
func HasWin(board models.Board, called []int) bool {
	if len(called) == 0 {
		return false
	}
	marked := markedSet(called)
	for _, line := range lines {
		if lineComplete(board, line, marked) {
			return true
		}
	}
	return false
}

// WinningLines returns the complete lines of board in row, column, diagonal order
func WinningLines(board models.Board, called []int) []Line {
	marked := markedSet(called)
	var won []Line
	for _, line := range lines {
		if lineComplete(board, line, marked) {
			won = append(won, line)
		}
	}
	return won
}

func markedSet(called []int) map[int]struct{} {
	marked := make(map[int]struct{}, len(called))
	for _, n := range called {
		marked[n] = struct{}{}
	}
	return marked
}

func lineComplete(board models.Board, line Line, marked map[int]struct{}) bool {
	for _, idx := range line.Cells {
		if _, ok := marked[board[idx]]; !ok {
			return false
		}
	}
	return true
}
