package debug

import (
	"strings"
	"testing"

	"bingohub/models"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-2500, "-2,500"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatNumber(tt.in))
	}
	assert.Equal(t, "+1,050", formatSignedNumber(1050))
	assert.Equal(t, "-50", formatSignedNumber(-50))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "3f2a9c1e", shortID("3f2a9c1e-0000-4000-8000-000000000000"))
	assert.Equal(t, "plain", shortID("plain"))
}

func TestFormatBoard_MarksCalledCells(t *testing.T) {
	var board models.Board
	for i := range board {
		board[i] = i + 1
	}

	rendered := formatBoard(board, []int{1, 13})
	lines := strings.Split(rendered, "\n")
	assert.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "[ 1]"))
	assert.Contains(t, lines[2], "[13]")
	assert.Contains(t, lines[4], " 25 ")
}

func TestFormatTable(t *testing.T) {
	assert.Empty(t, formatTable([]string{"a"}, nil))

	table := formatTable([]string{"ID", "Stake"}, [][]string{{"l1", "50"}})
	assert.Contains(t, table, "| ID | Stake |")
	assert.Contains(t, table, "| l1 | 50    |")
}

func TestFormatCalled(t *testing.T) {
	assert.Equal(t, "none", formatCalled(nil))
	assert.Equal(t, "4 9 21", formatCalled([]int{4, 9, 21}))
}
