package debug

import (
	"fmt"
	"strconv"
	"strings"

	"bingohub/models"
)

const boardWidth = 5

// formatNumber formats a number with thousands separators
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}

	str := strconv.FormatInt(n, 10)
	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(digit)
	}
	return result.String()
}

// formatSignedNumber formats a number with sign and thousands separators
func formatSignedNumber(n int64) string {
	if n > 0 {
		return "+" + formatNumber(n)
	}
	return formatNumber(n)
}

// padRight pads a string to the right with spaces
func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

// shortID keeps the first block of a uuid for prompts and tables
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// formatTable formats data as a simple ASCII table
func formatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 || len(rows) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, header := range headers {
		colWidths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) && len(cell) > colWidths[i] {
				colWidths[i] = len(cell)
			}
		}
	}

	separator := "+"
	for _, width := range colWidths {
		separator += strings.Repeat("-", width+2) + "+"
	}

	var result strings.Builder
	result.WriteString(separator + "\n")
	result.WriteString("|")
	for i, header := range headers {
		result.WriteString(" " + padRight(header, colWidths[i]) + " |")
	}
	result.WriteString("\n" + separator + "\n")

	for _, row := range rows {
		result.WriteString("|")
		for i, cell := range row {
			if i < len(colWidths) {
				result.WriteString(" " + padRight(cell, colWidths[i]) + " |")
			}
		}
		result.WriteString("\n")
	}
	result.WriteString(separator)

	return result.String()
}

// formatBoard renders a card with called cells bracketed
func formatBoard(board models.Board, called []int) string {
	marked := make(map[int]bool, len(called))
	for _, n := range called {
		marked[n] = true
	}

	var result strings.Builder
	for i, n := range board {
		if i > 0 && i%boardWidth == 0 {
			result.WriteString("\n")
		}
		if marked[n] {
			result.WriteString(fmt.Sprintf("[%2d]", n))
		} else {
			result.WriteString(fmt.Sprintf(" %2d ", n))
		}
	}
	return result.String()
}

// formatCalled lists called numbers in call order
func formatCalled(called []int) string {
	if len(called) == 0 {
		return "none"
	}
	parts := make([]string, len(called))
	for i, n := range called {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}

// colorText returns text with ANSI color codes
func colorText(text string, color string) string {
	colors := map[string]string{
		"red":    "\033[31m",
		"green":  "\033[32m",
		"yellow": "\033[33m",
		"blue":   "\033[34m",
		"reset":  "\033[0m",
	}

	if code, ok := colors[color]; ok {
		return code + text + colors["reset"]
	}
	return text
}
