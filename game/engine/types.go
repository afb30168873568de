package engine

import (
	"encoding/json"
	"fmt"
)

// Mark is the symbol a seat places on the board.
type Mark string

const (
	NoMark Mark = ""
	MarkX  Mark = "X" // always moves first
	MarkO  Mark = "O"

	// BoardSize is the number of cells on a 3x3 board.
	BoardSize = 9
)

// Board is the row-major 3x3 grid, index 0 top-left, index 8 bottom-right.
type Board [BoardSize]Mark

// lines enumerates every three-in-a-row in a fixed order: rows, columns, diagonals.
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// MarshalJSON encodes an empty cell as null so clients can test it for falsiness.
func (m Mark) MarshalJSON() ([]byte, error) {
	if m == NoMark {
		return []byte("null"), nil
	}
	return json.Marshal(string(m))
}

// UnmarshalJSON accepts null, "X" and "O".
func (m *Mark) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = NoMark
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("mark must be a string or null: %w", err)
	}

	switch Mark(s) {
	case NoMark, MarkX, MarkO:
		*m = Mark(s)
		return nil
	default:
		return fmt.Errorf("unknown mark %q", s)
	}
}

// Winner returns the mark owning the first complete line, or NoMark.
func (b Board) Winner() Mark {
	for _, line := range lines {
		a := b[line[0]]
		if a != NoMark && a == b[line[1]] && a == b[line[2]] {
			return a
		}
	}
	return NoMark
}

// Full reports whether every cell holds a mark.
func (b Board) Full() bool {
	for _, m := range b {
		if m == NoMark {
			return false
		}
	}
	return true
}

// Filled counts the marked cells.
func (b Board) Filled() int {
	n := 0
	for _, m := range b {
		if m != NoMark {
			n++
		}
	}
	return n
}
