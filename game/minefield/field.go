package minefield

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDimensions = errors.New("invalid minefield dimensions")
	ErrOutOfBounds       = errors.New("cell out of bounds")
	ErrAlreadyRevealed   = errors.New("cell already revealed")
)

// Cell is one square of the field. NeighborCount is only meaningful for
// non-mine cells.
type Cell struct {
	IsMine        bool `json:"isMine"`
	IsRevealed    bool `json:"isRevealed"`
	IsFlagged     bool `json:"isFlagged"`
	NeighborCount int  `json:"neighborCount"`
}

// Field is a rows x cols grid with a fixed number of mines.
type Field struct {
	Rows  int
	Cols  int
	Mines int
	Cells [][]Cell
}

// Outcome describes what a reveal did.
type Outcome struct {
	Detonated bool `json:"detonated"`
	Revealed  int  `json:"revealed"`
}

// Stats summarises the field for read-only views.
type Stats struct {
	Rows      int  `json:"rows"`
	Cols      int  `json:"cols"`
	Mines     int  `json:"mines"`
	Revealed  int  `json:"revealed"`
	Flagged   int  `json:"flagged"`
	Detonated bool `json:"detonated"`
	Cleared   bool `json:"cleared"`
}

// Source is the randomness used for mine placement. *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// Generate places exactly mines mines on a fresh grid and computes every
// neighbor count once.
func Generate(rows, cols, mines int, rng Source) (*Field, error) {
	if err := Validate(rows, cols, mines); err != nil {
		return nil, err
	}

	cells := make([][]Cell, rows)
	for r := range cells {
		cells[r] = make([]Cell, cols)
	}

	f := &Field{Rows: rows, Cols: cols, Mines: mines, Cells: cells}
	f.placeMines(rng)
	f.calculateNeighbors()
	return f, nil
}

// Validate checks that a field of the given shape can be generated: both
// dimensions positive and at least one cell left free of mines.
func Validate(rows, cols, mines int) error {
	if rows <= 0 || cols <= 0 || mines < 0 || mines >= rows*cols {
		return fmt.Errorf("%w: %dx%d with %d mines", ErrInvalidDimensions, rows, cols, mines)
	}
	return nil
}

// placeMines draws uniform (row, col) pairs, retrying on cells that already hold a mine.
func (f *Field) placeMines(rng Source) {
	placed := 0
	for placed < f.Mines {
		r := rng.IntN(f.Rows)
		c := rng.IntN(f.Cols)
		if !f.Cells[r][c].IsMine {
			f.Cells[r][c].IsMine = true
			placed++
		}
	}
}

func (f *Field) calculateNeighbors() {
	for r := 0; r < f.Rows; r++ {
		for c := 0; c < f.Cols; c++ {
			if f.Cells[r][c].IsMine {
				continue
			}
			count := 0
			f.eachNeighbor(r, c, func(nr, nc int) {
				if f.Cells[nr][nc].IsMine {
					count++
				}
			})
			f.Cells[r][c].NeighborCount = count
		}
	}
}

// eachNeighbor calls fn for the up-to-8 in-bounds neighbors of (r, c).
func (f *Field) eachNeighbor(r, c int, fn func(nr, nc int)) {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			if f.InBounds(r+dr, c+dc) {
				fn(r+dr, c+dc)
			}
		}
	}
}

// InBounds reports whether (r, c) addresses a cell of the field.
func (f *Field) InBounds(r, c int) bool {
	return r >= 0 && r < f.Rows && c >= 0 && c < f.Cols
}

// Reveal uncovers (r, c). Hitting a mine uncovers every mine and nothing else;
// hitting a zero-count cell floods outward through zero-count cells.
func (f *Field) Reveal(r, c int) (Outcome, error) {
	if !f.InBounds(r, c) {
		return Outcome{}, ErrOutOfBounds
	}

	if f.Cells[r][c].IsMine {
		n := 0
		for row := range f.Cells {
			for col := range f.Cells[row] {
				cell := &f.Cells[row][col]
				if cell.IsMine && !cell.IsRevealed {
					cell.IsRevealed = true
					cell.IsFlagged = false
					n++
				}
			}
		}
		return Outcome{Detonated: true, Revealed: n}, nil
	}

	if f.Cells[r][c].IsRevealed {
		return Outcome{}, ErrAlreadyRevealed
	}

	return Outcome{Revealed: f.flood(r, c)}, nil
}

// flood reveals from (r, c) with an explicit stack. Each cell is pushed at most
// once because it is marked revealed before being pushed.
func (f *Field) flood(r, c int) int {
	type point struct{ r, c int }

	f.uncover(r, c)
	revealed := 1
	stack := []point{{r, c}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.Cells[p.r][p.c].NeighborCount != 0 {
			continue
		}
		f.eachNeighbor(p.r, p.c, func(nr, nc int) {
			if f.Cells[nr][nc].IsRevealed {
				return
			}
			f.uncover(nr, nc)
			revealed++
			stack = append(stack, point{nr, nc})
		})
	}

	return revealed
}

func (f *Field) uncover(r, c int) {
	f.Cells[r][c].IsRevealed = true
	f.Cells[r][c].IsFlagged = false
}

// ToggleFlag flips the flag on an unrevealed cell.
func (f *Field) ToggleFlag(r, c int) error {
	if !f.InBounds(r, c) {
		return ErrOutOfBounds
	}

	cell := &f.Cells[r][c]
	if cell.IsRevealed {
		return ErrAlreadyRevealed
	}

	cell.IsFlagged = !cell.IsFlagged
	return nil
}

// Clone returns a deep copy safe to hand to another goroutine.
func (f *Field) Clone() *Field {
	cells := make([][]Cell, len(f.Cells))
	for r := range f.Cells {
		cells[r] = append([]Cell(nil), f.Cells[r]...)
	}
	return &Field{Rows: f.Rows, Cols: f.Cols, Mines: f.Mines, Cells: cells}
}

// Stats counts revealed and flagged cells.
func (f *Field) Stats() Stats {
	s := Stats{Rows: f.Rows, Cols: f.Cols, Mines: f.Mines}
	safeRevealed := 0
	for _, row := range f.Cells {
		for _, cell := range row {
			if cell.IsFlagged {
				s.Flagged++
			}
			if !cell.IsRevealed {
				continue
			}
			s.Revealed++
			if cell.IsMine {
				s.Detonated = true
			} else {
				safeRevealed++
			}
		}
	}
	s.Cleared = !s.Detonated && safeRevealed == f.Rows*f.Cols-f.Mines
	return s
}
