package engine

import "errors"

var (
	ErrOutOfBounds    = errors.New("cell index out of bounds")
	ErrOutOfTurn      = errors.New("not this mark's turn")
	ErrCellOccupied   = errors.New("cell already occupied")
	ErrGameAlreadyWon = errors.New("game already has a winner")
)

// Game is a single tic-tac-toe board plus whose turn it is.
type Game struct {
	Board Board
	XNext bool
}

// NewGame returns an empty board with X to move.
func NewGame() *Game {
	return &Game{XNext: true}
}

// Turn returns the mark expected to move next.
func (g *Game) Turn() Mark {
	if g.XNext {
		return MarkX
	}
	return MarkO
}

// Winner returns the winning mark, or NoMark while the game is undecided or drawn.
func (g *Game) Winner() Mark {
	return g.Board.Winner()
}

// Play places mark at index. A rejected move leaves the game untouched; an
// accepted move flips the turn exactly once.
func (g *Game) Play(mark Mark, index int) error {
	if index < 0 || index >= BoardSize {
		return ErrOutOfBounds
	}
	if mark != g.Turn() {
		return ErrOutOfTurn
	}
	if g.Board.Winner() != NoMark {
		return ErrGameAlreadyWon
	}
	if g.Board[index] != NoMark {
		return ErrCellOccupied
	}

	g.Board[index] = mark
	g.XNext = !g.XNext
	return nil
}

// Reset clears the board and hands the first move back to X.
func (g *Game) Reset() {
	g.Board = Board{}
	g.XNext = true
}
