// Package engine provides the tic-tac-toe rules used by room sessions.
//
// The engine package implements:
//   - The 3x3 board and its JSON encoding (empty cells encode as null)
//   - Winner detection over the eight fixed lines
//   - Turn validation and alternation
//
// Core Types:
//
// Game holds a Board and a turn flag (XNext). Play validates a move against
// the turn flag, an existing winner and cell occupancy, and on success writes
// the mark and flips the turn exactly once. Rejected moves never mutate the
// game.
//
// Usage:
//
//	g := engine.NewGame()
//	if err := g.Play(engine.MarkX, 4); err != nil {
//		// ErrOutOfTurn, ErrCellOccupied, ErrGameAlreadyWon or ErrOutOfBounds
//	}
//	winner := g.Winner()
//
// Draws:
//
// A full board without a line reports NoMark from Winner, exactly like a game
// in progress. Callers that need to tell the two apart check Board.Full.
package engine
