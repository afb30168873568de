package main

import "github.com/wricardo/partyhost/game/minefield"

type ActionKind int

const (
	ActionReveal ActionKind = iota
	ActionFlag
)

// Action is the next request the solver wants to make.
type Action struct {
	Kind  ActionKind
	Row   int
	Col   int
	Guess bool
}

// Strategy picks moves from what a player can see: revealed numbers and
// flags. Mine positions of hidden cells are never read.
type Strategy struct {
	rng minefield.Source
}

func NewStrategy(rng minefield.Source) *Strategy {
	return &Strategy{rng: rng}
}

type point struct{ r, c int }

// Next returns a provable move when one exists, otherwise a random hidden
// cell. ok is false when every cell is revealed or flagged.
func (s *Strategy) Next(cells [][]minefield.Cell) (Action, bool) {
	if a, ok := deduce(cells); ok {
		return a, true
	}

	var hidden []point
	for r, row := range cells {
		for c, cell := range row {
			if !cell.IsRevealed && !cell.IsFlagged {
				hidden = append(hidden, point{r, c})
			}
		}
	}
	if len(hidden) == 0 {
		return Action{}, false
	}

	p := hidden[s.rng.IntN(len(hidden))]
	return Action{Kind: ActionReveal, Row: p.r, Col: p.c, Guess: true}, true
}

// deduce applies the two single-cell rules: a number already satisfied by
// its flags makes the other hidden neighbors safe, and a number equal to its
// flags plus hidden neighbors makes every hidden neighbor a mine.
func deduce(cells [][]minefield.Cell) (Action, bool) {
	for r, row := range cells {
		for c, cell := range row {
			if !cell.IsRevealed || cell.IsMine || cell.NeighborCount == 0 {
				continue
			}

			flagged := 0
			var hidden []point
			eachNeighbor(cells, r, c, func(nr, nc int) {
				n := cells[nr][nc]
				switch {
				case n.IsFlagged:
					flagged++
				case !n.IsRevealed:
					hidden = append(hidden, point{nr, nc})
				}
			})
			if len(hidden) == 0 {
				continue
			}

			if flagged == cell.NeighborCount {
				return Action{Kind: ActionReveal, Row: hidden[0].r, Col: hidden[0].c}, true
			}
			if flagged+len(hidden) == cell.NeighborCount {
				return Action{Kind: ActionFlag, Row: hidden[0].r, Col: hidden[0].c}, true
			}
		}
	}
	return Action{}, false
}

func eachNeighbor(cells [][]minefield.Cell, r, c int, fn func(nr, nc int)) {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			nr, nc := r+dr, c+dc
			if nr >= 0 && nr < len(cells) && nc >= 0 && nc < len(cells[nr]) {
				fn(nr, nc)
			}
		}
	}
}
