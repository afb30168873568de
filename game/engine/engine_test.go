package engine

import (
	"errors"
	"testing"
)

func TestNewGame(t *testing.T) {
	g := NewGame()
	if g == nil {
		t.Fatal("Expected game to be non-nil")
	}

	if !g.XNext {
		t.Error("Expected X to move first")
	}
	if g.Turn() != MarkX {
		t.Errorf("Expected turn X, got %q", g.Turn())
	}
	if g.Board != (Board{}) {
		t.Errorf("Expected empty board, got %v", g.Board)
	}
	if g.Winner() != NoMark {
		t.Errorf("Expected no winner, got %q", g.Winner())
	}
}

func TestGame_PlayAlternatesTurn(t *testing.T) {
	g := NewGame()
	moves := []struct {
		mark  Mark
		index int
	}{
		{MarkX, 0}, {MarkO, 1}, {MarkX, 3}, {MarkO, 2}, {MarkX, 5}, {MarkO, 4},
	}

	for n, m := range moves {
		if err := g.Play(m.mark, m.index); err != nil {
			t.Fatalf("Move %d (%s@%d) rejected: %v", n, m.mark, m.index, err)
		}
		accepted := n + 1
		if g.XNext != (accepted%2 == 0) {
			t.Errorf("After %d accepted moves expected XNext=%v, got %v", accepted, accepted%2 == 0, g.XNext)
		}
	}
}

func TestGame_PlayRejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(g *Game)
		mark    Mark
		index   int
		wantErr error
	}{
		{
			name:    "index below range",
			mark:    MarkX,
			index:   -1,
			wantErr: ErrOutOfBounds,
		},
		{
			name:    "index above range",
			mark:    MarkX,
			index:   9,
			wantErr: ErrOutOfBounds,
		},
		{
			name:    "O moves first",
			mark:    MarkO,
			index:   0,
			wantErr: ErrOutOfTurn,
		},
		{
			name: "occupied cell",
			setup: func(g *Game) {
				g.Play(MarkX, 4)
			},
			mark:    MarkO,
			index:   4,
			wantErr: ErrCellOccupied,
		},
		{
			name: "game already won",
			setup: func(g *Game) {
				g.Board = Board{MarkX, MarkX, MarkX, MarkO, MarkO}
				g.XNext = false
			},
			mark:    MarkO,
			index:   8,
			wantErr: ErrGameAlreadyWon,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGame()
			if tt.setup != nil {
				tt.setup(g)
			}
			before := *g

			err := g.Play(tt.mark, tt.index)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if *g != before {
				t.Errorf("Rejected move mutated game: before %+v, after %+v", before, *g)
			}
		})
	}
}

func TestGame_Reset(t *testing.T) {
	g := NewGame()
	g.Play(MarkX, 0)
	g.Play(MarkO, 8)
	g.Play(MarkX, 4)

	g.Reset()

	if g.Board != (Board{}) {
		t.Errorf("Expected empty board after reset, got %v", g.Board)
	}
	if !g.XNext {
		t.Error("Expected X to move after reset")
	}
}
