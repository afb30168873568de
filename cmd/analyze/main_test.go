package main

import (
	"math/rand/v2"
	"testing"

	"github.com/wricardo/partyhost/game/minefield"
)

// sequence replays fixed indexes so mine placement is predictable.
type sequence struct {
	values []int
	i      int
}

func (s *sequence) IntN(n int) int {
	v := s.values[s.i%len(s.values)] % n
	s.i++
	return v
}

func TestOpenings(t *testing.T) {
	// 3x3 with the single mine in the corner (0,0): the opposite corner
	// floods everything except the mine.
	f, err := minefield.Generate(3, 3, 1, &sequence{values: []int{0}})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	zeros, best := openings(f)
	if zeros != 5 {
		t.Errorf("Expected 5 zero-count cells, got %d", zeros)
	}
	if best != 8 {
		t.Errorf("Expected best opening of 8 cells, got %d", best)
	}

	if f.Stats().Revealed != 0 {
		t.Error("openings should not reveal cells on the analyzed field")
	}
}

func TestAnalyzePreset(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))

	tests := []struct {
		name          string
		preset        minefield.Preset
		wantNoOpening bool
	}{
		{"sparse", minefield.Preset{Name: "sparse", Rows: 8, Cols: 8, Mines: 2}, false},
		{"packed", minefield.Preset{Name: "packed", Rows: 3, Cols: 3, Mines: 8}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := analyzePreset(&tt.preset, 10, rng)
			if err != nil {
				t.Fatalf("analyzePreset failed: %v", err)
			}
			if a.Samples != 10 {
				t.Errorf("Expected 10 samples, got %d", a.Samples)
			}
			if got := a.NoOpening > 0; got != tt.wantNoOpening {
				t.Errorf("NoOpening = %d, want openings missing: %v", a.NoOpening, tt.wantNoOpening)
			}
			if share := a.OpeningShare(); share < 0 || share > 1 {
				t.Errorf("Opening share out of range: %f", share)
			}
		})
	}
}

func TestAnalyzePreset_InvalidDimensions(t *testing.T) {
	_, err := analyzePreset(&minefield.Preset{Name: "bad", Rows: 2, Cols: 2, Mines: 4}, 1, rand.New(rand.NewPCG(1, 1)))
	if err == nil {
		t.Error("Expected an error when no safe cell remains")
	}
}
