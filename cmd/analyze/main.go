// Command analyze prints quick, human-readable heuristics about the minefield
// presets in the project's configs directory. For each preset it samples
// fields and summarizes mine density, how many zero-count cells a field has
// and how much of the board the largest opening clears in one click.
package main

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/wricardo/partyhost/game/config"
	"github.com/wricardo/partyhost/game/minefield"
)

const defaultSamples = 50

// Analysis aggregates sampled fields for one preset.
type Analysis struct {
	Preset         minefield.Preset
	Samples        int
	AvgZeroCells   float64
	AvgBestOpening float64
	// NoOpening counts samples without a single zero-count cell.
	NoOpening int
}

// OpeningShare is the fraction of safe cells cleared by the average best opening.
func (a Analysis) OpeningShare() float64 {
	safe := a.Preset.Rows*a.Preset.Cols - a.Preset.Mines
	if safe == 0 {
		return 0
	}
	return a.AvgBestOpening / float64(safe)
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	presets, err := config.NewManager(dir)
	if err != nil {
		fmt.Printf("Error opening presets: %v\n", err)
		os.Exit(1)
	}

	infos, err := presets.ListPresets()
	if err != nil {
		fmt.Printf("Error listing presets: %v\n", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewPCG(1, 1))
	for _, info := range infos {
		fmt.Printf("\n=== Analyzing %s ===\n", info.PresetID)
		p, err := presets.LoadPreset(info.PresetID)
		if err != nil {
			fmt.Printf("Error loading preset: %v\n", err)
			continue
		}
		a, err := analyzePreset(p, defaultSamples, rng)
		if err != nil {
			fmt.Printf("Error analyzing preset: %v\n", err)
			continue
		}
		printAnalysis(a)
	}
}

func analyzePreset(p *minefield.Preset, samples int, rng minefield.Source) (Analysis, error) {
	a := Analysis{Preset: *p, Samples: samples}
	if samples <= 0 {
		return a, nil
	}

	zeroTotal, openingTotal := 0, 0
	for i := 0; i < samples; i++ {
		f, err := minefield.Generate(p.Rows, p.Cols, p.Mines, rng)
		if err != nil {
			return a, err
		}
		zeros, best := openings(f)
		if zeros == 0 {
			a.NoOpening++
		}
		zeroTotal += zeros
		openingTotal += best
	}

	a.AvgZeroCells = float64(zeroTotal) / float64(samples)
	a.AvgBestOpening = float64(openingTotal) / float64(samples)
	return a, nil
}

// openings counts zero-count cells and returns the size of the largest region
// a single click on one of them would reveal.
func openings(f *minefield.Field) (zeros, best int) {
	work := f.Clone()
	for r, row := range f.Cells {
		for c, cell := range row {
			if cell.IsMine || cell.NeighborCount != 0 {
				continue
			}
			zeros++
			if work.Cells[r][c].IsRevealed {
				continue
			}
			out, err := work.Reveal(r, c)
			if err == nil && out.Revealed > best {
				best = out.Revealed
			}
		}
	}
	return zeros, best
}

func printAnalysis(a Analysis) {
	p := a.Preset
	fmt.Printf("Name: %s\n", p.Name)
	fmt.Printf("Grid Size: %d x %d\n", p.Rows, p.Cols)
	fmt.Printf("Mines: %d (%.1f%% density)\n", p.Mines, p.Density()*100)
	fmt.Printf("Samples: %d\n", a.Samples)
	fmt.Printf("Avg zero-count cells: %.1f\n", a.AvgZeroCells)
	fmt.Printf("Avg best opening: %.1f cells (%.0f%% of safe cells)\n", a.AvgBestOpening, a.OpeningShare()*100)

	if a.NoOpening > 0 {
		fmt.Printf("⚠️  WARNING: %d/%d sampled fields have no opening at all\n", a.NoOpening, a.Samples)
	} else {
		fmt.Printf("✅ Every sampled field has at least one opening\n")
	}
}
