// Command validate checks the minefield preset JSON files in a configs
// directory (../configs by default, or the first argument). It checks:
//   - JSON structure and required fields
//   - Dimensions within the supported range and a mine count that leaves a safe cell
//   - That sampled fields offer at least one opening (a zero-count cell that floods)
//   - That the file name matches the preset id the server will look it up by
package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/partyhost/game/config"
	"github.com/wricardo/partyhost/game/minefield"
)

// openingSamples is how many fields are generated per preset when looking
// for openings.
const openingSamples = 20

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateConfig loads and validates a single preset file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	preset, err := config.ParsePreset(data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	id := strings.TrimSuffix(result.File, filepath.Ext(result.File))
	if strings.ContainsAny(id, " /\\") {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("File name %q cannot be used as a preset id", id))
	}

	openings := validateOpenings(preset, openingSamples, rand.New(rand.NewPCG(1, 2)))
	if !openings.Valid {
		result.Valid = false
		result.Errors = append(result.Errors, openings.Errors...)
		return result
	}

	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", preset.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Grid: %dx%d", preset.Rows, preset.Cols))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Mines: %d (%.1f%%)", preset.Mines, preset.Density()*100))
		result.Errors = append(result.Errors, openings.Errors...)
	}

	return result
}

// validateOpenings generates sample fields and reports how many of them have
// at least one zero-count cell. A preset where no sample has an opening can
// never be started without guessing into numbered cells.
func validateOpenings(p *minefield.Preset, samples int, rng minefield.Source) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	withOpening := 0
	for i := 0; i < samples; i++ {
		f, err := minefield.Generate(p.Rows, p.Cols, p.Mines, rng)
		if err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to generate field: %v", err))
			return result
		}
		if hasOpening(f) {
			withOpening++
		}
	}

	if withOpening == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("No openings: 0/%d sampled fields have a zero-count cell", samples))
		return result
	}

	result.Errors = append(result.Errors, fmt.Sprintf("✓ Openings: %d/%d sampled fields", withOpening, samples))
	return result
}

func hasOpening(f *minefield.Field) bool {
	for _, row := range f.Cells {
		for _, cell := range row {
			if !cell.IsMine && cell.NeighborCount == 0 {
				return true
			}
		}
	}
	return false
}

// main validates every *.json file in the configs directory, printing a
// concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding preset files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No preset files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All presets are valid!")
	} else {
		fmt.Println("❌ Some presets have errors")
		os.Exit(1)
	}
}
