package main

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/partyhost/game/minefield"
)

func writePreset(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write preset: %v", err)
	}
	return path
}

func TestValidateConfig_ValidConfig(t *testing.T) {
	path := writePreset(t, "small.json", `{
		"name": "Small",
		"description": "Test preset",
		"rows": 4,
		"cols": 4,
		"mines": 1
	}`)

	result := validateConfig(path)
	if !result.Valid {
		t.Errorf("Expected valid preset, but got errors: %v", result.Errors)
	}

	if result.File != "small.json" {
		t.Errorf("Expected file name small.json, got %s", result.File)
	}
	if !hasMessage(result, "✓ Grid: 4x4") {
		t.Errorf("Expected grid summary, got %v", result.Errors)
	}
}

func TestValidateConfig_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", `{"name": "test", invalid json}`, "failed to parse preset"},
		{"missing name", `{"rows": 5, "cols": 5, "mines": 3}`, "name is required"},
		{"too small", `{"name": "t", "rows": 1, "cols": 5, "mines": 1}`, "outside"},
		{"too large", `{"name": "t", "rows": 51, "cols": 5, "mines": 1}`, "outside"},
		{"no mines", `{"name": "t", "rows": 5, "cols": 5, "mines": 0}`, "at least one mine"},
		{"no safe cell", `{"name": "t", "rows": 2, "cols": 2, "mines": 4}`, "invalid minefield dimensions"},
		{"no opening", `{"name": "t", "rows": 2, "cols": 2, "mines": 3}`, "No openings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateConfig(writePreset(t, "preset.json", tt.body))
			if result.Valid {
				t.Fatal("Expected invalid preset")
			}
			if !hasMessage(result, tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, result.Errors)
			}
		})
	}
}

func TestValidateConfig_BadFileName(t *testing.T) {
	result := validateConfig(writePreset(t, "my preset.json", `{"name": "t", "rows": 4, "cols": 4, "mines": 1}`))
	if result.Valid {
		t.Error("Expected invalid result for a file name with spaces")
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig("/non/existent/file.json")
	if result.Valid {
		t.Error("Expected invalid result for missing file")
	}
	if !hasMessage(result, "Failed to read file") {
		t.Error("Expected 'Failed to read file' error")
	}
}

func TestValidateOpenings(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))

	result := validateOpenings(&minefield.Preset{Name: "open", Rows: 5, Cols: 5, Mines: 2}, 10, rng)
	if !result.Valid {
		t.Errorf("Expected openings, got %v", result.Errors)
	}
	if !hasMessage(result, "✓ Openings: 10/10") {
		t.Errorf("Expected every sample to have an opening, got %v", result.Errors)
	}

	result = validateOpenings(&minefield.Preset{Name: "packed", Rows: 3, Cols: 3, Mines: 8}, 10, rng)
	if result.Valid {
		t.Error("Expected no openings on a field with a single safe cell")
	}
}

func TestBundledPresets(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "configs", "*.json"))
	if err != nil || len(files) == 0 {
		t.Skip("Skipping test - configs directory not found")
	}

	for _, file := range files {
		if result := validateConfig(file); !result.Valid {
			t.Errorf("%s: %v", result.File, result.Errors)
		}
	}
}

func hasMessage(result ValidationResult, substr string) bool {
	for _, msg := range result.Errors {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}
