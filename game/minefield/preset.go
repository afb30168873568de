package minefield

import (
	"errors"
	"fmt"
)

const (
	MinDimension = 2
	MaxDimension = 50
)

var ErrInvalidPreset = errors.New("invalid minefield preset")

// Preset is a named field shape loaded from the configs directory.
type Preset struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	Mines       int    `json:"mines"`
}

// DefaultPreset is the 10x10 field with 10 mines used when no preset file is found.
func DefaultPreset() *Preset {
	return &Preset{
		Name:        "classic",
		Description: "10x10 field with 10 mines",
		Rows:        10,
		Cols:        10,
		Mines:       10,
	}
}

// ValidatePreset checks a preset before it is used to generate fields.
func ValidatePreset(p *Preset) error {
	if p == nil {
		return fmt.Errorf("%w: preset is nil", ErrInvalidPreset)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPreset)
	}
	if p.Rows < MinDimension || p.Rows > MaxDimension || p.Cols < MinDimension || p.Cols > MaxDimension {
		return fmt.Errorf("%w: dimensions %dx%d outside %d..%d", ErrInvalidPreset, p.Rows, p.Cols, MinDimension, MaxDimension)
	}
	if p.Mines < 1 {
		return fmt.Errorf("%w: at least one mine is required", ErrInvalidPreset)
	}
	if err := Validate(p.Rows, p.Cols, p.Mines); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	return nil
}

// Density is the fraction of cells holding a mine.
func (p *Preset) Density() float64 {
	return float64(p.Mines) / float64(p.Rows*p.Cols)
}
