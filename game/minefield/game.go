package minefield

import (
	"math/rand/v2"
	"time"
)

// Game owns the single field every participant plays on. Reset swaps the
// field wholesale for a freshly generated one of the same shape.
type Game struct {
	preset Preset
	rng    Source
	field  *Field
}

// NewGame generates the first field for preset. A nil rng seeds one from the clock.
func NewGame(preset *Preset, rng Source) (*Game, error) {
	if err := ValidatePreset(preset); err != nil {
		return nil, err
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	g := &Game{preset: *preset, rng: rng}
	if err := g.Reset(); err != nil {
		return nil, err
	}
	return g, nil
}

// Preset returns the shape every reset regenerates.
func (g *Game) Preset() Preset {
	return g.preset
}

// Field returns the live field. Callers outside the owning goroutine should Clone it.
func (g *Game) Field() *Field {
	return g.field
}

// Reveal applies a reveal to the live field.
func (g *Game) Reveal(r, c int) (Outcome, error) {
	return g.field.Reveal(r, c)
}

// ToggleFlag applies a flag toggle to the live field.
func (g *Game) ToggleFlag(r, c int) error {
	return g.field.ToggleFlag(r, c)
}

// Reset regenerates the field with the original dimensions and mine count.
func (g *Game) Reset() error {
	f, err := Generate(g.preset.Rows, g.preset.Cols, g.preset.Mines, g.rng)
	if err != nil {
		return err
	}
	g.field = f
	return nil
}
