// Package layout splits the chart's vertical space into the price pane and
// fixed-height oscillator panes.
package layout

import (
	"github.com/joaaoazul/hypermint/internal/indicator"
	"github.com/joaaoazul/hypermint/internal/model"
)

// Defaults used when a Planner field is zero.
const (
	DefaultTotalHeight      = 450
	DefaultOscillatorHeight = 100
	DefaultMinMainHeight    = 150
)

// MainPaneID is the id of the price pane.
const MainPaneID = "main"

// oscillatorOrder is the top-to-bottom precedence of oscillator panes.
var oscillatorOrder = []indicator.Kind{indicator.KindRSI, indicator.KindMACD}

// Slot is one planned pane.
type Slot struct {
	ID     string
	Role   model.PaneRole
	Kind   indicator.Kind // oscillator kind; empty for the main pane
	Height int
}

// Planner computes pane heights.
//
// The main pane gets TotalHeight minus one OscillatorHeight per active
// oscillator, but never less than MinMainHeight. When the floor applies the
// stacked panes are taller than TotalHeight and the host is expected to scroll.
type Planner struct {
	TotalHeight      int
	OscillatorHeight int
	MinMainHeight    int
}

// Plan returns the main slot followed by one slot per active oscillator kind,
// RSI before MACD. Overlay and unknown kinds take no space.
func (p Planner) Plan(active []indicator.Kind) []Slot {
	total := orDefault(p.TotalHeight, DefaultTotalHeight)
	osc := orDefault(p.OscillatorHeight, DefaultOscillatorHeight)
	floor := p.MinMainHeight
	if floor <= 0 {
		floor = DefaultMinMainHeight
	}

	want := make(map[indicator.Kind]bool, len(active))
	for _, k := range active {
		want[k] = true
	}

	slots := []Slot{{ID: MainPaneID, Role: model.RoleMain}}
	for _, k := range oscillatorOrder {
		if !want[k] {
			continue
		}
		slots = append(slots, Slot{
			ID:     PaneID(k),
			Role:   model.RoleOscillator,
			Kind:   k,
			Height: osc,
		})
	}

	main := total - osc*(len(slots)-1)
	if main < floor {
		main = floor
	}
	slots[0].Height = main
	return slots
}

// PaneID returns the pane id used for an oscillator kind.
func PaneID(k indicator.Kind) string {
	switch k {
	case indicator.KindRSI:
		return "rsi"
	case indicator.KindMACD:
		return "macd"
	}
	return MainPaneID
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
