package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaaoazul/hypermint/internal/indicator"
	"github.com/joaaoazul/hypermint/internal/model"
)

func TestPlan_OverlaysOnly(t *testing.T) {
	slots := Planner{}.Plan([]indicator.Kind{indicator.KindSMA, indicator.KindEMA, indicator.KindBB})
	require.Len(t, slots, 1)
	assert.Equal(t, model.RoleMain, slots[0].Role)
	assert.Equal(t, DefaultTotalHeight, slots[0].Height)
}

func TestPlan_OscillatorOrderIsStable(t *testing.T) {
	// MACD requested before RSI still yields RSI first.
	slots := Planner{}.Plan([]indicator.Kind{indicator.KindMACD, indicator.KindSMA, indicator.KindRSI})
	require.Len(t, slots, 3)
	assert.Equal(t, "main", slots[0].ID)
	assert.Equal(t, "rsi", slots[1].ID)
	assert.Equal(t, indicator.KindRSI, slots[1].Kind)
	assert.Equal(t, "macd", slots[2].ID)
	assert.Equal(t, 450-2*100, slots[0].Height)
	assert.Equal(t, 100, slots[1].Height)
	assert.Equal(t, 100, slots[2].Height)
}

func TestPlan_DuplicatesAndUnknown(t *testing.T) {
	slots := Planner{}.Plan([]indicator.Kind{indicator.KindRSI, indicator.KindRSI, "VWAP"})
	require.Len(t, slots, 2)
	assert.Equal(t, 350, slots[0].Height)
}

func TestPlan_MainClampedToFloor(t *testing.T) {
	p := Planner{TotalHeight: 300, OscillatorHeight: 120, MinMainHeight: 100}
	slots := p.Plan([]indicator.Kind{indicator.KindRSI, indicator.KindMACD})
	// 300 - 240 = 60 would be below the floor.
	assert.Equal(t, 100, slots[0].Height)

	p = Planner{TotalHeight: 100, OscillatorHeight: 100}
	slots = p.Plan([]indicator.Kind{indicator.KindRSI, indicator.KindMACD})
	assert.Equal(t, DefaultMinMainHeight, slots[0].Height, "negative main height must clamp")
	for _, s := range slots {
		assert.Positive(t, s.Height)
	}
}

func TestPlan_Empty(t *testing.T) {
	slots := Planner{TotalHeight: 600}.Plan(nil)
	require.Len(t, slots, 1)
	assert.Equal(t, 600, slots[0].Height)
}
