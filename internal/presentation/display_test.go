package presentation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score   float64
		percent string
		gauge   float64
		tier    string
	}{
		{score: 0.1234, percent: "12.34%", gauge: 0.617, tier: TierViral},
		{score: 0.10, percent: "10.00%", gauge: 0.5, tier: TierSolid},
		{score: 0.0501, percent: "5.01%", gauge: 0.2505, tier: TierSolid},
		{score: 0.05, percent: "5.00%", gauge: 0.25, tier: TierOptimize},
		{score: 0, percent: "0.00%", gauge: 0, tier: TierOptimize},
		{score: 0.35, percent: "35.00%", gauge: 1, tier: TierViral},
		{score: -0.02, percent: "-2.00%", gauge: 0, tier: TierOptimize},
	}

	for _, tt := range tests {
		got := Render(tt.score)
		assert.Equal(t, tt.percent, got.Percent, "percent for %v", tt.score)
		assert.InDelta(t, tt.gauge, got.Gauge, 1e-9, "gauge for %v", tt.score)
		assert.Equal(t, tt.tier, got.Tier, "tier for %v", tt.score)
	}
}

func TestGauge_NaN(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Gauge(math.NaN()))
}
