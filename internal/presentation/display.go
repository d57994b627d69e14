// Package presentation renders engagement scores for people.
package presentation

import (
	"fmt"
	"math"

	"github.com/jonesrussell/engagement-advisor/internal/domain"
)

// Tier labels, from best to worst.
const (
	TierViral    = "Viral Potential"
	TierSolid    = "Solid Performance"
	TierOptimize = "Needs Optimization"
)

const (
	viralThreshold = 0.10
	solidThreshold = 0.05
	gaugeScale     = 5
)

// Percent formats a rate with two decimals, e.g. 0.1234 -> "12.34%".
func Percent(score float64) string {
	return fmt.Sprintf("%.2f%%", score*100)
}

// Gauge scales score by 5 and clamps it to [0, 1]. The score itself is never clamped.
func Gauge(score float64) float64 {
	g := score * gaugeScale
	switch {
	case math.IsNaN(g), g < 0:
		return 0
	case g > 1:
		return 1
	default:
		return g
	}
}

// Tier returns the qualitative label for score.
func Tier(score float64) string {
	switch {
	case score > viralThreshold:
		return TierViral
	case score > solidThreshold:
		return TierSolid
	default:
		return TierOptimize
	}
}

// Render computes every display element for score.
func Render(score float64) domain.Display {
	return domain.Display{
		Percent: Percent(score),
		Gauge:   Gauge(score),
		Tier:    Tier(score),
	}
}
