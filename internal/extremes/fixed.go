package extremes

import (
	"math"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

// FixedCounter counts days at or above a ladder of absolute temperature
// thresholds. Unlike run detection the comparison is inclusive, and no
// season filter applies: a 40°C day in January counts.
type FixedCounter struct {
	thresholds []float64 // working units (°C), ascending
}

// NewFixedCounter takes thresholds in °F, converting to the °C working
// units of the data on the way in.
func NewFixedCounter(fahrenheit []float64) (*FixedCounter, error) {
	if len(fahrenheit) == 0 {
		return nil, &domain.ConfigError{Param: "thresholds", Detail: "no thresholds given"}
	}
	c := &FixedCounter{thresholds: make([]float64, len(fahrenheit))}
	for i, f := range fahrenheit {
		if math.IsNaN(f) {
			return nil, &domain.ConfigError{Param: "thresholds", Detail: "threshold is NaN"}
		}
		c.thresholds[i] = domain.FahrenheitToCelsius(f)
	}
	return c, nil
}

// Levels returns the number of thresholds.
func (c *FixedCounter) Levels() int { return len(c.thresholds) }

// Count returns, for each threshold, the number of values at or above it.
// NaN values never count.
func (c *FixedCounter) Count(values []float64) []int {
	counts := make([]int, len(c.thresholds))
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		for i, thr := range c.thresholds {
			if v >= thr {
				counts[i]++
			}
		}
	}
	return counts
}
