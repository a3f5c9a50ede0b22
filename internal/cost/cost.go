// Package cost scores a finished or in-progress episode from the building's
// net electricity ledgers. Every function returns a series aligned with its
// input where entry t aggregates everything observed up to step t, so the
// final entry is the episode score and intermediate entries chart progress.
package cost

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// DefaultLoadFactorWindow is roughly one month of hourly steps.
	DefaultLoadFactorWindow = 730
	// HoursPerDay is the daily window for peak averaging.
	HoursPerDay = 24
)

// Consumption is the expanding sum of positive net exchange. Exported energy
// does not offset imports.
func Consumption(net []float64) []float64 {
	return expandingSum(net, func(v float64) float64 { return math.Max(0, v) })
}

// Price is the expanding sum of positive electricity cost.
func Price(cost []float64) []float64 {
	return expandingSum(cost, func(v float64) float64 { return math.Max(0, v) })
}

// CarbonEmissions is the expanding sum of the emission ledger. Entries are
// already clipped at zero by the building, the clip here keeps the function
// safe on raw inputs.
func CarbonEmissions(emission []float64) []float64 {
	return expandingSum(emission, func(v float64) float64 { return math.Max(0, v) })
}

// Quadratic is the expanding sum of squared positive net exchange. It
// penalizes concentrated grid draw harder than the linear consumption score.
func Quadratic(net []float64) []float64 {
	return expandingSum(net, func(v float64) float64 {
		v = math.Max(0, v)
		return v * v
	})
}

// Ramping is the expanding sum of absolute step-to-step change in net
// exchange. The first entry is NaN since no prior step exists.
func Ramping(net []float64) []float64 {
	out := make([]float64, len(net))
	if len(net) == 0 {
		return out
	}
	out[0] = math.NaN()
	sum := 0.0
	for t := 1; t < len(net); t++ {
		sum += math.Abs(net[t] - net[t-1])
		out[t] = sum
	}
	return out
}

// LoadFactor is one minus the mean-to-peak ratio of net exchange over a
// trailing window, so flatter profiles score lower. Entries before the first
// full window are NaN. A window of 0 selects the default.
func LoadFactor(net []float64, window int) []float64 {
	if window <= 0 {
		window = DefaultLoadFactorWindow
	}
	out := make([]float64, len(net))
	for t := range net {
		if t < window-1 {
			out[t] = math.NaN()
			continue
		}
		chunk := net[t-window+1 : t+1]
		peak := floats.Max(chunk)
		if peak == 0 {
			out[t] = math.NaN()
			continue
		}
		out[t] = 1 - floats.Sum(chunk)/float64(window)/peak
	}
	return out
}

// AverageDailyPeak is the expanding mean of trailing daily peaks of net
// exchange. Entries before the first full day are NaN.
func AverageDailyPeak(net []float64) []float64 {
	out := make([]float64, len(net))
	sum, count := 0.0, 0
	for t := range net {
		if t < HoursPerDay-1 {
			out[t] = math.NaN()
			continue
		}
		sum += floats.Max(net[t-HoursPerDay+1 : t+1])
		count++
		out[t] = sum / float64(count)
	}
	return out
}

// PeakDemand is the expanding maximum of net exchange, bounded to a trailing
// window. A window of 0 means the whole episode.
func PeakDemand(net []float64, window int) []float64 {
	out := make([]float64, len(net))
	for t := range net {
		lo := 0
		if window > 0 && t-window+1 > lo {
			lo = t - window + 1
		}
		out[t] = floats.Max(net[lo : t+1])
	}
	return out
}

func expandingSum(in []float64, f func(float64) float64) []float64 {
	out := make([]float64, len(in))
	sum := 0.0
	for t, v := range in {
		sum += f(v)
		out[t] = sum
	}
	return out
}
