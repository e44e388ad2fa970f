package trend

import (
	"math"

	"github.com/shopspring/decimal"

	"backsim/internal/money"
)

type Crossover int

const (
	NoCrossover Crossover = iota
	CrossUp               // short average moved from at-or-below to above the long one
	CrossDown             // short average moved from at-or-above to below the long one
)

// SMA returns the rolling simple moving average of values with the given
// window. The result has len(values)-window+1 entries; the last entry
// corresponds to the last input value. Returns nil when the window does not
// fit.
func SMA(values []decimal.Decimal, window int) []decimal.Decimal {
	if window <= 0 || len(values) < window {
		return nil
	}
	out := make([]decimal.Decimal, 0, len(values)-window+1)
	sum := decimal.Zero
	for i, v := range values {
		sum = sum.Add(v)
		if i < window-1 {
			continue
		}
		if i >= window {
			sum = sum.Sub(values[i-window])
		}
		out = append(out, sum.DivRound(decimal.NewFromInt(int64(window)), money.Scale))
	}
	return out
}

// DetectCrossover compares a short and a long average series at the window
// index and the one before it. Both series must be aligned to the end of the
// same window of windowLen values; they may have different lengths. Equality
// at the previous index still counts as a side, so a touch-and-go produces a
// crossover.
func DetectCrossover(short, long []decimal.Decimal, windowLen, index int) Crossover {
	curShort, okCS := alignedAt(short, windowLen, index)
	prevShort, okPS := alignedAt(short, windowLen, index-1)
	curLong, okCL := alignedAt(long, windowLen, index)
	prevLong, okPL := alignedAt(long, windowLen, index-1)
	if !okCS || !okPS || !okCL || !okPL {
		return NoCrossover
	}
	if prevShort.LessThanOrEqual(prevLong) && curShort.GreaterThan(curLong) {
		return CrossUp
	}
	if prevShort.GreaterThanOrEqual(prevLong) && curShort.LessThan(curLong) {
		return CrossDown
	}
	return NoCrossover
}

// LookbackIndex maps a coefficient in [0, 1] to an index of a window of the
// given length: round(coefficient * (length-1)).
func LookbackIndex(coefficient float64, length int) int {
	if length <= 0 {
		return 0
	}
	idx := int(math.Round(coefficient * float64(length-1)))
	if idx < 0 {
		idx = 0
	}
	if idx > length-1 {
		idx = length - 1
	}
	return idx
}

// alignedAt reads the series value belonging to a window index. The series
// is aligned to the window end, so its last entry belongs to window index
// windowLen-1.
func alignedAt(series []decimal.Decimal, windowLen, index int) (decimal.Decimal, bool) {
	i := index - (windowLen - len(series))
	if i < 0 || i >= len(series) {
		return decimal.Zero, false
	}
	return series[i], true
}
