package money

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Scale is the default scale for every division and rescale of a monetary
// value. Rounding is half-up.
const Scale = 5

var DivisionByZeroErr = errors.New("division by zero")

// Divide divides a by b at the default scale. Unlike decimal.Div it returns
// an error instead of panicking on a zero divisor.
func Divide(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, DivisionByZeroErr
	}
	return a.DivRound(b, Scale), nil
}

// Average returns the arithmetic mean of values, or zero when values is
// empty. The empty case is a documented policy, not an error.
func Average(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.DivRound(decimal.NewFromInt(int64(len(values))), Scale)
}

// TimedValue is one entry of a time-ordered value series.
type TimedValue struct {
	Time  time.Time
	Value decimal.Decimal
}

// WeightedTimeAverage computes the time-weighted mean of a time-ordered value
// series over [begin, end]. Each value is weighted by the duration it was
// current: from its own start to the next entry's start, the last entry to
// end. A single entry returns that entry's value.
func WeightedTimeAverage(entries []TimedValue, begin, end time.Time) decimal.Decimal {
	if len(entries) == 0 {
		return decimal.Zero
	}
	if len(entries) == 1 {
		return entries[0].Value
	}

	weightedSum := decimal.Zero
	totalWeight := decimal.Zero
	for i, e := range entries {
		start := e.Time
		if start.Before(begin) {
			start = begin
		}
		stop := end
		if i+1 < len(entries) {
			stop = entries[i+1].Time
		}
		if !stop.After(start) {
			continue
		}
		weight := decimal.NewFromInt(stop.Sub(start).Nanoseconds())
		weightedSum = weightedSum.Add(e.Value.Mul(weight))
		totalWeight = totalWeight.Add(weight)
	}
	if totalWeight.IsZero() {
		return entries[len(entries)-1].Value
	}
	return weightedSum.DivRound(totalWeight, Scale)
}
