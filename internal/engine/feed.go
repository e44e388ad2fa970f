package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"backsim/types"
)

var NoPriceErr = errors.New("no candle at or before instant")

// candleFeed serves a preloaded time-ascending candle series to one run: the
// last known price for the simulated exchange and rolling windows for the
// strategy.
type candleFeed struct {
	candles []types.Candle
}

func newCandleFeed(candles []types.Candle) *candleFeed {
	sorted := append([]types.Candle(nil), candles...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })
	return &candleFeed{candles: sorted}
}

// LastPrice returns the close of the latest candle at or before the instant.
func (f *candleFeed) LastPrice(figi string, at time.Time) (decimal.Decimal, error) {
	i := f.countUpTo(at)
	if i == 0 {
		return decimal.Zero, fmt.Errorf("%w: %s at %s", NoPriceErr, figi, at)
	}
	return f.candles[i-1].Close, nil
}

// window returns the most recent n candles with timestamps at or before the
// instant.
func (f *candleFeed) window(at time.Time, n int) []types.Candle {
	i := f.countUpTo(at)
	lo := i - n
	if lo < 0 {
		lo = 0
	}
	return f.candles[lo:i]
}

func (f *candleFeed) countUpTo(at time.Time) int {
	return sort.Search(len(f.candles), func(i int) bool {
		return f.candles[i].Timestamp.After(at)
	})
}

// staticInstrument adapts one instrument's metadata to the exchange's
// instrument source.
type staticInstrument struct {
	inst types.Instrument
}

func (s staticInstrument) Instrument(figi string) (types.Instrument, error) {
	if figi != s.inst.Figi {
		return types.Instrument{}, fmt.Errorf("unknown instrument %q", figi)
	}
	return s.inst, nil
}
