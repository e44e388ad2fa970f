package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"backsim/internal/trend"
	"backsim/types"
)

// TrendReversal looks for a realized extremum at a lookback index of the last
// windowSize candles: a buy when that candle's open equals the window minimum,
// a sell when it equals the maximum.
type TrendReversal struct {
	windowSize int
	indexCoef  float64
	minProfit  decimal.Decimal
	log        *zap.Logger
}

func newTrendReversal(p params, log *zap.Logger) (TrendReversal, error) {
	size, err := p.int("windowSize", 30)
	if err != nil {
		return TrendReversal{}, err
	}
	coef, err := p.float("indexCoefficient", 0.3)
	if err != nil {
		return TrendReversal{}, err
	}
	minProfit, err := p.decimal("minProfit", decimal.NewFromFloat(0.01))
	if err != nil {
		return TrendReversal{}, err
	}
	if size < 2 {
		return TrendReversal{}, fmt.Errorf("%w: windowSize %d must be at least 2", InvalidParamErr, size)
	}
	if coef < 0 || coef > 1 {
		return TrendReversal{}, fmt.Errorf("%w: indexCoefficient %v must be within [0, 1]", InvalidParamErr, coef)
	}
	return TrendReversal{windowSize: size, indexCoef: coef, minProfit: minProfit, log: log}, nil
}

func (t TrendReversal) Name() string { return TypeTrendReversal }

func (t TrendReversal) WindowSize() int { return t.windowSize }

func (t TrendReversal) InitCache() Cache { return nil }

func (t TrendReversal) Decide(window []types.Candle, view LedgerView, cache Cache) (types.Decision, Cache) {
	if len(window) < t.windowSize {
		t.log.Debug("not enough candles for trend reversal",
			zap.Int("have", len(window)),
			zap.Int("need", t.windowSize),
		)
		return types.Wait(), cache
	}

	last := window[len(window)-t.windowSize:]
	index := trend.LookbackIndex(t.indexCoef, t.windowSize)
	lagPrice := last[index].Open

	minOpen, maxOpen := last[0].Open, last[0].Open
	for _, candle := range last[1:] {
		if candle.Open.LessThan(minOpen) {
			minOpen = candle.Open
		}
		if candle.Open.GreaterThan(maxOpen) {
			maxOpen = candle.Open
		}
	}

	price, _ := lastClose(window)
	switch {
	case lagPrice.Equal(minOpen):
		return buyOrWait(view, price), cache
	case lagPrice.Equal(maxOpen):
		return sellOrWait(view, price, t.minProfit), cache
	default:
		return types.Wait(), cache
	}
}
