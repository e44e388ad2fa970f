package strategy

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"backsim/internal/trend"
	"backsim/types"
)

// Crossover trades on short/long simple-moving-average crossovers of the
// window's open prices, checked at a lookback index inside the window. The
// greedy variant falls back to buying when a sell signal is rejected by the
// profit threshold; the strict variant just waits in that case.
type Crossover struct {
	smallWindow int
	bigWindow   int
	indexCoef   float64
	minProfit   decimal.Decimal
	greedy      bool
}

type crossoverCache struct {
	// lastSignal is the timestamp of the candle a crossover was last acted
	// on, so a signal does not re-fire while the window slides past it.
	lastSignal time.Time
}

func newCrossover(p params, greedy bool) (Crossover, error) {
	small, err := p.int("smallWindow", 50)
	if err != nil {
		return Crossover{}, err
	}
	big, err := p.int("bigWindow", 180)
	if err != nil {
		return Crossover{}, err
	}
	coef, err := p.float("indexCoefficient", 0.5)
	if err != nil {
		return Crossover{}, err
	}
	minProfit, err := p.decimal("minProfit", decimal.NewFromFloat(0.01))
	if err != nil {
		return Crossover{}, err
	}
	if small <= 0 || big <= 0 || small >= big {
		return Crossover{}, fmt.Errorf("%w: smallWindow %d must be positive and less than bigWindow %d", InvalidParamErr, small, big)
	}
	if coef < 0 || coef > 1 {
		return Crossover{}, fmt.Errorf("%w: indexCoefficient %v must be within [0, 1]", InvalidParamErr, coef)
	}
	return Crossover{
		smallWindow: small,
		bigWindow:   big,
		indexCoef:   coef,
		minProfit:   minProfit,
		greedy:      greedy,
	}, nil
}

func (c Crossover) Name() string {
	if c.greedy {
		return TypeGreedyCrossover
	}
	return TypeCrossover
}

func (c Crossover) WindowSize() int { return c.bigWindow * 2 }

func (c Crossover) InitCache() Cache { return crossoverCache{} }

func (c Crossover) Decide(window []types.Candle, view LedgerView, cache Cache) (types.Decision, Cache) {
	state, _ := cache.(crossoverCache)
	if len(window) <= c.bigWindow {
		return types.Wait(), state
	}

	opens := make([]decimal.Decimal, len(window))
	for i, candle := range window {
		opens[i] = candle.Open
	}
	short := trend.SMA(opens, c.smallWindow)
	long := trend.SMA(opens, c.bigWindow)
	index := trend.LookbackIndex(c.indexCoef, len(window))
	cross := trend.DetectCrossover(short, long, len(window), index)
	if cross == trend.NoCrossover {
		return types.Wait(), state
	}

	signalTime := window[index].Timestamp
	if signalTime.Equal(state.lastSignal) {
		return types.Wait(), state
	}

	price, _ := lastClose(window)
	var decision types.Decision
	switch cross {
	case trend.CrossUp:
		decision = buyOrWait(view, price)
	case trend.CrossDown:
		decision = sellOrWait(view, price, c.minProfit)
		if decision.Action == types.ActionWait && c.greedy {
			// The greedy variant turns a rejected sell into a buy attempt;
			// the strict one does not.
			decision = buyOrWait(view, price)
		}
	}
	if decision.Action != types.ActionWait {
		state.lastSignal = signalTime
	}
	return decision, state
}
