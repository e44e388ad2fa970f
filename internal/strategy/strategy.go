package strategy

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"backsim/internal/money"
	"backsim/types"
)

var (
	UnknownStrategyErr = errors.New("unknown strategy type")
	InvalidParamErr    = errors.New("invalid strategy parameter")
)

const (
	TypeConservative    = "conservative"
	TypeDumb            = "dumb"
	TypeCrossover       = "crossover"
	TypeGreedyCrossover = "greedy_crossover"
	TypeTrendReversal   = "trend_reversal"
)

// Cache is strategy-local state carried between successive decisions. It is
// opaque to the engine: created by InitCache, threaded through every Decide
// call, never stored on the strategy value itself, so one strategy instance
// is safe across concurrent runs.
type Cache any

// LedgerView is the read-only account snapshot a strategy decides on.
type LedgerView struct {
	Cash             decimal.Decimal
	PositionLots     int64
	PositionAvgPrice decimal.Decimal
	Lot              int64
	CommissionRate   decimal.Decimal
	PendingOrder     bool
}

// Strategy turns a market window and a ledger snapshot into a Decision.
type Strategy interface {
	Name() string
	// WindowSize is how many candles the strategy wants to look at.
	WindowSize() int
	InitCache() Cache
	Decide(window []types.Candle, view LedgerView, cache Cache) (types.Decision, Cache)
}

// New builds the strategy requested by the configuration, validating its
// opaque parameter map.
func New(cfg types.BotConfig, log *zap.Logger) (Strategy, error) {
	if log == nil {
		log = zap.NewNop()
	}
	params := params{values: cfg.StrategyParams, strategyType: cfg.StrategyType}
	switch cfg.StrategyType {
	case TypeConservative:
		return Conservative{}, nil
	case TypeDumb:
		return newDumb(params)
	case TypeCrossover:
		return newCrossover(params, false)
	case TypeGreedyCrossover:
		return newCrossover(params, true)
	case TypeTrendReversal:
		return newTrendReversal(params, log)
	default:
		return nil, fmt.Errorf("%w: %q", UnknownStrategyErr, cfg.StrategyType)
	}
}

type params struct {
	values       map[string]string
	strategyType string
}

func (p params) decimal(key string, def decimal.Decimal) (decimal.Decimal, error) {
	raw, ok := p.values[key]
	if !ok {
		return def, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s.%s=%q: %v", InvalidParamErr, p.strategyType, key, raw, err)
	}
	return v, nil
}

func (p params) int(key string, def int) (int, error) {
	raw, ok := p.values[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s.%s=%q: %v", InvalidParamErr, p.strategyType, key, raw, err)
	}
	return v, nil
}

func (p params) float(key string, def float64) (float64, error) {
	raw, ok := p.values[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s.%s=%q: %v", InvalidParamErr, p.strategyType, key, raw, err)
	}
	return v, nil
}

// buyOrWait buys as many whole lots as the cash balance affords at the given
// price, commission included, or waits when that is less than one lot or an
// order is already in flight.
func buyOrWait(view LedgerView, price decimal.Decimal) types.Decision {
	if view.PendingOrder {
		return types.Wait()
	}
	perLot := price.Mul(decimal.NewFromInt(view.Lot))
	perLot = perLot.Add(perLot.Mul(view.CommissionRate))
	if !perLot.IsPositive() {
		return types.Wait()
	}
	lots := view.Cash.Div(perLot).IntPart()
	// Div rounds, so the estimate may overshoot by one lot.
	for lots > 0 && perLot.Mul(decimal.NewFromInt(lots)).GreaterThan(view.Cash) {
		lots--
	}
	if lots < 1 {
		return types.Wait()
	}
	return types.Buy(lots)
}

// sellOrWait sells the whole position when the unrealized profit fraction
// reaches minProfit, and waits otherwise.
func sellOrWait(view LedgerView, price, minProfit decimal.Decimal) types.Decision {
	if view.PendingOrder {
		return types.Wait()
	}
	if view.PositionLots <= 0 || view.PositionAvgPrice.IsZero() {
		return types.Wait()
	}
	profit := price.Sub(view.PositionAvgPrice).DivRound(view.PositionAvgPrice, money.Scale)
	if profit.LessThan(minProfit) {
		return types.Wait()
	}
	return types.Sell(view.PositionLots)
}

func lastClose(window []types.Candle) (decimal.Decimal, bool) {
	if len(window) == 0 {
		return decimal.Zero, false
	}
	return window[len(window)-1].Close, true
}
