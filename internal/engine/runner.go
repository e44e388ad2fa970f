package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"backsim/internal/exchange"
	"backsim/internal/money"
	"backsim/internal/schedule"
	"backsim/internal/strategy"
	"backsim/types"
)

const yearDays = 365.25

// Runner drives one strategy against its own simulated exchange over the
// requested interval. A Runner owns all of its state, so concurrent Runners
// need no locking.
type Runner struct {
	config      types.BotConfig
	balance     types.BalanceConfig
	interval    types.Interval
	market      MarketDataService
	instruments InstrumentService
	schedules   ScheduleService
	log         *zap.Logger
}

func NewRunner(
	config types.BotConfig,
	balance types.BalanceConfig,
	interval types.Interval,
	market MarketDataService,
	instruments InstrumentService,
	schedules ScheduleService,
	log *zap.Logger,
) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		config:      config,
		balance:     balance,
		interval:    interval,
		market:      market,
		instruments: instruments,
		schedules:   schedules,
		log:         log,
	}
}

// Run executes the backtest and returns its result. Any error makes the
// whole run fail; the orchestrator converts it into a failed result.
func (r *Runner) Run(ctx context.Context) (types.BackTestResult, error) {
	inst, err := r.instruments.GetInstrument(ctx, r.config.Figi)
	if err != nil {
		return types.BackTestResult{}, fmt.Errorf("get instrument: %w", err)
	}
	if inst.Lot <= 0 {
		return types.BackTestResult{}, fmt.Errorf("instrument %s has non-positive lot size %d", inst.Figi, inst.Lot)
	}
	if r.balance.Currency != inst.Currency {
		return types.BackTestResult{}, fmt.Errorf("balance currency %q does not match instrument currency %q", r.balance.Currency, inst.Currency)
	}

	candles, err := r.market.GetCandles(ctx, r.config.Figi, r.interval, r.config.CandleInterval)
	if err != nil {
		return types.BackTestResult{}, fmt.Errorf("get candles: %w", err)
	}
	days, err := r.schedules.GetTradingSchedule(ctx, inst.Exchange, r.interval)
	if err != nil {
		return types.BackTestResult{}, fmt.Errorf("get trading schedule: %w", err)
	}

	strat, err := strategy.New(r.config, r.log)
	if err != nil {
		return types.BackTestResult{}, fmt.Errorf("build strategy: %w", err)
	}

	feed := newCandleFeed(candles)
	ex := exchange.New(feed, staticInstrument{inst: inst})
	cal := schedule.NewCalendar(days)
	initial := map[string]decimal.Decimal{r.balance.Currency: r.balance.InitialBalance}
	if err := ex.Init(cal, r.interval.From, r.config.AccountID, initial); err != nil {
		return types.BackTestResult{}, fmt.Errorf("init exchange: %w", err)
	}

	if err := r.loop(ex, feed, inst, strat); err != nil {
		return types.BackTestResult{}, err
	}
	return r.finalize(ex, feed, inst, candles)
}

func (r *Runner) loop(ex *exchange.Exchange, feed *candleFeed, inst types.Instrument, strat strategy.Strategy) error {
	cache := strat.InitCache()
	windowSize := strat.WindowSize()
	prevStep := ex.Now()
	var prevWindowStart time.Time

	for ex.Now().Before(r.interval.To) {
		now := ex.Now()
		window := feed.window(now, windowSize)

		// An unchanged window start means no new candle arrived; skip the
		// decision step.
		if len(window) > 0 && !window[0].Timestamp.Equal(prevWindowStart) {
			prevWindowStart = window[0].Timestamp
			view := r.ledgerView(ex, inst)
			var decision types.Decision
			decision, cache = strat.Decide(window, view, cache)
			if err := r.apply(ex, decision); err != nil {
				return err
			}
		}

		if err := r.applyIncrements(ex, prevStep, now); err != nil {
			return err
		}
		prevStep = now
		if _, ok := ex.Advance(); !ok {
			break
		}
	}
	return nil
}

func (r *Runner) apply(ex *exchange.Exchange, decision types.Decision) error {
	switch decision.Action {
	case types.ActionBuy:
		_, err := ex.ExecuteMarketOrder(r.config.AccountID, r.config.Figi, types.DirectionBuy, decision.Lots, r.config.CommissionRate)
		return err
	case types.ActionSell:
		_, err := ex.ExecuteMarketOrder(r.config.AccountID, r.config.Figi, types.DirectionSell, decision.Lots, r.config.CommissionRate)
		return err
	default:
		return nil
	}
}

// applyIncrements credits every scheduled balance increment due in
// [prev, now).
func (r *Runner) applyIncrements(ex *exchange.Exchange, prev, now time.Time) error {
	if !r.balance.BalanceIncrement.IsPositive() || r.balance.IncrementCron == "" || !now.After(prev) {
		return nil
	}
	triggers, err := schedule.IncrementTimes(r.balance.IncrementCron, prev, now)
	if err != nil {
		return err
	}
	for _, t := range triggers {
		if err := ex.AddInvestment(r.config.AccountID, t, r.balance.Currency, r.balance.BalanceIncrement); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) ledgerView(ex *exchange.Exchange, inst types.Instrument) strategy.LedgerView {
	view := strategy.LedgerView{
		Cash:           ex.Balance(r.config.AccountID, inst.Currency),
		Lot:            inst.Lot,
		CommissionRate: r.config.CommissionRate,
	}
	for _, pos := range ex.Positions(r.config.AccountID) {
		if pos.Figi == inst.Figi {
			view.PositionLots = pos.Lots
			view.PositionAvgPrice = pos.AveragePrice
		}
	}
	return view
}

func (r *Runner) finalize(ex *exchange.Exchange, feed *candleFeed, inst types.Instrument, candles []types.Candle) (types.BackTestResult, error) {
	lastPrice, err := feed.LastPrice(inst.Figi, r.interval.To)
	if err != nil {
		return types.BackTestResult{}, fmt.Errorf("final price: %w", err)
	}

	cash := ex.Balance(r.config.AccountID, inst.Currency)
	positions := ex.Positions(r.config.AccountID)
	positionsValue := decimal.Zero
	for i, pos := range positions {
		positions[i].CurrentPrice = lastPrice
		value := lastPrice.Mul(decimal.NewFromInt(pos.Lots)).Mul(decimal.NewFromInt(inst.Lot))
		positionsValue = positionsValue.Add(value)
	}
	total := cash.Add(positionsValue)

	investments := ex.Investments(r.config.AccountID, inst.Currency)
	totalInvestment := decimal.Zero
	cumulative := make([]money.TimedValue, 0, len(investments))
	for _, inv := range investments {
		totalInvestment = totalInvestment.Add(inv.Value)
		cumulative = append(cumulative, money.TimedValue{Time: inv.Time, Value: totalInvestment})
	}
	weighted := money.WeightedTimeAverage(cumulative, r.interval.From, r.interval.To)

	absolute := total.Sub(totalInvestment)
	relative := decimal.Zero
	if !weighted.IsZero() {
		relative = absolute.DivRound(weighted, money.Scale)
	}
	annualized := decimal.Zero
	if years := r.interval.ToDays() / yearDays; years > 0 {
		annualized = relative.DivRound(decimal.NewFromFloat(years), money.Scale)
	}

	return types.BackTestResult{
		Config:   r.config,
		Interval: r.interval,
		Balances: types.Balances{
			FinalCash:             cash,
			FinalPositionsValue:   positionsValue,
			FinalTotalSavings:     total,
			TotalInvestment:       totalInvestment,
			WeightedAvgInvestment: weighted,
		},
		Profits: types.Profits{
			Absolute:   absolute,
			Relative:   relative,
			Annualized: annualized,
		},
		Positions:  positions,
		Operations: ex.Operations(r.interval, inst.Figi),
		Candles:    candles,
	}, nil
}
