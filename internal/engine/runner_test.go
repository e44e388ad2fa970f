package engine

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"backsim/types"
)

const (
	testAccount = "acc-1"
	flatFigi    = "BBG000FLAT00"
	risingFigi  = "BBG000RISE00"
	badFigi     = "BBG000BAD000"
)

var sessionStart = time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC)

type fakeMarket struct {
	candles map[string][]types.Candle
}

func (f fakeMarket) GetCandles(ctx context.Context, figi string, interval types.Interval, resolution types.CandleInterval) ([]types.Candle, error) {
	candles, ok := f.candles[figi]
	if !ok {
		return nil, fmt.Errorf("no candles for %s", figi)
	}
	return candles, nil
}

type fakeInstruments struct {
	instruments map[string]types.Instrument
}

func (f fakeInstruments) GetInstrument(ctx context.Context, figi string) (types.Instrument, error) {
	inst, ok := f.instruments[figi]
	if !ok {
		return types.Instrument{}, fmt.Errorf("unknown figi %s", figi)
	}
	return inst, nil
}

type fakeSchedules struct {
	days []types.TradingDay
}

func (f fakeSchedules) GetTradingSchedule(ctx context.Context, exchange string, interval types.Interval) ([]types.TradingDay, error) {
	return f.days, nil
}

// minuteCandles yields one candle per minute starting at sessionStart, each
// priced by the step function.
func minuteCandles(figi string, n int, price func(i int) int64) []types.Candle {
	out := make([]types.Candle, n)
	for i := range out {
		p := decimal.NewFromInt(price(i))
		out[i] = types.Candle{
			Figi:      figi,
			Open:      p,
			Close:     p,
			High:      p,
			Low:       p,
			Volume:    decimal.NewFromInt(1),
			Interval:  types.OneMinute,
			Timestamp: sessionStart.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func testFixture(sessionMinutes int) (fakeMarket, fakeInstruments, fakeSchedules) {
	market := fakeMarket{candles: map[string][]types.Candle{
		flatFigi:   minuteCandles(flatFigi, sessionMinutes, func(i int) int64 { return 100 }),
		risingFigi: minuteCandles(risingFigi, sessionMinutes, func(i int) int64 { return 100 + int64(i) }),
		badFigi:    minuteCandles(badFigi, sessionMinutes, func(i int) int64 { return 100 }),
	}}
	instruments := fakeInstruments{instruments: map[string]types.Instrument{
		flatFigi:   {Figi: flatFigi, Currency: "usd", Lot: 1, Exchange: "TEST"},
		risingFigi: {Figi: risingFigi, Currency: "usd", Lot: 1, Exchange: "TEST"},
		badFigi:    {Figi: badFigi, Currency: "usd", Lot: 0, Exchange: "TEST"},
	}}
	schedules := fakeSchedules{days: []types.TradingDay{{
		Date:         time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		IsTradingDay: true,
		StartTime:    sessionStart,
		EndTime:      sessionStart.Add(time.Duration(sessionMinutes) * time.Minute),
	}}}
	return market, instruments, schedules
}

func testInterval() types.Interval {
	return types.Interval{
		From: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC),
	}
}

func conservativeConfig(figi string) types.BotConfig {
	return types.BotConfig{
		AccountID:      testAccount,
		Figi:           figi,
		CandleInterval: types.OneMinute,
		CommissionRate: decimal.Zero,
		StrategyType:   "conservative",
	}
}

func usdBalance(initial int64) types.BalanceConfig {
	return types.BalanceConfig{
		Currency:       "usd",
		InitialBalance: decimal.NewFromInt(initial),
	}
}

func TestRunnerConservativeFlatSeries(t *testing.T) {
	market, instruments, schedules := testFixture(10)
	runner := NewRunner(conservativeConfig(flatFigi), usdBalance(1_000_000), testInterval(), market, instruments, schedules, nil)

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.Positions) != 1 {
		t.Fatalf("positions: got %v", res.Positions)
	}
	lots := res.Positions[0].Lots
	if lots <= 0 {
		t.Fatalf("expected a positive position, got %d lots", lots)
	}

	wantCash := decimal.NewFromInt(1_000_000 - lots*100)
	if !res.Balances.FinalCash.Equal(wantCash) {
		t.Errorf("final cash: got %s, want %s", res.Balances.FinalCash, wantCash)
	}
	wantAbsolute := res.Balances.FinalTotalSavings.Sub(decimal.NewFromInt(1_000_000))
	if !res.Profits.Absolute.Equal(wantAbsolute) {
		t.Errorf("absolute profit: got %s, want %s", res.Profits.Absolute, wantAbsolute)
	}
	wantRelative := res.Profits.Absolute.DivRound(res.Balances.WeightedAvgInvestment, 5)
	if !res.Profits.Relative.Equal(wantRelative) {
		t.Errorf("relative profit: got %s, want %s", res.Profits.Relative, wantRelative)
	}
	// flat series at zero commission keeps the total exactly even
	if !res.Balances.FinalTotalSavings.Equal(decimal.NewFromInt(1_000_000)) {
		t.Errorf("total savings: got %s, want 1000000", res.Balances.FinalTotalSavings)
	}
	if len(res.Operations) == 0 {
		t.Error("expected at least one operation")
	}
	if res.Error != "" {
		t.Errorf("unexpected error message %q", res.Error)
	}
	if len(res.Candles) != 10 {
		t.Errorf("candle history: got %d, want 10", len(res.Candles))
	}
}

func TestRunnerRisingSeriesProfits(t *testing.T) {
	market, instruments, schedules := testFixture(10)
	runner := NewRunner(conservativeConfig(risingFigi), usdBalance(1_000_000), testInterval(), market, instruments, schedules, nil)

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// bought 10000 lots at 100, repriced at the final 109
	if !res.Balances.FinalTotalSavings.Equal(decimal.NewFromInt(1_090_000)) {
		t.Errorf("total savings: got %s, want 1090000", res.Balances.FinalTotalSavings)
	}
	if !res.Profits.Absolute.Equal(decimal.NewFromInt(90_000)) {
		t.Errorf("absolute profit: got %s, want 90000", res.Profits.Absolute)
	}
	if res.Positions[0].CurrentPrice.IsZero() {
		t.Error("positions must be repriced at the last known price")
	}
}

func TestRunnerAppliesScheduledIncrements(t *testing.T) {
	market, instruments, schedules := testFixture(60)
	balance := types.BalanceConfig{
		Currency:         "usd",
		InitialBalance:   decimal.NewFromInt(500),
		BalanceIncrement: decimal.NewFromInt(1000),
		IncrementCron:    "30 10 * * *",
	}
	runner := NewRunner(conservativeConfig(flatFigi), balance, testInterval(), market, instruments, schedules, nil)

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Balances.TotalInvestment.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("total investment: got %s, want 1500", res.Balances.TotalInvestment)
	}
	// 5 lots from the initial 500, 10 more after the 10:30 increment
	if len(res.Positions) != 1 || res.Positions[0].Lots != 15 {
		t.Errorf("positions: got %v, want 15 lots", res.Positions)
	}
}

func TestRunnerFailsOnBadInstrument(t *testing.T) {
	market, instruments, schedules := testFixture(10)
	runner := NewRunner(conservativeConfig(badFigi), usdBalance(1_000_000), testInterval(), market, instruments, schedules, nil)

	if _, err := runner.Run(context.Background()); err == nil {
		t.Fatal("expected an error for zero lot size")
	}
}

func TestRunnerFailsOnCurrencyMismatch(t *testing.T) {
	market, instruments, schedules := testFixture(10)
	balance := types.BalanceConfig{Currency: "eur", InitialBalance: decimal.NewFromInt(1000)}
	runner := NewRunner(conservativeConfig(flatFigi), balance, testInterval(), market, instruments, schedules, nil)

	if _, err := runner.Run(context.Background()); err == nil {
		t.Fatal("expected a currency mismatch error")
	}
}

func TestRunnerIsIdempotent(t *testing.T) {
	market, instruments, schedules := testFixture(10)

	run := func() types.BackTestResult {
		runner := NewRunner(conservativeConfig(risingFigi), usdBalance(1_000_000), testInterval(), market, instruments, schedules, nil)
		res, err := runner.Run(context.Background())
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return res
	}

	first := run()
	second := run()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ between identical runs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
