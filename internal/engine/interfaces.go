package engine

import (
	"context"

	"backsim/types"
)

// MarketDataService is the external market-data collaborator. Candles must be
// time-ascending; gaps are allowed.
type MarketDataService interface {
	GetCandles(ctx context.Context, figi string, interval types.Interval, resolution types.CandleInterval) ([]types.Candle, error)
}

// InstrumentService serves static instrument metadata.
type InstrumentService interface {
	GetInstrument(ctx context.Context, figi string) (types.Instrument, error)
}

// ScheduleService serves the trading-day schedule of an exchange.
type ScheduleService interface {
	GetTradingSchedule(ctx context.Context, exchange string, interval types.Interval) ([]types.TradingDay, error)
}

// ReportSaver persists a batch of results. A save error is logged by the
// orchestrator, never propagated.
type ReportSaver interface {
	Save(results []types.BackTestResult) error
}
