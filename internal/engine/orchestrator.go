package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"backsim/types"
)

var (
	NoConfigsErr       = errors.New("no bot configurations given")
	InvalidPoolSizeErr = errors.New("worker pool size must be positive")
)

// Orchestrator runs many configurations against shared candle/schedule
// collaborators with bounded parallelism. Failures are isolated per
// configuration: one bad run never aborts its siblings.
type Orchestrator struct {
	market      MarketDataService
	instruments InstrumentService
	schedules   ScheduleService
	saver       ReportSaver
	log         *zap.Logger
	poolSize    int
}

func NewOrchestrator(
	market MarketDataService,
	instruments InstrumentService,
	schedules ScheduleService,
	saver ReportSaver,
	poolSize int,
	log *zap.Logger,
) (*Orchestrator, error) {
	if poolSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", InvalidPoolSizeErr, poolSize)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		market:      market,
		instruments: instruments,
		schedules:   schedules,
		saver:       saver,
		log:         log,
		poolSize:    poolSize,
	}, nil
}

// RunBacktests validates the request, runs every configuration and returns
// all results sorted by final total savings descending. Ties keep submission
// order.
func (o *Orchestrator) RunBacktests(ctx context.Context, configs []types.BotConfig, balance types.BalanceConfig, interval types.Interval) ([]types.BackTestResult, error) {
	if len(configs) == 0 {
		return nil, NoConfigsErr
	}
	// The single wall-clock read: everything after this uses simulated time.
	now := time.Now()
	if interval.From.After(now) || (!interval.To.IsZero() && interval.To.After(now)) {
		return nil, fmt.Errorf("%w: interval must not be in the future", types.InvalidIntervalErr)
	}
	clamped := interval.LimitByNow(now)
	if clamped.ToDays() < 1 {
		return nil, fmt.Errorf("%w: interval must span at least one day", types.InvalidIntervalErr)
	}

	results := make([]types.BackTestResult, len(configs))
	bar := initProgressBar(len(configs))
	var g errgroup.Group
	g.SetLimit(o.poolSize)
	for i, cfg := range configs {
		g.Go(func() error {
			results[i] = o.runOne(ctx, cfg, balance, clamped)
			bar.Add(1)
			return nil
		})
	}
	g.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Balances.FinalTotalSavings.GreaterThan(results[j].Balances.FinalTotalSavings)
	})

	if o.saver != nil {
		if err := o.saver.Save(results); err != nil {
			o.log.Warn("saving backtest report failed", zap.Error(err))
		}
	}
	return results, nil
}

func (o *Orchestrator) runOne(ctx context.Context, cfg types.BotConfig, balance types.BalanceConfig, interval types.Interval) (result types.BackTestResult) {
	defer func() {
		if rec := recover(); rec != nil {
			o.log.Warn("backtest run panicked",
				zap.String("figi", cfg.Figi),
				zap.String("strategy", cfg.StrategyType),
				zap.Any("panic", rec),
			)
			result = failedResult(cfg, interval, fmt.Sprintf("panic: %v", rec))
		}
	}()

	runner := NewRunner(cfg, balance, interval, o.market, o.instruments, o.schedules, o.log)
	res, err := runner.Run(ctx)
	if err != nil {
		o.log.Warn("backtest run failed",
			zap.String("figi", cfg.Figi),
			zap.String("strategy", cfg.StrategyType),
			zap.Error(err),
		)
		return failedResult(cfg, interval, err.Error())
	}
	return res
}

// failedResult carries the error message and zeroed financial fields.
func failedResult(cfg types.BotConfig, interval types.Interval, msg string) types.BackTestResult {
	return types.BackTestResult{
		Config:   cfg,
		Interval: interval,
		Error:    msg,
	}
}

func initProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
