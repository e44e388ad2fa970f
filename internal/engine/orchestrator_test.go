package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"backsim/types"
)

type recordingSaver struct {
	saved [][]types.BackTestResult
	err   error
}

func (s *recordingSaver) Save(results []types.BackTestResult) error {
	s.saved = append(s.saved, results)
	return s.err
}

func newTestOrchestrator(t *testing.T, saver ReportSaver, poolSize int) *Orchestrator {
	t.Helper()
	market, instruments, schedules := testFixture(10)
	orch, err := NewOrchestrator(market, instruments, schedules, saver, poolSize, nil)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	return orch
}

func TestOrchestratorRanksBySavings(t *testing.T) {
	orch := newTestOrchestrator(t, nil, 2)
	configs := []types.BotConfig{
		conservativeConfig(flatFigi),
		conservativeConfig(risingFigi),
	}

	results, err := orch.RunBacktests(context.Background(), configs, usdBalance(1_000_000), testInterval())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Config.Figi != risingFigi {
		t.Errorf("best result: got %s, want %s", results[0].Config.Figi, risingFigi)
	}
	if results[0].Balances.FinalTotalSavings.LessThan(results[1].Balances.FinalTotalSavings) {
		t.Error("results are not sorted by final total savings descending")
	}
}

func TestOrchestratorIsolatesFailures(t *testing.T) {
	orch := newTestOrchestrator(t, nil, 3)
	configs := []types.BotConfig{
		conservativeConfig(flatFigi),
		conservativeConfig(badFigi), // zero lot size fails the run
		conservativeConfig(risingFigi),
	}

	results, err := orch.RunBacktests(context.Background(), configs, usdBalance(1_000_000), testInterval())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != len(configs) {
		t.Fatalf("got %d results, want %d", len(results), len(configs))
	}

	var failed int
	for _, res := range results {
		if res.Error != "" {
			failed++
			if res.Config.Figi != badFigi {
				t.Errorf("unexpected failure for %s: %s", res.Config.Figi, res.Error)
			}
			if !res.Balances.FinalTotalSavings.IsZero() || len(res.Operations) != 0 {
				t.Error("failed result must carry zeroed financials")
			}
		}
	}
	if failed != 1 {
		t.Errorf("got %d failed results, want 1", failed)
	}
	// zero savings rank the failed run last
	if results[len(results)-1].Config.Figi != badFigi {
		t.Errorf("failed run must rank last, got %s", results[len(results)-1].Config.Figi)
	}
}

func TestOrchestratorValidatesRequest(t *testing.T) {
	orch := newTestOrchestrator(t, nil, 2)
	ctx := context.Background()
	balance := usdBalance(1000)
	configs := []types.BotConfig{conservativeConfig(flatFigi)}

	if _, err := orch.RunBacktests(ctx, nil, balance, testInterval()); !errors.Is(err, NoConfigsErr) {
		t.Errorf("empty configs: expected NoConfigsErr, got %v", err)
	}

	future := types.Interval{
		From: time.Now().Add(24 * time.Hour),
		To:   time.Now().Add(72 * time.Hour),
	}
	if _, err := orch.RunBacktests(ctx, configs, balance, future); !errors.Is(err, types.InvalidIntervalErr) {
		t.Errorf("future interval: expected InvalidIntervalErr, got %v", err)
	}

	short := types.Interval{
		From: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC),
	}
	if _, err := orch.RunBacktests(ctx, configs, balance, short); !errors.Is(err, types.InvalidIntervalErr) {
		t.Errorf("sub-day interval: expected InvalidIntervalErr, got %v", err)
	}
}

func TestNewOrchestratorRejectsBadPoolSize(t *testing.T) {
	market, instruments, schedules := testFixture(10)
	for _, size := range []int{0, -1} {
		if _, err := NewOrchestrator(market, instruments, schedules, nil, size, nil); !errors.Is(err, InvalidPoolSizeErr) {
			t.Errorf("pool size %d: expected InvalidPoolSizeErr, got %v", size, err)
		}
	}
}

func TestOrchestratorSavesReport(t *testing.T) {
	saver := &recordingSaver{}
	orch := newTestOrchestrator(t, saver, 1)
	configs := []types.BotConfig{conservativeConfig(flatFigi)}

	if _, err := orch.RunBacktests(context.Background(), configs, usdBalance(1000), testInterval()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(saver.saved) != 1 || len(saver.saved[0]) != 1 {
		t.Fatalf("saver: got %v", saver.saved)
	}
}

func TestOrchestratorToleratesSaverFailure(t *testing.T) {
	saver := &recordingSaver{err: errors.New("disk full")}
	orch := newTestOrchestrator(t, saver, 1)
	configs := []types.BotConfig{conservativeConfig(flatFigi)}

	results, err := orch.RunBacktests(context.Background(), configs, usdBalance(1000), testInterval())
	if err != nil {
		t.Fatalf("saver errors must not fail the run: %v", err)
	}
	if len(results) != 1 || results[0].Error != "" {
		t.Errorf("results must be intact: %v", results)
	}
}
