package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"backsim/internal/engine"
	"backsim/internal/report"
	"backsim/internal/repository"
	"backsim/types"
)

type runFile struct {
	DatabaseURL string      `yaml:"database_url"`
	ReportDir   string      `yaml:"report_dir"`
	PoolSize    int         `yaml:"pool_size"`
	From        time.Time   `yaml:"from"`
	To          time.Time   `yaml:"to"`
	Balance     balanceYAML `yaml:"balance"`
	Bots        []botYAML   `yaml:"bots"`
}

type balanceYAML struct {
	Currency         string `yaml:"currency"`
	InitialBalance   string `yaml:"initial_balance"`
	BalanceIncrement string `yaml:"balance_increment"`
	IncrementCron    string `yaml:"increment_cron"`
}

type botYAML struct {
	AccountID      string            `yaml:"account_id"`
	Figi           string            `yaml:"figi"`
	CandleInterval string            `yaml:"candle_interval"`
	Commission     string            `yaml:"commission"`
	Strategy       string            `yaml:"strategy"`
	Params         map[string]string `yaml:"params"`
}

func loadRunFile(path string) (*runFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rf runFile
	if err := yaml.Unmarshal(raw, &rf); err != nil {
		return nil, err
	}
	if rf.PoolSize == 0 {
		rf.PoolSize = 4
	}
	return &rf, nil
}

func (b balanceYAML) toConfig() (types.BalanceConfig, error) {
	initial, err := decimal.NewFromString(b.InitialBalance)
	if err != nil {
		return types.BalanceConfig{}, fmt.Errorf("initial_balance %q: %w", b.InitialBalance, err)
	}
	increment := decimal.Zero
	if b.BalanceIncrement != "" {
		increment, err = decimal.NewFromString(b.BalanceIncrement)
		if err != nil {
			return types.BalanceConfig{}, fmt.Errorf("balance_increment %q: %w", b.BalanceIncrement, err)
		}
	}
	return types.BalanceConfig{
		Currency:         b.Currency,
		InitialBalance:   initial,
		BalanceIncrement: increment,
		IncrementCron:    b.IncrementCron,
	}, nil
}

func (b botYAML) toConfig() (types.BotConfig, error) {
	commission := decimal.Zero
	if b.Commission != "" {
		var err error
		commission, err = decimal.NewFromString(b.Commission)
		if err != nil {
			return types.BotConfig{}, fmt.Errorf("commission %q: %w", b.Commission, err)
		}
	}
	return types.BotConfig{
		AccountID:      b.AccountID,
		Figi:           b.Figi,
		CandleInterval: types.CandleInterval(b.CandleInterval),
		CommissionRate: commission,
		StrategyType:   b.Strategy,
		StrategyParams: b.Params,
	}, nil
}

func main() {
	configPath := flag.String("config", "backsim.yaml", "path to the run file")
	flag.Parse()

	rf, err := loadRunFile(*configPath)
	if err != nil {
		log.Fatalf("load run file: %v", err)
	}
	balance, err := rf.Balance.toConfig()
	if err != nil {
		log.Fatalf("balance config: %v", err)
	}
	configs := make([]types.BotConfig, 0, len(rf.Bots))
	for i, bot := range rf.Bots {
		cfg, err := bot.toConfig()
		if err != nil {
			log.Fatalf("bot %d: %v", i, err)
		}
		configs = append(configs, cfg)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	db, err := repository.NewDatabase(ctx, rf.DatabaseURL)
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}
	defer db.Close()

	interval, err := types.NewInterval(rf.From, rf.To)
	if err != nil {
		logger.Fatal("bad interval", zap.Error(err))
	}

	var saver engine.ReportSaver
	if rf.ReportDir != "" {
		saver = report.NewCSVSaver(rf.ReportDir)
	}
	orch, err := engine.NewOrchestrator(db, db, db, saver, rf.PoolSize, logger)
	if err != nil {
		logger.Fatal("build orchestrator", zap.Error(err))
	}

	results, err := orch.RunBacktests(ctx, configs, balance, interval)
	if err != nil {
		logger.Fatal("run backtests", zap.Error(err))
	}
	printResults(results)
}

func printResults(results []types.BackTestResult) {
	fmt.Println("\n===== Backtest Ranking =====")
	for i, res := range results {
		if res.Error != "" {
			fmt.Printf("%2d. %-12s %-18s FAILED: %s\n", i+1, res.Config.Figi, res.Config.StrategyType, res.Error)
			continue
		}
		fmt.Printf("%2d. %-12s %-18s total=%s profit=%s (%s relative, %s annualized) ops=%d\n",
			i+1,
			res.Config.Figi,
			res.Config.StrategyType,
			res.Balances.FinalTotalSavings,
			res.Profits.Absolute,
			res.Profits.Relative,
			res.Profits.Annualized,
			len(res.Operations),
		)
	}
	fmt.Println("============================")
}
