package types

import "github.com/shopspring/decimal"

// BotConfig describes one requested backtest run.
type BotConfig struct {
	AccountID      string            `json:"accountId"`
	Figi           string            `json:"figi"`
	CandleInterval CandleInterval    `json:"candleInterval"`
	CommissionRate decimal.Decimal   `json:"commissionRate"`
	StrategyType   string            `json:"strategyType"`
	StrategyParams map[string]string `json:"strategyParams"`
}

// BalanceConfig is the cash setup shared by every run of a batch: the initial
// investment plus an optional cron-scheduled increment.
type BalanceConfig struct {
	Currency         string          `json:"currency"`
	InitialBalance   decimal.Decimal `json:"initialBalance"`
	BalanceIncrement decimal.Decimal `json:"balanceIncrement"`
	IncrementCron    string          `json:"incrementCron"`
}
