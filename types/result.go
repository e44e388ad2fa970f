package types

import "github.com/shopspring/decimal"

// Position is a final holding of a run, re-priced at the last known price.
type Position struct {
	Figi         string          `json:"figi"`
	Currency     string          `json:"currency"`
	Lots         int64           `json:"lots"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
}

// Balances summarizes the account at the end of a run.
type Balances struct {
	FinalCash             decimal.Decimal `json:"finalCash"`
	FinalPositionsValue   decimal.Decimal `json:"finalPositionsValue"`
	FinalTotalSavings     decimal.Decimal `json:"finalTotalSavings"`
	TotalInvestment       decimal.Decimal `json:"totalInvestment"`
	WeightedAvgInvestment decimal.Decimal `json:"weightedAvgInvestment"`
}

type Profits struct {
	Absolute   decimal.Decimal `json:"absolute"`
	Relative   decimal.Decimal `json:"relative"`
	Annualized decimal.Decimal `json:"annualized"`
}

// BackTestResult is the plain aggregate produced once per configuration,
// success or failure. A failed run carries Error and zeroed financials.
type BackTestResult struct {
	Config     BotConfig   `json:"config"`
	Interval   Interval    `json:"interval"`
	Balances   Balances    `json:"balances"`
	Profits    Profits     `json:"profits"`
	Positions  []Position  `json:"positions"`
	Operations []Operation `json:"operations"`
	Candles    []Candle    `json:"candles"`
	Error      string      `json:"error,omitempty"`
}
