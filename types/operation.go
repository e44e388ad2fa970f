package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// Operation is an immutable record of a single ledger-affecting event.
type Operation struct {
	Time       time.Time       `json:"time"`
	Figi       string          `json:"figi"`
	Direction  Direction       `json:"direction"`
	Lots       int64           `json:"lots"`
	Price      decimal.Decimal `json:"price"`
	Payment    decimal.Decimal `json:"payment"`
	Commission decimal.Decimal `json:"commission"`
	Currency   string          `json:"currency"`
}
