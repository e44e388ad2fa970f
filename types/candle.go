package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type CandleInterval string

const (
	OneMinute      CandleInterval = "1min"
	FiveMinutes    CandleInterval = "5min"
	FifteenMinutes CandleInterval = "15min"
	ThirtyMinutes  CandleInterval = "30min"
	Hour           CandleInterval = "hour"
	Day            CandleInterval = "day"
)

var CandleIntervalToTime = map[CandleInterval]time.Duration{
	OneMinute:      time.Minute,
	FiveMinutes:    time.Minute * 5,
	FifteenMinutes: time.Minute * 15,
	ThirtyMinutes:  time.Minute * 30,
	Hour:           time.Hour,
	Day:            time.Hour * 24,
}

type Candle struct {
	Figi      string          `json:"figi"`
	Open      decimal.Decimal `json:"open"`
	Close     decimal.Decimal `json:"close"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Volume    decimal.Decimal `json:"volume"`
	Interval  CandleInterval  `json:"interval"`
	Timestamp time.Time       `json:"timestamp"`
}
