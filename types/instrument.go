package types

import "time"

// Instrument is the static metadata of a tradable security.
type Instrument struct {
	Figi     string `json:"figi"`
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Lot      int64  `json:"lot"`
	Exchange string `json:"exchange"`
}

// TradingDay is one entry of an exchange trading schedule.
type TradingDay struct {
	Date         time.Time `json:"date"`
	IsTradingDay bool      `json:"isTradingDay"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
}
