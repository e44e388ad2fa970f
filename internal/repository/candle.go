package repository

import (
	"context"

	"backsim/types"
)

var supportedIntervals = map[types.CandleInterval]bool{
	types.OneMinute:      true,
	types.FiveMinutes:    true,
	types.FifteenMinutes: true,
	types.ThirtyMinutes:  true,
	types.Hour:           true,
	types.Day:            true,
}

const candlesQuery = `
SELECT figi, open, close, high, low, volume, ts
FROM candles
WHERE figi = $1 AND interval = $2 AND ts >= $3 AND ts <= $4
ORDER BY ts`

// GetCandles retrieves the time-ascending candle series of an instrument over
// a closed interval at the given resolution.
func (db *Database) GetCandles(ctx context.Context, figi string, interval types.Interval, resolution types.CandleInterval) ([]types.Candle, error) {
	if !supportedIntervals[resolution] {
		return nil, ErrIntervalNotSupported
	}
	rows, err := db.pool.Query(ctx, candlesQuery, figi, string(resolution), interval.From, interval.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candles []types.Candle
	for rows.Next() {
		c := types.Candle{Interval: resolution}
		if err := rows.Scan(&c.Figi, &c.Open, &c.Close, &c.High, &c.Low, &c.Volume, &c.Timestamp); err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	return candles, nil
}
