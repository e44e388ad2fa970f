package repository

import (
	"context"

	"backsim/types"
)

const tradingDaysQuery = `
SELECT date, is_trading_day, start_time, end_time
FROM trading_days
WHERE exchange = $1 AND date >= date_trunc('day', $2::timestamptz) AND date <= $3
ORDER BY date`

// GetTradingSchedule retrieves the ordered trading-day schedule of an
// exchange over a closed interval.
func (db *Database) GetTradingSchedule(ctx context.Context, exchange string, interval types.Interval) ([]types.TradingDay, error) {
	rows, err := db.pool.Query(ctx, tradingDaysQuery, exchange, interval.From, interval.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []types.TradingDay
	for rows.Next() {
		var d types.TradingDay
		if err := rows.Scan(&d.Date, &d.IsTradingDay, &d.StartTime, &d.EndTime); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return days, nil
}
