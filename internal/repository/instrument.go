package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"backsim/types"
)

const instrumentQuery = `
SELECT figi, ticker, name, currency, lot, exchange
FROM instruments
WHERE figi = $1`

// GetInstrument retrieves static instrument metadata by figi.
func (db *Database) GetInstrument(ctx context.Context, figi string) (types.Instrument, error) {
	row := db.pool.QueryRow(ctx, instrumentQuery, figi)

	var inst types.Instrument
	err := row.Scan(&inst.Figi, &inst.Ticker, &inst.Name, &inst.Currency, &inst.Lot, &inst.Exchange)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Instrument{}, fmt.Errorf("figi %s: %w", figi, ErrInstrumentNotFound)
		}
		return types.Instrument{}, err
	}
	return inst, nil
}
