package exchange

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"backsim/internal/money"
	"backsim/internal/schedule"
	"backsim/types"
)

var (
	InsufficientBalanceErr  = errors.New("insufficient balance for buy order")
	InsufficientPositionErr = errors.New("insufficient position lots for sell order")
	NonPositiveAmountErr    = errors.New("investment amount must be positive")
	NonPositiveLotsErr      = errors.New("order lots must be positive")
	NoTradingMinutesErr     = errors.New("no trading minutes in schedule")
)

// PriceSource yields the last known price of an instrument at an instant.
type PriceSource interface {
	LastPrice(figi string, at time.Time) (decimal.Decimal, error)
}

// InstrumentSource yields static instrument metadata.
type InstrumentSource interface {
	Instrument(figi string) (types.Instrument, error)
}

type position struct {
	figi     string
	currency string
	lots     int64
	avgPrice decimal.Decimal
}

type investment struct {
	time     time.Time
	currency string
	amount   decimal.Decimal
}

type account struct {
	cash        map[string]decimal.Decimal
	positions   map[string]*position
	investments []investment
}

func newAccount() *account {
	return &account{
		cash:      make(map[string]decimal.Decimal),
		positions: make(map[string]*position),
	}
}

// Exchange is a deterministic fake exchange: it owns the simulated clock,
// per-account cash and positions, and the full operation history. Market
// orders fill synchronously against the last known candle price plus
// commission. One Exchange belongs to exactly one backtest run and is never
// shared between goroutines.
type Exchange struct {
	now         time.Time
	calendar    schedule.Calendar
	prices      PriceSource
	instruments InstrumentSource
	accounts    map[string]*account
	operations  []types.Operation
}

func New(prices PriceSource, instruments InstrumentSource) *Exchange {
	return &Exchange{
		prices:      prices,
		instruments: instruments,
		accounts:    make(map[string]*account),
	}
}

// Init resets all state and sets the clock to the first valid trading minute
// not before start. Initial balances are recorded as investments at that
// instant.
func (e *Exchange) Init(cal schedule.Calendar, start time.Time, accountID string, balances map[string]decimal.Decimal) error {
	first, ok := cal.FirstTradingMinute(start)
	if !ok {
		return fmt.Errorf("%w: no trading minute at or after %s", NoTradingMinutesErr, start)
	}
	e.calendar = cal
	e.now = first
	e.accounts = make(map[string]*account)
	e.operations = nil

	currencies := make([]string, 0, len(balances))
	for cur := range balances {
		currencies = append(currencies, cur)
	}
	sort.Strings(currencies)
	for _, cur := range currencies {
		amount := balances[cur]
		if amount.IsZero() {
			continue
		}
		if err := e.AddInvestment(accountID, first, cur, amount); err != nil {
			return err
		}
	}
	return nil
}

// Now returns the current simulated instant.
func (e *Exchange) Now() time.Time {
	return e.now
}

// Advance moves the clock to the next trading minute. It reports false when
// the schedule has no further minutes; stopping is then the caller's job.
func (e *Exchange) Advance() (time.Time, bool) {
	next, ok := e.calendar.NextTradingMinute(e.now)
	if !ok {
		return e.now, false
	}
	e.now = next
	return next, true
}

// AddInvestment credits cash and appends to the investment ledger.
func (e *Exchange) AddInvestment(accountID string, at time.Time, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", NonPositiveAmountErr, amount)
	}
	acct := e.account(accountID)
	acct.cash[currency] = acct.cash[currency].Add(amount)
	acct.investments = append(acct.investments, investment{time: at, currency: currency, amount: amount})
	return nil
}

// ExecuteMarketOrder fills a market order at the last known price plus
// commission, timestamped at the current clock instant. A failed order leaves
// the ledger untouched.
func (e *Exchange) ExecuteMarketOrder(accountID, figi string, direction types.Direction, lots int64, commissionRate decimal.Decimal) (types.Operation, error) {
	if lots <= 0 {
		return types.Operation{}, fmt.Errorf("%w: got %d", NonPositiveLotsErr, lots)
	}
	price, err := e.prices.LastPrice(figi, e.now)
	if err != nil {
		return types.Operation{}, fmt.Errorf("price lookup for %s at %s: %w", figi, e.now, err)
	}
	inst, err := e.instruments.Instrument(figi)
	if err != nil {
		return types.Operation{}, fmt.Errorf("instrument lookup for %s: %w", figi, err)
	}
	if inst.Lot <= 0 {
		return types.Operation{}, fmt.Errorf("instrument %s has non-positive lot size %d", figi, inst.Lot)
	}

	cost := price.Mul(decimal.NewFromInt(lots)).Mul(decimal.NewFromInt(inst.Lot))
	commission := cost.Mul(commissionRate)
	acct := e.account(accountID)

	var payment decimal.Decimal
	switch direction {
	case types.DirectionBuy:
		balance := acct.cash[inst.Currency]
		remaining := balance.Sub(cost).Sub(commission)
		if remaining.IsNegative() {
			return types.Operation{}, fmt.Errorf("%w: balance %s %s, need %s", InsufficientBalanceErr, balance, inst.Currency, cost.Add(commission))
		}
		acct.cash[inst.Currency] = remaining
		e.applyBuy(acct, inst, price, lots)
		payment = cost.Neg()
	case types.DirectionSell:
		pos := acct.positions[figi]
		if pos == nil || pos.lots < lots {
			held := int64(0)
			if pos != nil {
				held = pos.lots
			}
			return types.Operation{}, fmt.Errorf("%w: held %d lots, sell %d", InsufficientPositionErr, held, lots)
		}
		acct.cash[inst.Currency] = acct.cash[inst.Currency].Add(cost).Sub(commission)
		pos.lots -= lots
		if pos.lots == 0 {
			delete(acct.positions, figi)
		}
		payment = cost
	default:
		return types.Operation{}, fmt.Errorf("unknown order direction %q", direction)
	}

	op := types.Operation{
		Time:       e.now,
		Figi:       figi,
		Direction:  direction,
		Lots:       lots,
		Price:      price,
		Payment:    payment,
		Commission: commission,
		Currency:   inst.Currency,
	}
	e.operations = append(e.operations, op)
	return op, nil
}

func (e *Exchange) applyBuy(acct *account, inst types.Instrument, price decimal.Decimal, lots int64) {
	pos := acct.positions[inst.Figi]
	if pos == nil {
		acct.positions[inst.Figi] = &position{
			figi:     inst.Figi,
			currency: inst.Currency,
			lots:     lots,
			avgPrice: price,
		}
		return
	}
	oldLots := decimal.NewFromInt(pos.lots)
	addLots := decimal.NewFromInt(lots)
	total := pos.avgPrice.Mul(oldLots).Add(price.Mul(addLots))
	pos.avgPrice = total.DivRound(oldLots.Add(addLots), money.Scale)
	pos.lots += lots
}

// Balance returns the cash balance of an account in one currency.
func (e *Exchange) Balance(accountID, currency string) decimal.Decimal {
	return e.account(accountID).cash[currency]
}

// Positions returns the account's open positions sorted by figi.
func (e *Exchange) Positions(accountID string) []types.Position {
	acct := e.account(accountID)
	figis := make([]string, 0, len(acct.positions))
	for figi := range acct.positions {
		figis = append(figis, figi)
	}
	sort.Strings(figis)
	out := make([]types.Position, 0, len(figis))
	for _, figi := range figis {
		pos := acct.positions[figi]
		out = append(out, types.Position{
			Figi:         pos.figi,
			Currency:     pos.currency,
			Lots:         pos.lots,
			AveragePrice: pos.avgPrice,
		})
	}
	return out
}

// Operations returns the history filtered by interval and instrument.
func (e *Exchange) Operations(interval types.Interval, figi string) []types.Operation {
	var out []types.Operation
	for _, op := range e.operations {
		if op.Figi != figi {
			continue
		}
		if !interval.Contains(op.Time) {
			continue
		}
		out = append(out, op)
	}
	return out
}

// Investments returns the account's investment entries for one currency,
// ordered by time.
func (e *Exchange) Investments(accountID, currency string) []money.TimedValue {
	acct := e.account(accountID)
	var out []money.TimedValue
	for _, inv := range acct.investments {
		if inv.currency != currency {
			continue
		}
		out = append(out, money.TimedValue{Time: inv.time, Value: inv.amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

func (e *Exchange) account(id string) *account {
	acct, ok := e.accounts[id]
	if !ok {
		acct = newAccount()
		e.accounts[id] = acct
	}
	return acct
}
