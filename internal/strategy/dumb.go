package strategy

import (
	"github.com/shopspring/decimal"

	"backsim/types"
)

// Dumb is the reactive buy-then-sell-at-profit strategy: with no position it
// behaves like Conservative; holding one it sells as soon as the unrealized
// profit fraction reaches minProfit, and otherwise keeps trying to buy.
type Dumb struct {
	minProfit decimal.Decimal
}

func newDumb(p params) (Dumb, error) {
	minProfit, err := p.decimal("minProfit", decimal.NewFromFloat(0.01))
	if err != nil {
		return Dumb{}, err
	}
	return Dumb{minProfit: minProfit}, nil
}

func (Dumb) Name() string { return TypeDumb }

func (Dumb) WindowSize() int { return 1 }

func (Dumb) InitCache() Cache { return nil }

func (d Dumb) Decide(window []types.Candle, view LedgerView, cache Cache) (types.Decision, Cache) {
	price, ok := lastClose(window)
	if !ok {
		return types.Wait(), cache
	}
	if view.PositionLots == 0 {
		return buyOrWait(view, price), cache
	}
	if decision := sellOrWait(view, price, d.minProfit); decision.Action == types.ActionSell {
		return decision, cache
	}
	return buyOrWait(view, price), cache
}
