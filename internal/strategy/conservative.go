package strategy

import "backsim/types"

// Conservative buys whenever cash permits at least one lot and never sells.
type Conservative struct{}

func (Conservative) Name() string { return TypeConservative }

func (Conservative) WindowSize() int { return 1 }

func (Conservative) InitCache() Cache { return nil }

func (Conservative) Decide(window []types.Candle, view LedgerView, cache Cache) (types.Decision, Cache) {
	price, ok := lastClose(window)
	if !ok {
		return types.Wait(), cache
	}
	return buyOrWait(view, price), cache
}
