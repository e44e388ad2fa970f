package types

type Action string

const (
	ActionWait Action = "WAIT"
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Decision is the outcome of one strategy step. Lots is zero for WAIT.
type Decision struct {
	Action Action `json:"action"`
	Lots   int64  `json:"lots"`
}

func Wait() Decision {
	return Decision{Action: ActionWait}
}

func Buy(lots int64) Decision {
	return Decision{Action: ActionBuy, Lots: lots}
}

func Sell(lots int64) Decision {
	return Decision{Action: ActionSell, Lots: lots}
}
