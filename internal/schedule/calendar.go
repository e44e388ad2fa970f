package schedule

import (
	"sort"
	"time"

	"backsim/types"
)

// Calendar answers "what is the next valid trading minute" over an exchange
// trading schedule. Minutes are whole-minute marks inside [StartTime, EndTime)
// of trading days.
type Calendar struct {
	days []types.TradingDay
}

func NewCalendar(days []types.TradingDay) Calendar {
	trading := make([]types.TradingDay, 0, len(days))
	for _, d := range days {
		if d.IsTradingDay {
			trading = append(trading, d)
		}
	}
	sort.Slice(trading, func(i, j int) bool { return trading[i].StartTime.Before(trading[j].StartTime) })
	return Calendar{days: trading}
}

// FirstTradingMinute returns the earliest trading minute not before notBefore.
func (c Calendar) FirstTradingMinute(notBefore time.Time) (time.Time, bool) {
	t := notBefore.Truncate(time.Minute)
	if t.Before(notBefore) {
		t = t.Add(time.Minute)
	}
	for _, d := range c.days {
		if !d.EndTime.After(t) {
			continue
		}
		candidate := t
		if candidate.Before(d.StartTime) {
			candidate = d.StartTime.Truncate(time.Minute)
			if candidate.Before(d.StartTime) {
				candidate = candidate.Add(time.Minute)
			}
		}
		if candidate.Before(d.EndTime) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

// NextTradingMinute returns the earliest trading minute strictly after t.
func (c Calendar) NextTradingMinute(t time.Time) (time.Time, bool) {
	return c.FirstTradingMinute(t.Truncate(time.Minute).Add(time.Minute))
}
