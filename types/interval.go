package types

import (
	"errors"
	"fmt"
	"iter"
	"time"
)

var InvalidIntervalErr = errors.New("invalid interval")

// Interval is an immutable [From, To] pair of instants. A zero endpoint means
// the interval is open on that side.
type Interval struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func NewInterval(from, to time.Time) (Interval, error) {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return Interval{}, fmt.Errorf("%w: from %s is after to %s", InvalidIntervalErr, from, to)
	}
	return Interval{From: from, To: to}, nil
}

// LimitByNow returns an interval whose open To endpoint is replaced by now.
// A closed To is left untouched.
func (i Interval) LimitByNow(now time.Time) Interval {
	if i.To.IsZero() {
		return Interval{From: i.From, To: now}
	}
	return i
}

func (i Interval) Contains(t time.Time) bool {
	if !i.From.IsZero() && t.Before(i.From) {
		return false
	}
	if !i.To.IsZero() && t.After(i.To) {
		return false
	}
	return true
}

// SplitIntoDailyIntervals yields sub-intervals each wholly within one calendar
// day. The first starts at From, the last ends at To, interior boundaries are
// start-of-day and end-of-day. Both endpoints must be closed.
func (i Interval) SplitIntoDailyIntervals() iter.Seq[Interval] {
	return func(yield func(Interval) bool) {
		if i.From.IsZero() || i.To.IsZero() {
			return
		}
		cur := i.From
		for {
			dayEnd := endOfDay(cur)
			if !dayEnd.Before(i.To) {
				yield(Interval{From: cur, To: i.To})
				return
			}
			if !yield(Interval{From: cur, To: dayEnd}) {
				return
			}
			cur = startOfDay(cur).AddDate(0, 0, 1)
		}
	}
}

// ToDays returns the exact fractional day count of the interval.
func (i Interval) ToDays() float64 {
	return float64(i.To.Sub(i.From)) / float64(24*time.Hour)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
