package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// IncrementTimes materializes every trigger instant of a standard cron rule
// inside [from, to). It is a pure function of the rule and the interval.
func IncrementTimes(rule string, from, to time.Time) ([]time.Time, error) {
	spec, err := cron.ParseStandard(rule)
	if err != nil {
		return nil, fmt.Errorf("parse increment cron %q: %w", rule, err)
	}
	var out []time.Time
	for t := spec.Next(from.Add(-time.Nanosecond)); !t.IsZero() && t.Before(to); t = spec.Next(t) {
		out = append(out, t)
	}
	return out, nil
}
