package schedule

import (
	"fmt"
	"time"

	"github.com/hashicorp/cronexpr"
)

// NextRunTimes returns the next N run times that a cron expression will run.
// Each run time is in UTC.
func NextRunTimes(cron string, n int) ([]time.Time, error) {
	cutoff := time.Now().UTC()
	return NextRunTimesAfter(cron, cutoff, n)
}

// NextRunTimesAfter returns the next N run times after a specific time.
// Fewer than N are returned when the expression stops matching, which
// happens for fragments bounded by a year.
// It returns an error if the cron expression is invalid or if count is less than 1.
func NextRunTimesAfter(cron string, after time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, fmt.Errorf("count must be greater than 0")
	}
	expr, err := cronexpr.Parse(cron)
	if err != nil {
		return nil, err
	}
	times := expr.NextN(after, uint(n))
	return trimZero(times), nil
}

func ValidateCron(cron string) error {
	_, err := cronexpr.Parse(cron)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// Occurrences walks fragments in order and returns up to limit run times
// after the given instant. Each fragment is evaluated from the last run time
// of the fragments before it, so a fragment that would fire earlier than its
// predecessor contributes nothing.
func Occurrences(fragments []string, after time.Time, limit int) ([]time.Time, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}
	exprs := make([]*cronexpr.Expression, 0, len(fragments))
	for _, f := range fragments {
		expr, err := cronexpr.Parse(f)
		if err != nil {
			return nil, fmt.Errorf("invalid cron fragment %q: %w", f, err)
		}
		exprs = append(exprs, expr)
	}

	var times []time.Time
	cursor := after
	for _, expr := range exprs {
		for len(times) < limit {
			next := expr.Next(cursor)
			if next.IsZero() {
				break
			}
			times = append(times, next)
			cursor = next
		}
	}
	return times, nil
}

func trimZero(times []time.Time) []time.Time {
	for i, t := range times {
		if t.IsZero() {
			return times[:i]
		}
	}
	return times
}
