package cronspan

import "time"

// MaxFragments is the most fragments Decompose ever returns.
const MaxFragments = 5

type spanKind int

const (
	sameMonth spanKind = iota
	crossMonth
	crossYear
)

func classify(start, end Date) spanKind {
	switch {
	case start.Year != end.Year:
		return crossYear
	case start.Month != end.Month:
		return crossMonth
	default:
		return sameMonth
	}
}

// Decompose returns the fragments that together fire once a day at the given
// time for every date in [start, end] and on no other date. Fragments are
// ordered chronologically and never overlap.
//
// It returns an *InvalidRangeError if start is after end.
func Decompose(start, end Date, at TimeOfDay) (Expression, error) {
	if start.After(end) {
		return nil, &InvalidRangeError{Start: start, End: end}
	}

	kind := classify(start, end)
	if kind == sameMonth {
		return Expression{
			newFragment(at, Span(start.Day, end.Day), Single(int(start.Month)), Single(start.Year)),
		}, nil
	}

	expr := make(Expression, 0, MaxFragments)
	expr = append(expr, firstFragment(start, at))
	switch kind {
	case crossMonth:
		expr = append(expr, crossMonthMiddle(start, end, at)...)
	case crossYear:
		expr = append(expr, crossYearMiddle(start, end, at)...)
	}
	expr = append(expr, lastFragment(end, at))
	return expr, nil
}

// firstFragment covers start through the end of its month.
func firstFragment(start Date, at TimeOfDay) Fragment {
	return newFragment(at, Span(start.Day, start.LastDayOfMonth()), Single(int(start.Month)), Single(start.Year))
}

// lastFragment covers the first of end's month through end.
func lastFragment(end Date, at TimeOfDay) Fragment {
	return newFragment(at, Span(1, end.Day), Single(int(end.Month)), Single(end.Year))
}

func crossMonthMiddle(start, end Date, at TimeOfDay) []Fragment {
	if start.Month+1 >= end.Month {
		return nil
	}
	return []Fragment{
		newFragment(at, Any, Span(int(start.Month)+1, int(end.Month)-1), Single(start.Year)),
	}
}

func crossYearMiddle(start, end Date, at TimeOfDay) []Fragment {
	middle := make([]Fragment, 0, 3)
	if start.Month < time.December {
		middle = append(middle, newFragment(at, Any, Span(int(start.Month)+1, int(time.December)), Single(start.Year)))
	}
	if end.Year-start.Year >= 2 {
		middle = append(middle, newFragment(at, Any, Any, Span(start.Year+1, end.Year-1)))
	}
	if end.Month > time.January {
		middle = append(middle, newFragment(at, Any, Span(int(time.January), int(end.Month)-1), Single(end.Year)))
	}
	return middle
}

// Daily returns an unbounded fragment firing every day at the given time.
func Daily(at TimeOfDay) Fragment {
	return newFragment(at, Any, Any, Any)
}
