package cronspan_test

import (
	"testing"
	"time"

	"github.com/glizzus/cronspan/internal/cronspan"
)

func TestFieldString(t *testing.T) {
	tests := []struct {
		field cronspan.Field
		want  string
	}{
		{field: cronspan.Single(7), want: "7"},
		{field: cronspan.Span(3, 3), want: "3"},
		{field: cronspan.Span(1, 31), want: "1-31"},
		{field: cronspan.Any, want: "*"},
	}
	for _, tt := range tests {
		if got := tt.field.String(); got != tt.want {
			t.Errorf("%#v.String() = %q; want %q", tt.field, got, tt.want)
		}
	}
}

func TestFieldContains(t *testing.T) {
	span := cronspan.Span(4, 9)
	for v, want := range map[int]bool{3: false, 4: true, 6: true, 9: true, 10: false} {
		if got := span.Contains(v); got != want {
			t.Errorf("Span(4, 9).Contains(%d) = %v; want %v", v, got, want)
		}
	}
	if !cronspan.Any.Contains(2099) {
		t.Errorf("Any.Contains(2099) = false")
	}
}

func TestDateHelpers(t *testing.T) {
	tests := []struct {
		date    cronspan.Date
		lastDay int
	}{
		{date: date(2023, 2, 10), lastDay: 28},
		{date: date(2024, 2, 10), lastDay: 29},
		{date: date(1900, 2, 1), lastDay: 28},
		{date: date(2000, 2, 1), lastDay: 29},
		{date: date(2023, 4, 30), lastDay: 30},
		{date: date(2023, 12, 1), lastDay: 31},
	}
	for _, tt := range tests {
		if got := tt.date.LastDayOfMonth(); got != tt.lastDay {
			t.Errorf("%s.LastDayOfMonth() = %d; want %d", tt.date, got, tt.lastDay)
		}
	}

	if got, want := date(2023, 12, 31).AddDays(1), date(2024, 1, 1); got != want {
		t.Errorf("AddDays(1) = %s; want %s", got, want)
	}
	if got, want := date(2024, 3, 1).AddDays(-1), date(2024, 2, 29); got != want {
		t.Errorf("AddDays(-1) = %s; want %s", got, want)
	}
	if got, want := cronspan.NewDate(2023, 13, 1), date(2024, 1, 1); got != want {
		t.Errorf("NewDate normalized to %s; want %s", got, want)
	}
	if !date(2023, 1, 31).Before(date(2023, 2, 1)) || date(2023, 2, 1).Before(date(2023, 2, 1)) {
		t.Errorf("Before ordering is wrong")
	}
}

func TestDateOfKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	ts := time.Date(2023, 12, 31, 20, 0, 0, 0, time.UTC).In(loc)
	if got, want := cronspan.DateOf(ts), date(2024, 1, 1); got != want {
		t.Errorf("DateOf(%v) = %s; want %s", ts, got, want)
	}
}
