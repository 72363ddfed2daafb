package cronspan

import (
	"fmt"
	"strconv"
	"strings"
)

// Field is one bounded position of a cron fragment: a single value,
// an inclusive range, or the wildcard.
type Field struct {
	lo, hi int
	any    bool
}

// Any matches every value of its position.
var Any = Field{any: true}

// Single matches exactly v.
func Single(v int) Field {
	return Field{lo: v, hi: v}
}

// Span matches every value in [lo, hi]. A span whose bounds are equal is
// a single value.
func Span(lo, hi int) Field {
	return Field{lo: lo, hi: hi}
}

// IsAny reports whether f is the wildcard.
func (f Field) IsAny() bool { return f.any }

// Bounds returns the inclusive bounds of f. It is meaningless for the wildcard.
func (f Field) Bounds() (lo, hi int) { return f.lo, f.hi }

// Contains reports whether v falls inside f.
func (f Field) Contains(v int) bool {
	return f.any || (f.lo <= v && v <= f.hi)
}

func (f Field) String() string {
	if f.any {
		return "*"
	}
	return renderBound(f.lo, f.hi)
}

func renderBound(lo, hi int) string {
	if lo == hi {
		return strconv.Itoa(lo)
	}
	return fmt.Sprintf("%d-%d", lo, hi)
}

// Fragment is a single cron expression covering a contiguous run of dates
// at a fixed time-of-day. Day-of-week is always left unspecified.
type Fragment struct {
	Second int
	Minute int
	Hour   int
	Day    Field
	Month  Field
	Year   Field
}

func newFragment(at TimeOfDay, day, month, year Field) Fragment {
	return Fragment{
		Second: at.Second,
		Minute: at.Minute,
		Hour:   at.Hour,
		Day:    day,
		Month:  month,
		Year:   year,
	}
}

// Matches reports whether f fires on date d.
func (f Fragment) Matches(d Date) bool {
	return f.Year.Contains(d.Year) && f.Month.Contains(int(d.Month)) && f.Day.Contains(d.Day)
}

// At returns the time-of-day f fires at.
func (f Fragment) At() TimeOfDay {
	return TimeOfDay{Hour: f.Hour, Minute: f.Minute, Second: f.Second}
}

// String renders f as "second minute hour day month ? year".
func (f Fragment) String() string {
	return fmt.Sprintf("%s %s %s ? %s", timeFields(f.At()), f.Day, f.Month, f.Year)
}

func timeFields(at TimeOfDay) string {
	return fmt.Sprintf("%d %d %d", at.Second, at.Minute, at.Hour)
}

// Expression is an ordered list of fragments, earliest-covering first.
type Expression []Fragment

// Separator joins rendered fragments in Expression.String.
const Separator = ","

// Strings renders every fragment, preserving order.
func (e Expression) Strings() []string {
	out := make([]string, len(e))
	for i, f := range e {
		out[i] = f.String()
	}
	return out
}

// String joins the rendered fragments with Separator. An empty expression
// renders as the empty string.
func (e Expression) String() string {
	return strings.Join(e.Strings(), Separator)
}

// Matches reports whether any fragment of e fires on d.
func (e Expression) Matches(d Date) bool {
	for _, f := range e {
		if f.Matches(d) {
			return true
		}
	}
	return false
}
