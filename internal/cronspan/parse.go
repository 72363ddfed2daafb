package cronspan

import (
	"fmt"
	"time"

	"github.com/glizzus/cronspan/internal/dates"
)

// Parser turns textual input into dates and times-of-day.
type Parser struct {
	DatePattern string
	TimePattern string
}

// DefaultParser reads dates as "yyyy-MM-dd" and times as "HH:mm:ss".
var DefaultParser = Parser{
	DatePattern: dates.DefaultDatePattern,
	TimePattern: dates.DefaultTimePattern,
}

func (p Parser) ParseDate(text string) (Date, error) {
	t, err := dates.ParseDateWithPattern(text, p.DatePattern)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (p Parser) ParseTimeOfDay(text string) (TimeOfDay, error) {
	t, err := dates.ParseTimeWithPattern(text, p.TimePattern)
	if err != nil {
		return TimeOfDay{}, err
	}
	return TimeOfDayOf(t), nil
}

// ParseRange parses the arguments of Decompose without decomposing them.
func (p Parser) ParseRange(start, end, at string) (Date, Date, TimeOfDay, error) {
	startDate, err := p.ParseDate(start)
	if err != nil {
		return Date{}, Date{}, TimeOfDay{}, fmt.Errorf("invalid start date: %w", err)
	}
	endDate, err := p.ParseDate(end)
	if err != nil {
		return Date{}, Date{}, TimeOfDay{}, fmt.Errorf("invalid end date: %w", err)
	}
	tod, err := p.ParseTimeOfDay(at)
	if err != nil {
		return Date{}, Date{}, TimeOfDay{}, fmt.Errorf("invalid time of day: %w", err)
	}
	return startDate, endDate, tod, nil
}

// Decompose parses its arguments and decomposes the resulting range.
func (p Parser) Decompose(start, end, at string) (Expression, error) {
	startDate, endDate, tod, err := p.ParseRange(start, end, at)
	if err != nil {
		return nil, err
	}
	return Decompose(startDate, endDate, tod)
}

// Daily parses a time-of-day and returns the unbounded daily fragment for it.
func (p Parser) Daily(at string) (Fragment, error) {
	tod, err := p.ParseTimeOfDay(at)
	if err != nil {
		return Fragment{}, fmt.Errorf("invalid time of day: %w", err)
	}
	return Daily(tod), nil
}

// DecomposeStrings is Decompose over DefaultParser's formats.
func DecomposeStrings(start, end, at string) (Expression, error) {
	return DefaultParser.Decompose(start, end, at)
}

// DailyString is Daily over DefaultParser's time format.
func DailyString(at string) (Fragment, error) {
	return DefaultParser.Daily(at)
}

// DecomposeTimes takes the calendar dates of start and end and the clock of
// at, each in its own location.
func DecomposeTimes(start, end, at time.Time) (Expression, error) {
	return Decompose(DateOf(start), DateOf(end), TimeOfDayOf(at))
}
