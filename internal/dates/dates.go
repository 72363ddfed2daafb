// Package dates parses and formats dates and times using letter-based
// patterns ("yyyy-MM-dd", "HH:mm:ss") and converts between timestamps,
// calendar dates and epoch values.
package dates

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultDateTimePattern = "yyyy-MM-dd HH:mm:ss"
	DefaultDatePattern     = "yyyy-MM-dd"
	DefaultTimePattern     = "HH:mm:ss"

	CompactDatePattern     = "yyyyMMdd"
	CompactDateTimePattern = "yyyyMMddHHmmss"
	CompactTimePattern     = "HHmmss"
	SlashDatePattern       = "yyyy/MM/dd"
	SlashDateTimePattern   = "yyyy/MM/dd HH:mm:ss"
	SlashTimePattern       = "HH/mm/ss"
)

// ChinaOffset is the fixed offset used by ToEpochSecond and ToEpochMilli.
var ChinaOffset = time.FixedZone("UTC+8", 8*60*60)

// ErrEmptyInput is returned when there is no text or no pattern to parse.
var ErrEmptyInput = errors.New("empty date input")

// ParseInLocation parses text with the given pattern, interpreting it in loc.
func ParseInLocation(text, pattern string, loc *time.Location) (time.Time, error) {
	if text == "" || pattern == "" {
		return time.Time{}, ErrEmptyInput
	}
	layout, err := Layout(pattern)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(layout, text, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %q with pattern %q: %w", text, pattern, err)
	}
	return t, nil
}

// ParseDate parses a date in DefaultDatePattern. The result is midnight UTC.
func ParseDate(text string) (time.Time, error) {
	return ParseDateWithPattern(text, DefaultDatePattern)
}

func ParseDateWithPattern(text, pattern string) (time.Time, error) {
	return ParseInLocation(text, pattern, time.UTC)
}

// ParseTime parses a time-of-day in DefaultTimePattern. The date part of the
// result is January 1st of year 0.
func ParseTime(text string) (time.Time, error) {
	return ParseTimeWithPattern(text, DefaultTimePattern)
}

func ParseTimeWithPattern(text, pattern string) (time.Time, error) {
	return ParseInLocation(text, pattern, time.UTC)
}

// ParseDateTime parses a timestamp in DefaultDateTimePattern, in UTC.
func ParseDateTime(text string) (time.Time, error) {
	return ParseDateTimeWithPattern(text, DefaultDateTimePattern)
}

func ParseDateTimeWithPattern(text, pattern string) (time.Time, error) {
	return ParseInLocation(text, pattern, time.UTC)
}

// Format renders t with the given pattern. It returns "" for the zero time,
// an empty pattern, or a pattern that cannot be translated.
func Format(t time.Time, pattern string) string {
	if t.IsZero() || pattern == "" {
		return ""
	}
	layout, err := Layout(pattern)
	if err != nil {
		return ""
	}
	return t.Format(layout)
}

func FormatDate(t time.Time) string     { return Format(t, DefaultDatePattern) }
func FormatTime(t time.Time) string     { return Format(t, DefaultTimePattern) }
func FormatDateTime(t time.Time) string { return Format(t, DefaultDateTimePattern) }

// StartOfDay truncates t to midnight of its calendar date in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ToEpochSecond interprets the wall clock of t at ChinaOffset.
func ToEpochSecond(t time.Time) int64 {
	return ToEpochSecondAt(t, ChinaOffset)
}

// ToEpochSecondAt interprets the wall clock of t in loc and returns the Unix
// seconds of that instant.
func ToEpochSecondAt(t time.Time, loc *time.Location) int64 {
	return wallClockIn(t, loc).Unix()
}

func ToEpochMilli(t time.Time) int64 {
	return ToEpochMilliAt(t, ChinaOffset)
}

func ToEpochMilliAt(t time.Time, loc *time.Location) int64 {
	return wallClockIn(t, loc).UnixMilli()
}

func wallClockIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	return time.Date(y, m, d, hh, mm, ss, t.Nanosecond(), loc)
}
