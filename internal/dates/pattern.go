package dates

import (
	"fmt"
	"strings"
)

// layoutTokens maps pattern letter runs to Go reference-time layout elements.
var layoutTokens = map[string]string{
	"yyyy": "2006",
	"uuuu": "2006",
	"yy":   "06",
	"MMMM": "January",
	"MMM":  "Jan",
	"MM":   "01",
	"M":    "1",
	"dd":   "02",
	"d":    "2",
	"EEEE": "Monday",
	"EEE":  "Mon",
	"HH":   "15",
	"H":    "15",
	"hh":   "03",
	"h":    "3",
	"a":    "PM",
	"mm":   "04",
	"m":    "4",
	"ss":   "05",
	"s":    "5",
	"S":    "0",
	"SS":   "00",
	"SSS":  "000",
	"XXX":  "Z07:00",
	"Z":    "-0700",
}

// PatternError reports a pattern that cannot be translated to a Go layout.
type PatternError struct {
	Pattern string
	Token   string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("unsupported token %q in date pattern %q", e.Token, e.Pattern)
}

var _ error = (*PatternError)(nil)

// Layout translates a letter-based pattern such as "yyyy-MM-dd HH:mm:ss" into
// the equivalent Go layout. Text inside single quotes is copied verbatim and
// "''" stands for a literal quote. Characters that are not ASCII letters are
// copied as-is.
func Layout(pattern string) (string, error) {
	var b strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '\'':
			end := i + 1
			if end < len(runes) && runes[end] == '\'' {
				b.WriteRune('\'')
				i = end + 1
				continue
			}
			for end < len(runes) && runes[end] != '\'' {
				end++
			}
			if end == len(runes) {
				return "", &PatternError{Pattern: pattern, Token: string(runes[i:])}
			}
			b.WriteString(string(runes[i+1 : end]))
			i = end + 1
		case isLetter(r):
			j := i
			for j < len(runes) && runes[j] == r {
				j++
			}
			token := string(runes[i:j])
			layout, ok := layoutTokens[token]
			if !ok {
				return "", &PatternError{Pattern: pattern, Token: token}
			}
			b.WriteString(layout)
			i = j
		default:
			b.WriteRune(r)
			i++
		}
	}
	return b.String(), nil
}

func isLetter(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}
