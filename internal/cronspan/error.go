package cronspan

import "fmt"

// InvalidRangeError is returned when a range starts after it ends.
type InvalidRangeError struct {
	Start Date
	End   Date
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: start date %s must not be after end date %s", e.Start, e.End)
}

var _ error = (*InvalidRangeError)(nil)
