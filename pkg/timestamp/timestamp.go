// Package timestamp parses timestamp strings written in a fixed set of
// formats: ISO-8601 style date-times with a 'T' or whitespace separator,
// slash-separated dates, and the ctime-like "Fri Apr 13 09:39:21 UTC 2018".
//
// Patterns are attempted in a fixed order and the first one that consumes
// the entire input wins. A failed parse is reported only as a false second
// return value; callers cannot learn which pattern matched or why every
// pattern failed.
// No external dependencies - uses only standard library.
package timestamp

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp is a normalized calendar timestamp produced by Parse.
// Fields hold the values written in the input; nothing is converted to UTC.
type Timestamp struct {
	Year   int        `json:"year"`
	Month  time.Month `json:"month"`
	Day    int        `json:"day"`
	Hour   int        `json:"hour"`
	Minute int        `json:"minute"`
	Second int        `json:"second"`

	// Nanosecond is the sub-second fraction. Only meaningful when HasFraction is set.
	Nanosecond  int  `json:"nanosecond,omitempty"`
	HasFraction bool `json:"has_fraction,omitempty"`

	// Offset is the UTC offset in seconds east of UTC.
	// A timestamp without HasOffset is naive: its zone is unspecified.
	Offset    int  `json:"offset,omitempty"`
	HasOffset bool `json:"has_offset,omitempty"`
}

// Fraction returns the sub-second fraction and whether the input carried one.
func (t Timestamp) Fraction() (time.Duration, bool) {
	return time.Duration(t.Nanosecond), t.HasFraction
}

// Zone returns the UTC offset in seconds and whether the input carried one.
func (t Timestamp) Zone() (int, bool) {
	return t.Offset, t.HasOffset
}

// Time converts t to a time.Time. Offset-bearing timestamps keep their own
// fixed zone; naive timestamps are placed in naive (UTC when nil).
func (t Timestamp) Time(naive *time.Location) time.Time {
	loc := naive
	switch {
	case t.HasOffset && t.Offset == 0:
		loc = time.UTC
	case t.HasOffset:
		loc = time.FixedZone(formatOffset(t.Offset), t.Offset)
	case loc == nil:
		loc = time.UTC
	}
	return time.Date(t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second, t.Nanosecond, loc)
}

// UTC returns the instant in UTC, treating naive timestamps as UTC.
func (t Timestamp) UTC() time.Time {
	return t.Time(time.UTC).UTC()
}

// String renders t in canonical ISO-8601 form, e.g. "2018-04-13T09:39:21.578+08:00".
// Naive timestamps carry no zone suffix; a zero offset renders as "Z".
func (t Timestamp) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d-%02d-%02dT%02d:%02d:%02d",
		t.Year, int(t.Month), t.Day, t.Hour, t.Minute, t.Second)

	if t.HasFraction {
		frac := strings.TrimRight(fmt.Sprintf("%09d", t.Nanosecond), "0")
		if frac == "" {
			frac = "0"
		}
		b.WriteByte('.')
		b.WriteString(frac)
	}

	if t.HasOffset {
		if t.Offset == 0 {
			b.WriteByte('Z')
		} else {
			b.WriteString(formatOffset(t.Offset))
		}
	}

	return b.String()
}

// formatOffset renders seconds east of UTC as ±HH:MM, or ±HH:MM:SS when
// the offset is not a whole minute.
func formatOffset(offset int) string {
	sign := byte('+')
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	h, m, s := offset/3600, offset/60%60, offset%60
	if s != 0 {
		return fmt.Sprintf("%c%02d:%02d:%02d", sign, h, m, s)
	}
	return fmt.Sprintf("%c%02d:%02d", sign, h, m)
}
