package timestamp

import "slices"

var (
	isoDate   = []step{year, lit('-'), month, lit('-'), day}
	slashDate = []step{year, lit('/'), month, lit('/'), day}
	clock     = []step{hour, lit(':'), minute, lit(':'), second}
)

// family builds the six numeric variants sharing one date shape and
// date/time separator, in attempt order: UTC 'Z', numeric offset, naive,
// each without then with a fractional second.
func family(prefix string, date []step, sep step) []Pattern {
	head := append(slices.Clone(date), sep)
	return []Pattern{
		build(prefix+"-utc", head, clock, []step{zulu}),
		build(prefix+"-utc-fraction", head, clock, []step{fraction, zulu}),
		build(prefix+"-offset", head, clock, []step{offset}),
		build(prefix+"-offset-fraction", head, clock, []step{fraction, offset}),
		build(prefix+"-local", head, clock),
		build(prefix+"-local-fraction", head, clock, []step{fraction}),
	}
}

// ctime matches "Fri Apr 13 09:39:21 UTC 2018".
var ctime = build("ctime-zone",
	[]step{weekday, space, monthName, space, day, space},
	clock,
	[]step{space, zoneName, space, year},
)

// patterns is the fixed attempt order. It is never modified after init.
var patterns = slices.Concat(
	family("iso", isoDate, lit('T')),
	family("space", isoDate, space),
	family("slash", slashDate, space),
	[]Pattern{ctime},
)

// Parse tries every pattern in order and returns the first whole-input
// match. The second result is false when no pattern matched.
// Parse is safe for concurrent use.
func Parse(input string) (Timestamp, bool) {
	ts, _, ok := parse(input)
	return ts, ok
}

// parse also returns the index of the winning pattern, -1 on no match.
func parse(input string) (Timestamp, int, bool) {
	for i, p := range patterns {
		if ts, ok := p.match(input); ok {
			return ts, i, true
		}
	}
	return Timestamp{}, -1, false
}

// Patterns returns the pattern names in the order they are attempted.
func Patterns() []string {
	names := make([]string, len(patterns))
	for i, p := range patterns {
		names[i] = p.Name
	}
	return names
}
