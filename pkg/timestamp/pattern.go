package timestamp

import (
	"strings"
	"time"
)

// Pattern is one timestamp grammar. Patterns are immutable once built.
type Pattern struct {
	Name  string
	steps []step
}

// step consumes part of the input and records what it read into ts.
type step func(s *scanner, ts *Timestamp) bool

// match reports whether the pattern consumes the whole input and yields
// a real calendar date.
func (p Pattern) match(input string) (Timestamp, bool) {
	s := scanner{src: input}
	var ts Timestamp

	for _, st := range p.steps {
		if !st(&s, &ts) {
			return Timestamp{}, false
		}
	}

	if !s.done() || ts.Day > daysIn(ts.Month, ts.Year) {
		return Timestamp{}, false
	}
	return ts, true
}

func build(name string, groups ...[]step) Pattern {
	var steps []step
	for _, g := range groups {
		steps = append(steps, g...)
	}
	return Pattern{Name: name, steps: steps}
}

// ══════════════════════════════════════════════════════════════════════════════
// SCANNER
// ══════════════════════════════════════════════════════════════════════════════

type scanner struct {
	src string
	pos int
}

func (s *scanner) done() bool {
	return s.pos == len(s.src)
}

func (s *scanner) peek() (byte, bool) {
	if s.pos >= len(s.src) {
		return 0, false
	}
	return s.src[s.pos], true
}

// accept consumes c if it is next, ignoring ASCII letter case.
func (s *scanner) accept(c byte) bool {
	b, ok := s.peek()
	if !ok || lower(b) != lower(c) {
		return false
	}
	s.pos++
	return true
}

// digits consumes between minDigits and maxDigits ASCII digits and returns their value.
func (s *scanner) digits(minDigits, maxDigits int) (int, bool) {
	n, v := 0, 0
	for n < maxDigits && s.pos+n < len(s.src) && isDigit(s.src[s.pos+n]) {
		v = v*10 + int(s.src[s.pos+n]-'0')
		n++
	}
	if n < minDigits {
		return 0, false
	}
	s.pos += n
	return v, true
}

// letters consumes a run of ASCII letters.
func (s *scanner) letters() string {
	start := s.pos
	for s.pos < len(s.src) && isLetter(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos]
}

// ══════════════════════════════════════════════════════════════════════════════
// STEPS
// ══════════════════════════════════════════════════════════════════════════════

func number(minDigits, maxDigits, lo, hi int, set func(*Timestamp, int)) step {
	return func(s *scanner, ts *Timestamp) bool {
		v, ok := s.digits(minDigits, maxDigits)
		if !ok || v < lo || v > hi {
			return false
		}
		set(ts, v)
		return true
	}
}

var (
	year   = number(4, 4, 1, 9999, func(ts *Timestamp, v int) { ts.Year = v })
	month  = number(1, 2, 1, 12, func(ts *Timestamp, v int) { ts.Month = time.Month(v) })
	day    = number(1, 2, 1, 31, func(ts *Timestamp, v int) { ts.Day = v })
	hour   = number(1, 2, 0, 23, func(ts *Timestamp, v int) { ts.Hour = v })
	minute = number(1, 2, 0, 59, func(ts *Timestamp, v int) { ts.Minute = v })
	second = number(1, 2, 0, 59, func(ts *Timestamp, v int) { ts.Second = v })
)

func lit(c byte) step {
	return func(s *scanner, _ *Timestamp) bool {
		return s.accept(c)
	}
}

// space matches one or more whitespace characters.
func space(s *scanner, _ *Timestamp) bool {
	start := s.pos
	for s.pos < len(s.src) && isSpace(s.src[s.pos]) {
		s.pos++
	}
	return s.pos > start
}

// fraction matches '.' followed by at least one digit. Digits past
// nanosecond precision are read but dropped.
func fraction(s *scanner, ts *Timestamp) bool {
	if !s.accept('.') {
		return false
	}
	n, nanos := 0, 0
	for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
		if n < 9 {
			nanos = nanos*10 + int(s.src[s.pos]-'0')
		}
		n++
		s.pos++
	}
	if n == 0 {
		return false
	}
	for i := n; i < 9; i++ {
		nanos *= 10
	}
	ts.Nanosecond = nanos
	ts.HasFraction = true
	return true
}

// zulu matches a literal 'Z' designating UTC.
func zulu(s *scanner, ts *Timestamp) bool {
	if !s.accept('Z') {
		return false
	}
	ts.Offset, ts.HasOffset = 0, true
	return true
}

// offset matches ±HH[:]MM[[:]SS] with consistent colons, or a bare 'Z'.
// The result must be a real UTC offset, strictly less than 24 hours.
func offset(s *scanner, ts *Timestamp) bool {
	c, ok := s.peek()
	if !ok {
		return false
	}
	if c == 'Z' {
		s.pos++
		ts.Offset, ts.HasOffset = 0, true
		return true
	}
	if c != '+' && c != '-' {
		return false
	}
	s.pos++

	hh, ok := s.digits(2, 2)
	if !ok {
		return false
	}
	colon := s.accept(':')
	mm, ok := s.digits(2, 2)
	if !ok || mm > 59 {
		return false
	}

	ss := 0
	if (colon && s.accept(':')) || (!colon && s.pos < len(s.src) && isDigit(s.src[s.pos])) {
		ss, ok = s.digits(2, 2)
		if !ok || ss > 59 {
			return false
		}
	}

	total := hh*3600 + mm*60 + ss
	if total >= 24*3600 {
		return false
	}
	if c == '-' {
		total = -total
	}
	ts.Offset, ts.HasOffset = total, true
	return true
}

var weekdays = map[string]bool{
	"mon": true, "tue": true, "wed": true, "thu": true,
	"fri": true, "sat": true, "sun": true,
}

// weekday matches an abbreviated weekday name. It is not checked against the date.
func weekday(s *scanner, _ *Timestamp) bool {
	return weekdays[strings.ToLower(s.letters())]
}

var monthNames = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// monthName matches an abbreviated month name.
func monthName(s *scanner, ts *Timestamp) bool {
	m, ok := monthNames[strings.ToLower(s.letters())]
	if !ok {
		return false
	}
	ts.Month = time.Month(m)
	return true
}

// Zone names accepted by the textual form. Only zones with a fixed,
// location-independent meaning are listed.
var zoneNames = map[string]int{
	"UTC": 0,
	"GMT": 0,
}

func zoneName(s *scanner, ts *Timestamp) bool {
	off, ok := zoneNames[strings.ToUpper(s.letters())]
	if !ok {
		return false
	}
	ts.Offset, ts.HasOffset = off, true
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func daysIn(m time.Month, year int) int {
	switch m {
	case 2:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	}
	return 31
}
