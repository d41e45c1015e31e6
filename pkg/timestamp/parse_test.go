package timestamp

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Scenarios(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  Timestamp
	}{
		{
			name:  "ISOLocal",
			input: "2018-04-13T09:39:21",
			want:  Timestamp{Year: 2018, Month: time.April, Day: 13, Hour: 9, Minute: 39, Second: 21},
		},
		{
			name:  "ISOLocalFraction",
			input: "2018-04-13T09:39:21.578",
			want: Timestamp{Year: 2018, Month: time.April, Day: 13, Hour: 9, Minute: 39, Second: 21,
				Nanosecond: 578000000, HasFraction: true},
		},
		{
			name:  "ISOOffset",
			input: "2018-04-13T09:39:21+0800",
			want: Timestamp{Year: 2018, Month: time.April, Day: 13, Hour: 9, Minute: 39, Second: 21,
				Offset: 8 * 3600, HasOffset: true},
		},
		{
			name:  "SlashDate",
			input: "2018/04/13 09:39:21",
			want:  Timestamp{Year: 2018, Month: time.April, Day: 13, Hour: 9, Minute: 39, Second: 21},
		},
		{
			name:  "CtimeUTC",
			input: "Fri Apr 13 09:39:21 UTC 2018",
			want: Timestamp{Year: 2018, Month: time.April, Day: 13, Hour: 9, Minute: 39, Second: 21,
				HasOffset: true},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Parse(tc.input)
			require.True(t, ok, "expected %q to parse", tc.input)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParse_NotATimestamp(t *testing.T) {
	got, ok := Parse("not a timestamp")
	assert.False(t, ok)
	assert.Equal(t, Timestamp{}, got)
}

func TestParse_AllShapes(t *testing.T) {
	cases := []struct {
		input   string
		pattern string
		want    Timestamp
	}{
		{"2018-04-13T09:39:21Z", "iso-utc",
			Timestamp{Year: 2018, Month: 4, Day: 13, Hour: 9, Minute: 39, Second: 21, HasOffset: true}},
		{"2018-04-13T09:39:21.5Z", "iso-utc-fraction",
			Timestamp{Year: 2018, Month: 4, Day: 13, Hour: 9, Minute: 39, Second: 21,
				Nanosecond: 500000000, HasFraction: true, HasOffset: true}},
		{"2018-04-13T09:39:21-05:30", "iso-offset",
			Timestamp{Year: 2018, Month: 4, Day: 13, Hour: 9, Minute: 39, Second: 21,
				Offset: -(5*3600 + 30*60), HasOffset: true}},
		{"2018-04-13T09:39:21.000123+0000", "iso-offset-fraction",
			Timestamp{Year: 2018, Month: 4, Day: 13, Hour: 9, Minute: 39, Second: 21,
				Nanosecond: 123000, HasFraction: true, HasOffset: true}},
		{"2018-04-13 09:39:21Z", "space-utc",
			Timestamp{Year: 2018, Month: 4, Day: 13, Hour: 9, Minute: 39, Second: 21, HasOffset: true}},
		{"2018-04-13 09:39:21.1Z", "space-utc-fraction",
			Timestamp{Year: 2018, Month: 4, Day: 13, Hour: 9, Minute: 39, Second: 21,
				Nanosecond: 100000000, HasFraction: true, HasOffset: true}},
		{"2018-04-13 09:39:21+08:00", "space-offset",
			Timestamp{Year: 2018, Month: 4, Day: 13, Hour: 9, Minute: 39, Second: 21,
				Offset: 8 * 3600, HasOffset: true}},
		{"2018-04-13 09:39:21.25-0100", "space-offset-fraction",
			Timestamp{Year: 2018, Month: 4, Day: 13, Hour: 9, Minute: 39, Second: 21,
				Nanosecond: 250000000, HasFraction: true, Offset: -3600, HasOffset: true}},
		{"2018-04-13 09:39:21", "space-local",
			Timestamp{Year: 2018, Month: 4, Day: 13, Hour: 9, Minute: 39, Second: 21}},
		{"2018-04-13 09:39:21.999999", "space-local-fraction",
			Timestamp{Year: 2018, Month: 4, Day: 13, Hour: 9, Minute: 39, Second: 21,
				Nanosecond: 999999000, HasFraction: true}},
		{"2018/04/13 09:39:21Z", "slash-utc",
			Timestamp{Year: 2018, Month: 4, Day: 13, Hour: 9, Minute: 39, Second: 21, HasOffset: true}},
		{"2018/04/13 09:39:21+0200", "slash-offset",
			Timestamp{Year: 2018, Month: 4, Day: 13, Hour: 9, Minute: 39, Second: 21,
				Offset: 7200, HasOffset: true}},
		{"2018/04/13 09:39:21.42", "slash-local-fraction",
			Timestamp{Year: 2018, Month: 4, Day: 13, Hour: 9, Minute: 39, Second: 21,
				Nanosecond: 420000000, HasFraction: true}},
		{"Sat Feb  3 07:05:09 GMT 2024", "ctime-zone",
			Timestamp{Year: 2024, Month: 2, Day: 3, Hour: 7, Minute: 5, Second: 9, HasOffset: true}},
	}

	for _, tc := range cases {
		t.Run(tc.pattern, func(t *testing.T) {
			got, idx, ok := parse(tc.input)
			require.True(t, ok, "expected %q to parse", tc.input)
			assert.Equal(t, tc.pattern, patterns[idx].Name)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParse_RejectsPartialMatches(t *testing.T) {
	inputs := []string{
		"",
		" 2018-04-13T09:39:21",
		"2018-04-13T09:39:21 ",
		"x2018-04-13T09:39:21",
		"2018-04-13T09:39:21Zx",
		"2018-04-13T09:39:21+0800 ",
		"2018-04-13",
		"2018-04-13T09:39",
		"2018-04-13T09:39:21.",
		"Fri Apr 13 09:39:21 UTC 2018!",
		"Friday Apr 13 09:39:21 UTC 2018",
		"timestamp: 2018/04/13 09:39:21",
	}

	for _, in := range inputs {
		_, ok := Parse(in)
		assert.False(t, ok, "expected %q to be rejected", in)
	}
}

func TestParse_CalendarValidation(t *testing.T) {
	cases := []struct {
		input string
		ok    bool
	}{
		{"2020-02-29T00:00:00", true},
		{"2019-02-29T00:00:00", false},
		{"2000-02-29T00:00:00", true},
		{"1900-02-29T00:00:00", false},
		{"2018-04-31T00:00:00", false},
		{"2018-12-31T23:59:59", true},
		{"2018-13-01T00:00:00", false},
		{"2018-00-10T00:00:00", false},
		{"2018-04-00T00:00:00", false},
		{"2018-04-13T24:00:00", false},
		{"2018-04-13T23:60:00", false},
		{"2018-04-13T23:59:60", false},
		{"0000-01-01T00:00:00", false},
		{"2018-4-3T9:05:07", true},
	}

	for _, tc := range cases {
		_, ok := Parse(tc.input)
		assert.Equal(t, tc.ok, ok, "input %q", tc.input)
	}
}

func TestParse_OffsetValidation(t *testing.T) {
	cases := []struct {
		input  string
		ok     bool
		offset int
	}{
		{"2018-04-13T09:39:21+2359", true, 23*3600 + 59*60},
		{"2018-04-13T09:39:21+23:59", true, 23*3600 + 59*60},
		{"2018-04-13T09:39:21-0530", true, -(5*3600 + 30*60)},
		{"2018-04-13T09:39:21+05:30:15", true, 5*3600 + 30*60 + 15},
		{"2018-04-13T09:39:21+053015", true, 5*3600 + 30*60 + 15},
		{"2018-04-13T09:39:21+2400", false, 0},
		{"2018-04-13T09:39:21+0860", false, 0},
		{"2018-04-13T09:39:21+08:0", false, 0},
		{"2018-04-13T09:39:21+08", false, 0},
		{"2018-04-13T09:39:21+08:0030", false, 0},
		{"2018-04-13T09:39:21+0800:30", false, 0},
		{"2018-04-13T09:39:21 +0800", false, 0},
	}

	for _, tc := range cases {
		got, ok := Parse(tc.input)
		if !assert.Equal(t, tc.ok, ok, "input %q", tc.input) || !ok {
			continue
		}
		assert.True(t, got.HasOffset)
		assert.Equal(t, tc.offset, got.Offset, "input %q", tc.input)
	}
}

func TestParse_FractionLength(t *testing.T) {
	cases := []struct {
		input string
		nanos int
	}{
		{"2018-04-13T09:39:21.5", 500000000},
		{"2018-04-13T09:39:21.578", 578000000},
		{"2018-04-13T09:39:21.123456", 123456000},
		{"2018-04-13T09:39:21.123456789", 123456789},
		{"2018-04-13T09:39:21.1234567891234", 123456789},
	}

	for _, tc := range cases {
		got, ok := Parse(tc.input)
		require.True(t, ok, "expected %q to parse", tc.input)
		frac, has := got.Fraction()
		assert.True(t, has)
		assert.Equal(t, time.Duration(tc.nanos), frac, "input %q", tc.input)
	}
}

func TestParse_CaseInsensitiveLiterals(t *testing.T) {
	for _, in := range []string{
		"2018-04-13t09:39:21z",
		"fri apr 13 09:39:21 utc 2018",
		"FRI APR 13 09:39:21 GMT 2018",
	} {
		_, ok := Parse(in)
		assert.True(t, ok, "expected %q to parse", in)
	}
}

func TestParse_ZoneNamesAreFixed(t *testing.T) {
	for _, in := range []string{
		"Fri Apr 13 09:39:21 EST 2018",
		"Fri Apr 13 09:39:21 MSK 2018",
		"Fri Apr 13 09:39:21 2018",
	} {
		_, ok := Parse(in)
		assert.False(t, ok, "expected %q to be rejected", in)
	}
}

func TestParse_WeekdayNotCheckedAgainstDate(t *testing.T) {
	got, ok := Parse("Mon Apr 13 09:39:21 UTC 2018")
	require.True(t, ok)
	assert.Equal(t, time.Friday, got.UTC().Weekday())
}

func TestParse_Precedence(t *testing.T) {
	const input = "2018-04-13T09:39:21Z"

	// Both the literal-Z pattern and the numeric-offset pattern accept this input.
	var candidates []string
	for _, p := range patterns {
		if _, ok := p.match(input); ok {
			candidates = append(candidates, p.Name)
		}
	}
	require.Equal(t, []string{"iso-utc", "iso-offset"}, candidates)

	_, idx, ok := parse(input)
	require.True(t, ok)
	assert.Equal(t, "iso-utc", patterns[idx].Name)
}

func TestParse_Deterministic(t *testing.T) {
	inputs := []string{
		"2018-04-13T09:39:21+0800",
		"2018-04-13 09:39:21",
		"Fri Apr 13 09:39:21 UTC 2018",
		"garbage",
	}

	for _, in := range inputs {
		first, firstOK := Parse(in)
		for i := 0; i < 10; i++ {
			again, ok := Parse(in)
			assert.Equal(t, firstOK, ok)
			assert.Equal(t, first, again)
		}
	}
}

func TestParse_ConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan string, 64)

	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				in := fmt.Sprintf("2018-04-13T09:%02d:%02d.%d+0800", g, i%60, i)
				ts, ok := Parse(in)
				if !ok || ts.Minute != g || ts.Second != i%60 {
					errs <- in
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)

	for in := range errs {
		t.Errorf("concurrent parse failed for %q", in)
	}
}

func TestPatterns_Order(t *testing.T) {
	names := Patterns()
	require.Len(t, names, 19)
	assert.Equal(t, "iso-utc", names[0])
	assert.Equal(t, "iso-local-fraction", names[5])
	assert.Equal(t, "space-utc", names[6])
	assert.Equal(t, "slash-utc", names[12])
	assert.Equal(t, "ctime-zone", names[18])

	// Callers get a copy.
	names[0] = "changed"
	assert.Equal(t, "iso-utc", Patterns()[0])
}
