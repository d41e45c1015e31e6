// Package output renders normalized records for the command line: one JSON
// object per line, or CSV with a header row.
package output

import (
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/alem-hub/timestamp-normalizer/internal/domain/normalization"
)

// Formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Row is the rendered form of one record.
type Row struct {
	Position int    `json:"position"`
	Input    string `json:"input"`

	// InputBase64 holds the exact input bytes when they are not valid UTF-8.
	// JSON encoding replaces such bytes in Input with U+FFFD.
	InputBase64 string `json:"input_base64,omitempty"`

	Matched   bool   `json:"matched"`
	Timestamp string `json:"timestamp,omitempty"`

	// UTC is the instant in RFC 3339 form. Set for offset-bearing timestamps,
	// and for naive ones when a naive location is configured.
	UTC string `json:"utc,omitempty"`

	HasOffset     bool `json:"has_offset"`
	OffsetSeconds *int `json:"offset_seconds,omitempty"`
}

// NewRow renders rec. naive may be nil.
func NewRow(rec normalization.Record, naive *time.Location) Row {
	row := Row{
		Position: rec.Position,
		Input:    rec.Input,
		Matched:  rec.Matched,
	}
	if !utf8.ValidString(rec.Input) {
		row.InputBase64 = base64.StdEncoding.EncodeToString([]byte(rec.Input))
	}
	if !rec.Matched {
		return row
	}

	ts := rec.Timestamp
	row.Timestamp = ts.String()
	if offset, ok := ts.Zone(); ok {
		row.HasOffset = true
		row.OffsetSeconds = &offset
		row.UTC = ts.UTC().Format(time.RFC3339Nano)
	} else if naive != nil {
		row.UTC = ts.Time(naive).UTC().Format(time.RFC3339Nano)
	}
	return row
}

// Writer writes records in order.
type Writer interface {
	Write(rec normalization.Record) error

	// Flush writes any buffered data to the underlying io.Writer.
	Flush() error
}

// New returns a Writer for format.
func New(format string, w io.Writer, naive *time.Location) (Writer, error) {
	switch format {
	case FormatJSON, "":
		return &jsonWriter{enc: json.NewEncoder(w), naive: naive}, nil
	case FormatCSV:
		return &csvWriter{w: csv.NewWriter(w), naive: naive}, nil
	default:
		return nil, fmt.Errorf("output: unknown format %q", format)
	}
}

// WriteBatch writes every record of b and flushes.
func WriteBatch(w Writer, b *normalization.Batch) error {
	for _, rec := range b.Records {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return w.Flush()
}

type jsonWriter struct {
	enc   *json.Encoder
	naive *time.Location
}

func (j *jsonWriter) Write(rec normalization.Record) error {
	if err := j.enc.Encode(NewRow(rec, j.naive)); err != nil {
		return fmt.Errorf("output: encode record %d: %w", rec.Position, err)
	}
	return nil
}

func (j *jsonWriter) Flush() error { return nil }

// csvHeader lists the CSV columns in order.
var csvHeader = []string{"position", "input", "matched", "timestamp", "utc", "has_offset", "offset_seconds"}

type csvWriter struct {
	w           *csv.Writer
	naive       *time.Location
	wroteHeader bool
}

func (c *csvWriter) Write(rec normalization.Record) error {
	if !c.wroteHeader {
		if err := c.w.Write(csvHeader); err != nil {
			return fmt.Errorf("output: write header: %w", err)
		}
		c.wroteHeader = true
	}

	row := NewRow(rec, c.naive)
	offset := ""
	if row.OffsetSeconds != nil {
		offset = strconv.Itoa(*row.OffsetSeconds)
	}

	err := c.w.Write([]string{
		strconv.Itoa(row.Position),
		row.Input,
		strconv.FormatBool(row.Matched),
		row.Timestamp,
		row.UTC,
		strconv.FormatBool(row.HasOffset),
		offset,
	})
	if err != nil {
		return fmt.Errorf("output: write record %d: %w", rec.Position, err)
	}
	return nil
}

// Flush writes the header for an empty batch, then flushes.
func (c *csvWriter) Flush() error {
	if !c.wroteHeader {
		if err := c.w.Write(csvHeader); err != nil {
			return fmt.Errorf("output: write header: %w", err)
		}
		c.wroteHeader = true
	}
	c.w.Flush()
	return c.w.Error()
}

// SummaryRow is the rendered form of a batch summary.
type SummaryRow struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
	Total     int    `json:"total"`
	Matched   int    `json:"matched"`
	Unmatched int    `json:"unmatched"`
}

// NewSummaryRow renders s.
func NewSummaryRow(s normalization.Summary) SummaryRow {
	return SummaryRow{
		ID:        s.ID.String(),
		Source:    s.Source,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339Nano),
		Total:     s.Total,
		Matched:   s.Matched,
		Unmatched: s.Unmatched(),
	}
}

// WriteSummaries writes batch summaries in format.
func WriteSummaries(format string, w io.Writer, summaries []normalization.Summary) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		for _, s := range summaries {
			if err := enc.Encode(NewSummaryRow(s)); err != nil {
				return fmt.Errorf("output: encode summary: %w", err)
			}
		}
		return nil
	case FormatCSV:
		cw := csv.NewWriter(w)
		records := [][]string{{"id", "source", "created_at", "total", "matched", "unmatched"}}
		for _, s := range summaries {
			row := NewSummaryRow(s)
			records = append(records, []string{
				row.ID, row.Source, row.CreatedAt,
				strconv.Itoa(row.Total), strconv.Itoa(row.Matched), strconv.Itoa(row.Unmatched),
			})
		}
		if err := cw.WriteAll(records); err != nil {
			return fmt.Errorf("output: write summaries: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("output: unknown format %q", format)
	}
}
