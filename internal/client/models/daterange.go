package models

import (
	"errors"
	"fmt"
	"time"
)

// LabelLayout is the time layout of a date label, e.g. "04.10".
const LabelLayout = "02.01"

var ErrInvalidRange = errors.New("invalid date range")

// DateRange is the fixed, contiguous set of days the table shows.
type DateRange struct {
	Start time.Time
	Days  int
}

// DefaultRange is 04.10 .. 14.10 of the given year.
func DefaultRange(year int) DateRange {
	return DateRange{Start: time.Date(year, time.October, 4, 0, 0, 0, 0, time.UTC), Days: 11}
}

// ParseRange builds a range from a YYYY-MM-DD start date and a day count.
func ParseRange(start string, days int) (DateRange, error) {
	if days <= 0 {
		return DateRange{}, fmt.Errorf("%w: days must be positive, got %d", ErrInvalidRange, days)
	}
	t, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	return DateRange{Start: t, Days: days}, nil
}

// Labels returns the DD.MM labels of the range in calendar order.
func (r DateRange) Labels() []string {
	labels := make([]string, 0, max(r.Days, 0))
	for i := 0; i < r.Days; i++ {
		labels = append(labels, r.Start.AddDate(0, 0, i).Format(LabelLayout))
	}
	return labels
}

func (r DateRange) Contains(label string) bool {
	for _, l := range r.Labels() {
		if l == label {
			return true
		}
	}
	return false
}

// String renders the period as "04.10 - 14.10".
func (r DateRange) String() string {
	if r.Days <= 0 {
		return ""
	}
	last := r.Start.AddDate(0, 0, r.Days-1)
	return r.Start.Format(LabelLayout) + " - " + last.Format(LabelLayout)
}

// Row pairs a label with its reading for rendering.
type Row struct {
	Label string
	Reading
}

// Rows lays m out over the range. Days without data get a zero Reading.
func (r DateRange) Rows(m RecordMapping) []Row {
	labels := r.Labels()
	rows := make([]Row, 0, len(labels))
	for _, l := range labels {
		rows = append(rows, Row{Label: l, Reading: m[l]})
	}
	return rows
}

// Snapshot is what the table reports after an edit: exactly one entry per
// row of the range. Labels outside the range are not carried over.
func (r DateRange) Snapshot(m RecordMapping) RecordMapping {
	out := make(RecordMapping, r.Days)
	for _, row := range r.Rows(m) {
		out[row.Label] = row.Reading
	}
	return out
}
