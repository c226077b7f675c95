// Package models defines the client-side data model of the health diary:
// daily readings, the date-keyed record mapping, the date range shown in the
// table, and the envelope exchanged with the remote store.
package models

import "maps"

// Reading is one row of the diary. Temperatures are kept as the raw text the
// user typed; an untouched field is "" (or false), never absent.
type Reading struct {
	MorningTemp string `json:"morningTemp"`
	EveningTemp string `json:"eveningTemp"`
	Pain        bool   `json:"pain"`
}

// IsZero reports whether nothing has been entered for the day.
func (r Reading) IsZero() bool {
	return r == Reading{}
}

// RecordMapping maps a DD.MM date label to its reading.
type RecordMapping map[string]Reading

// Clone returns an independent copy. A nil mapping clones to an empty one.
func (m RecordMapping) Clone() RecordMapping {
	out := make(RecordMapping, len(m))
	maps.Copy(out, m)
	return out
}

// Equal reports whether both mappings hold the same labels and readings.
func (m RecordMapping) Equal(other RecordMapping) bool {
	return maps.Equal(m, other)
}
