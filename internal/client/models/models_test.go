package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRange_Labels(t *testing.T) {
	r := DefaultRange(2025)

	labels := r.Labels()
	require.Len(t, labels, 11)
	assert.Equal(t, "04.10", labels[0])
	assert.Equal(t, "14.10", labels[10])
	assert.Equal(t, "04.10 - 14.10", r.String())
	assert.True(t, r.Contains("09.10"))
	assert.False(t, r.Contains("15.10"))
}

func TestParseRange_CrossesMonth(t *testing.T) {
	r, err := ParseRange("2025-02-27", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"27.02", "28.02", "01.03"}, r.Labels())

	_, err = ParseRange("2025-02-27", 0)
	assert.True(t, errors.Is(err, ErrInvalidRange))

	_, err = ParseRange("27.02", 3)
	assert.True(t, errors.Is(err, ErrInvalidRange))
}

func TestDateRange_SnapshotKeepsOnlyRows(t *testing.T) {
	r := DateRange{Start: time.Date(2025, 10, 4, 0, 0, 0, 0, time.UTC), Days: 2}
	m := RecordMapping{
		"04.10": {MorningTemp: "36.6"},
		"31.12": {Pain: true},
	}

	snap := r.Snapshot(m)
	assert.Equal(t, RecordMapping{
		"04.10": {MorningTemp: "36.6"},
		"05.10": {},
	}, snap)
}

func TestRecordMapping_CloneIsIndependent(t *testing.T) {
	m := RecordMapping{"04.10": {MorningTemp: "36.6"}}
	c := m.Clone()
	c["04.10"] = Reading{MorningTemp: "38.0"}

	assert.Equal(t, "36.6", m["04.10"].MorningTemp)
	assert.False(t, m.Equal(c))
	assert.True(t, RecordMapping(nil).Clone().Equal(RecordMapping{}))
}

func TestReading_MissingFieldsDecodeToZero(t *testing.T) {
	var m RecordMapping
	require.NoError(t, json.Unmarshal([]byte(`{"04.10":{"morningTemp":"37.1"}}`), &m))

	r := m["04.10"]
	assert.Equal(t, "37.1", r.MorningTemp)
	assert.Equal(t, "", r.EveningTemp)
	assert.False(t, r.Pain)
	assert.True(t, Reading{}.IsZero())
}

func TestRawEnvelope_DistinguishesMissingFields(t *testing.T) {
	var raw RawEnvelope
	require.NoError(t, json.Unmarshal([]byte(`{"syncId":"x","data":{}}`), &raw))
	assert.NotNil(t, raw.Data)
	assert.Nil(t, raw.Timestamp)
}
