package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Date
		wantErr bool
	}{
		{"plain date", "2024-01-15", NewDate(2024, 1, 15), false},
		{"rfc3339 keeps calendar date", "2024-01-31T23:55:00Z", NewDate(2024, 1, 31), false},
		{"rfc3339 with millis", "2024-06-01T00:30:00.000Z", NewDate(2024, 6, 1), false},
		{"empty", "", Date{}, true},
		{"garbage", "yesterday", Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateMonthLabel(t *testing.T) {
	assert.Equal(t, "Jan 2024", NewDate(2024, 1, 15).MonthLabel())
	assert.Equal(t, "Dec 2023", NewDate(2023, 12, 31).MonthLabel())
}

func TestDateCompare(t *testing.T) {
	a := NewDate(2024, 1, 15)
	b := NewDate(2024, 2, 1)
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, 3, 7)
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-07"`, string(raw))

	var back Date
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, d, back)
}

func TestDateValidate(t *testing.T) {
	require.NoError(t, NewDate(2024, 2, 29).Validate())
	assert.ErrorIs(t, Date{}.Validate(), ErrEmptyDate)
	assert.ErrorIs(t, NewDate(2024, 13, 1).Validate(), ErrInvalidMonth)
	assert.ErrorIs(t, NewDate(2024, 1, 0).Validate(), ErrInvalidDay)
}
