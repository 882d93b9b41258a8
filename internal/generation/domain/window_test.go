package generation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lcatricity/internal/apperr"
)

func TestParseWindow(t *testing.T) {
	day := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		start     string
		end       string
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{name: "default end", start: "2024-02-01", wantStart: day, wantEnd: day.AddDate(0, 0, 1)},
		{name: "explicit end", start: "2024-02-01", end: "2024-02-10", wantStart: day, wantEnd: day.AddDate(0, 0, 9)},
		{name: "same day", start: "2024-02-01", end: "2024-02-01", wantStart: day, wantEnd: day},
		{name: "missing start", wantErr: true},
		{name: "bad start", start: "01/02/2024", wantErr: true},
		{name: "bad end", start: "2024-02-01", end: "2024-02-31", wantErr: true},
		{name: "end before start", start: "2024-02-10", end: "2024-02-01", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			window, err := ParseWindow(tc.start, tc.end)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantStart, window.Start)
			assert.Equal(t, tc.wantEnd, window.End)
		})
	}
}

func TestWindowContainsIsInclusive(t *testing.T) {
	window, err := ParseWindow("2024-02-01", "")
	require.NoError(t, err)

	assert.True(t, window.Contains(window.Start))
	assert.True(t, window.Contains(window.End))
	assert.False(t, window.Contains(window.End.Add(time.Nanosecond)))
	assert.False(t, window.Contains(window.Start.Add(-time.Nanosecond)))
}

func TestParseOptionalWindow(t *testing.T) {
	window, err := ParseOptionalWindow("", "")
	require.NoError(t, err)
	assert.Nil(t, window)

	_, err = ParseOptionalWindow("", "2024-02-01")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	window, err = ParseOptionalWindow("2024-02-01", "")
	require.NoError(t, err)
	require.NotNil(t, window)
	assert.Equal(t, 24*time.Hour, window.End.Sub(window.Start))
}
