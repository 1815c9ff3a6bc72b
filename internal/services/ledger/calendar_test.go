package ledger

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodayUsesConfiguredTimezone(t *testing.T) {
	// 23:30 UTC on Jan 1 is already Jan 2 in Tokyo
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC))

	utc := NewCalendar(clock, nil)
	tokyo, err := LoadCalendar(clock, "Asia/Tokyo")
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01", utc.Today())
	assert.Equal(t, "2024-01-02", tokyo.Today())

	clock.Advance(time.Hour)
	assert.Equal(t, "2024-01-02", utc.Today(), "midnight rollover")
}

func TestLoadCalendarRejectsUnknownZone(t *testing.T) {
	_, err := LoadCalendar(clockwork.NewFakeClock(), "Nowhere/Special")
	assert.Error(t, err)
}

func TestPreviousDay(t *testing.T) {
	cases := map[string]string{
		"2024-03-01": "2024-02-29",
		"2024-01-01": "2023-12-31",
		"2024-03-31": "2024-03-30",
	}
	for day, want := range cases {
		got, err := PreviousDay(day)
		require.NoError(t, err)
		assert.Equal(t, want, got, day)
	}

	_, err := PreviousDay("yesterday")
	assert.Error(t, err)
}
