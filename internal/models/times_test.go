package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockRoundTrip(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"00:00", "00:00"},
		{"8:30", "08:30"},
		{"08:30", "08:30"},
		{"23:59", "23:59"},
		{"3:5", "03:05"},
	}
	for _, c := range cases {
		h, m, err := ParseClock(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, FormatClock(h, m), c.in)
	}
}

func TestParseClockRejectsBadInput(t *testing.T) {
	for _, in := range []string{"", "8", "08:60", "24:00", "-1:30", "ab:cd", "08:30:00", "08.30", "١٢:٣٠"} {
		_, _, err := ParseClock(in)
		assert.Error(t, err, in)
	}
}

func TestParseWeekday(t *testing.T) {
	wd, err := ParseWeekday("saturday")
	require.NoError(t, err)
	assert.Equal(t, time.Saturday, wd)

	wd, err = ParseWeekday(" Monday ")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, wd)

	_, err = ParseWeekday("someday")
	assert.Error(t, err)
}

func TestWeekdayNameRoundTrip(t *testing.T) {
	for name := range weekdayNames {
		wd, err := ParseWeekday(name)
		require.NoError(t, err)
		assert.Equal(t, name, WeekdayName(wd))
	}
}
