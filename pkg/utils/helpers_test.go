package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	assert.Equal(t, 12, ParseUnits("12"))
	assert.Equal(t, 12, ParseUnits(" 12 "))
	assert.Equal(t, 12, ParseUnits("12.0"))
	assert.Zero(t, ParseUnits(""))
	assert.Zero(t, ParseUnits("-"))
	assert.Zero(t, ParseUnits("n/a"))
}

func TestParseDemandDate(t *testing.T) {
	d := ParseDemandDate("15-06-2025 14:30")
	require.NotNil(t, d)
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, time.June, d.Month())
	assert.Equal(t, 14, d.Hour())

	assert.NotNil(t, ParseDemandDate("15-06-2025"))
	assert.NotNil(t, ParseDemandDate("2025-06-15"))
	assert.Nil(t, ParseDemandDate(""))
	assert.Nil(t, ParseDemandDate("junk"))
}

func TestParseHour(t *testing.T) {
	assert.Equal(t, 9, ParseHour("09:30"))
	assert.Equal(t, 23, ParseHour("23:59"))
	assert.Equal(t, -1, ParseHour(""))
	assert.Equal(t, -1, ParseHour("25:00"))
	assert.Equal(t, -1, ParseHour("junk"))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0, Percentage(0, 0))
	assert.Equal(t, 50, Percentage(1, 2))
	assert.Equal(t, 33, Percentage(1, 3))
	assert.Equal(t, 67, Percentage(2, 3))
	assert.Equal(t, 100, Percentage(8, 8))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 2.33, Round2(7.0/3.0))
	assert.Equal(t, 2.5, Round2(2.5))
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Second, ParseDuration("", time.Second))
	assert.Equal(t, time.Second, ParseDuration("junk", time.Second))
	assert.Equal(t, 500*time.Millisecond, ParseDuration("500ms", time.Second))
}
