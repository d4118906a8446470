package reading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrequencyFromISO8601(t *testing.T) {
	testCases := []struct {
		name     string
		interval string
		expected float64
	}{
		{"four hours", "PT4H", 0.25},
		{"hourly", "PT1H", 1},
		{"quarter hour", "PT15M", 4},
		{"two hours", "PT2H", 0.5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			frequency, err := FrequencyFromISO8601(tc.interval)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, frequency, 1e-9)
		})
	}
}

func TestParseSamplingInterval_Invalid(t *testing.T) {
	_, err := ParseSamplingInterval("four hours")
	assert.Error(t, err)

	_, err = ParseSamplingInterval("PT0S")
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestIntervalString(t *testing.T) {
	interval, err := ParseSamplingInterval(DefaultSamplingInterval)
	require.NoError(t, err)
	assert.Equal(t, 4*time.Hour, interval)
	assert.Equal(t, "PT4H", IntervalString(interval))
}
