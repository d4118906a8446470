package reading

import (
	"fmt"
	"time"

	"github.com/sosodev/duration"
)

const (
	DefaultSamplingInterval = "PT4H" // one reading every 4 hours
	DefaultFrequency        = 0.25   // readings per hour for DefaultSamplingInterval
)

var ErrInvalidInterval = fmt.Errorf("sampling interval must be positive")

// ParseSamplingInterval parses an ISO 8601 duration such as "PT4H" or "PT15M".
func ParseSamplingInterval(iso8601 string) (time.Duration, error) {
	d, err := duration.Parse(iso8601)
	if err != nil {
		return 0, fmt.Errorf("invalid sampling interval %q: %w", iso8601, err)
	}

	interval := d.ToTimeDuration()
	if interval <= 0 {
		return 0, ErrInvalidInterval
	}

	return interval, nil
}

// FrequencyFromInterval converts a sampling interval into readings per hour.
func FrequencyFromInterval(interval time.Duration) (float64, error) {
	if interval <= 0 {
		return 0, ErrInvalidInterval
	}
	return float64(time.Hour) / float64(interval), nil
}

// IntervalString renders a sampling interval back into ISO 8601 form.
func IntervalString(interval time.Duration) string {
	return duration.FromTimeDuration(interval).String()
}

// FrequencyFromISO8601 is ParseSamplingInterval followed by FrequencyFromInterval.
func FrequencyFromISO8601(iso8601 string) (float64, error) {
	interval, err := ParseSamplingInterval(iso8601)
	if err != nil {
		return 0, err
	}
	return FrequencyFromInterval(interval)
}
