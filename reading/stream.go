package reading

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var ErrTimestampParse = errors.New("failed to parse reading timestamp")

// timestampLayouts are tried in order; the API mostly serves the SQL-like form.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// Stream is the time ordered, timestamp de-duplicated sequence of readings of
// one sensor. Readings[i].Position == i.
type Stream struct {
	Key      StreamKey
	Readings []Reading
}

// NewStream parses timestamps, sorts the readings by time and keeps the first
// reading for every timestamp. The sort is stable, so on equal timestamps the
// reading that came first in the input wins. Any unparseable timestamp makes
// the whole stream unusable.
func NewStream(key StreamKey, readings []Reading) (*Stream, error) {
	parsed := make([]Reading, len(readings))
	copy(parsed, readings)

	for i := range parsed {
		ts, err := ParseTimestamp(parsed[i].RawTimestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: stream %s, uid %d: %q", ErrTimestampParse, key, parsed[i].UID, parsed[i].RawTimestamp)
		}
		parsed[i].Timestamp = ts
	}

	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].Timestamp.Before(parsed[j].Timestamp)
	})

	deduped := make([]Reading, 0, len(parsed))
	for _, r := range parsed {
		if n := len(deduped); n > 0 && deduped[n-1].Timestamp.Equal(r.Timestamp) {
			continue
		}
		r.Position = len(deduped)
		deduped = append(deduped, r)
	}

	return &Stream{Key: key, Readings: deduped}, nil
}

func (s *Stream) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Readings)
}

// ParseTimestamp accepts RFC 3339 and the SQL-like layouts used by the API.
// Timestamps without zone information are read as UTC.
func ParseTimestamp(timestamp string) (time.Time, error) {
	timestamp = strings.TrimSpace(timestamp)
	if timestamp == "" {
		return time.Time{}, fmt.Errorf("timestamp cannot be empty")
	}

	var lastErr error
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, timestamp)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}

	return time.Time{}, lastErr
}
