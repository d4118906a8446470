package catalog

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"

	"github.com/timgluz/soilflag/reading"
)

var (
	ErrInvalidEntry  = fmt.Errorf("catalog entry requires code, subplot and treatment")
	ErrMissingHeader = fmt.Errorf("catalog header must contain code, subplot and treatment")
)

// Entry is one site subplot and the treatment whose readings are flagged.
type Entry struct {
	Code      string `json:"code" yaml:"code"`
	Subplot   string `json:"subplot" yaml:"subplot"`
	Treatment string `json:"treatment" yaml:"treatment"`
}

func NewEntry(code, subplot, treatment string) (*Entry, error) {
	entry := &Entry{
		Code:      strings.TrimSpace(code),
		Subplot:   strings.TrimSpace(subplot),
		Treatment: strings.TrimSpace(treatment),
	}

	if entry.Code == "" || entry.Subplot == "" || entry.Treatment == "" {
		return nil, fmt.Errorf("%w: %q/%q/%q", ErrInvalidEntry, code, subplot, treatment)
	}

	return entry, nil
}

// Key returns a stable slug such as "abc-2-b".
func (e Entry) Key() string {
	return slug.Make(e.Code + " " + e.Subplot + " " + e.Treatment)
}

// StreamKey returns the stream key of the entry without a depth.
func (e Entry) StreamKey() reading.StreamKey {
	return reading.StreamKey{
		Code:      e.Code,
		Subplot:   e.Subplot,
		Treatment: e.Treatment,
	}
}

type Entries []Entry

// Dedupe drops exact repeats of the (code, subplot, treatment) triple,
// keeping the first, and returns how many were removed. Entries that only
// share a Key stay distinct.
func (entries Entries) Dedupe() (Entries, int) {
	seen := make(map[Entry]struct{}, len(entries))
	unique := make(Entries, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		unique = append(unique, e)
	}
	return unique, len(entries) - len(unique)
}
