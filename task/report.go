package task

import (
	"errors"
	"time"

	"github.com/timgluz/soilflag/flagstore"
)

const (
	FailureFetch     = "fetch"
	FailurePartition = "partition"
	FailureOracle    = "oracle"
)

// Failure records a catalog entry or stream that was skipped.
type Failure struct {
	Entry  string `json:"entry"`
	Stream string `json:"stream,omitempty"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

type RunReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Frequency  float64   `json:"frequency"`

	Entries int `json:"entries"`
	Streams int `json:"streams"`
	// Unflagged counts readings without a stored flag when the run started.
	Unflagged int `json:"unflagged"`
	// Modified counts the flags accepted from the oracle, unflagged included.
	Modified    int `json:"modified"`
	OracleCalls int `json:"oracle_calls"`
	StoreSize   int `json:"store_size"`

	Failures []Failure `json:"failures,omitempty"`

	// Store is the merged flag store as saved at the end of the run.
	Store *flagstore.Store `json:"-"`
}

// Reflagged is the number of previously flagged readings that were decided
// again. It is not clamped: a negative value means more readings were
// eligible than decided, which is reported by Anomalous.
func (r *RunReport) Reflagged() int {
	return r.Modified - r.Unflagged
}

func (r *RunReport) Anomalous() bool {
	return r.Reflagged() < 0
}

func (r *RunReport) addFailure(entry, stream, reason string, err error) {
	r.Failures = append(r.Failures, Failure{Entry: entry, Stream: stream, Reason: reason, Error: err.Error()})
}

// splitJoined returns the errors combined by errors.Join, or err itself.
func splitJoined(err error) []error {
	if err == nil {
		return nil
	}

	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}
