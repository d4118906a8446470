package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/timgluz/soilflag/catalog"
	"github.com/timgluz/soilflag/flagstore"
	"github.com/timgluz/soilflag/onfarm"
)

// AccuracyStats compares stored oracle flags with the manual outlier marker.
// A reading counts as oracle flagged when its flag is not the pass label.
type AccuracyStats struct {
	BothFlagged       int `json:"both_flagged"`
	BothUnflagged     int `json:"both_unflagged"`
	OracleFlagged     int `json:"oracle_flagged"`
	OracleUnflagged   int `json:"oracle_unflagged"`
	ManuallyFlagged   int `json:"manually_flagged"`
	ManuallyUnflagged int `json:"manually_unflagged"`
	// Unscored counts readings that have no stored flag.
	Unscored int `json:"unscored"`
}

func (s *AccuracyStats) Add(oracleFlagged, manuallyFlagged bool) {
	switch {
	case oracleFlagged && manuallyFlagged:
		s.BothFlagged++
	case !oracleFlagged && !manuallyFlagged:
		s.BothUnflagged++
	}

	if oracleFlagged {
		s.OracleFlagged++
	} else {
		s.OracleUnflagged++
	}

	if manuallyFlagged {
		s.ManuallyFlagged++
	} else {
		s.ManuallyUnflagged++
	}
}

func (s *AccuracyStats) Merge(other AccuracyStats) {
	s.BothFlagged += other.BothFlagged
	s.BothUnflagged += other.BothUnflagged
	s.OracleFlagged += other.OracleFlagged
	s.OracleUnflagged += other.OracleUnflagged
	s.ManuallyFlagged += other.ManuallyFlagged
	s.ManuallyUnflagged += other.ManuallyUnflagged
	s.Unscored += other.Unscored
}

func (s AccuracyStats) Scored() int {
	return s.OracleFlagged + s.OracleUnflagged
}

// OracleFlaggedConfirmed is the percentage of oracle flagged readings that
// were also flagged manually. ok is false when nothing was oracle flagged.
func (s AccuracyStats) OracleFlaggedConfirmed() (float64, bool) {
	return percent(s.BothFlagged, s.OracleFlagged)
}

// OracleUnflaggedConfirmed is the percentage of oracle passed readings that
// were also left unflagged manually.
func (s AccuracyStats) OracleUnflaggedConfirmed() (float64, bool) {
	return percent(s.BothUnflagged, s.OracleUnflagged)
}

// ManuallyFlaggedFound is the percentage of manually flagged readings that
// the oracle flagged too.
func (s AccuracyStats) ManuallyFlaggedFound() (float64, bool) {
	return percent(s.BothFlagged, s.ManuallyFlagged)
}

// ManuallyUnflaggedFound is the percentage of manually unflagged readings
// that the oracle passed too.
func (s AccuracyStats) ManuallyUnflaggedFound() (float64, bool) {
	return percent(s.BothUnflagged, s.ManuallyUnflagged)
}

func percent(part, whole int) (float64, bool) {
	if whole == 0 {
		return 0, false
	}
	return 100 * float64(part) / float64(whole), true
}

type StreamAccuracy struct {
	Stream string        `json:"stream"`
	Stats  AccuracyStats `json:"stats"`
}

type AccuracyReport struct {
	RunID     string           `json:"run_id"`
	StartedAt time.Time        `json:"started_at"`
	Streams   []StreamAccuracy `json:"streams"`
	Total     AccuracyStats    `json:"total"`
	Failures  []Failure        `json:"failures,omitempty"`
}

type AccuracyOptions struct {
	FetchConcurrency int
}

// AccuracyReporter scores stored flags against manual outlier decisions. It
// never writes to the flag store.
type AccuracyReporter struct {
	repo     flagstore.Repository
	provider onfarm.Provider

	logger *slog.Logger
}

func NewAccuracyReporter(repo flagstore.Repository, provider onfarm.Provider, logger *slog.Logger) *AccuracyReporter {
	return &AccuracyReporter{repo: repo, provider: provider, logger: logger}
}

func (t *AccuracyReporter) Run(ctx context.Context, entries catalog.Entries, opts AccuracyOptions) (*AccuracyReport, error) {
	report := &AccuracyReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Streams:   []StreamAccuracy{},
	}
	logger := t.logger.With("run_id", report.RunID)

	if !t.repo.IsReady() {
		return nil, flagstore.ErrRepositoryNotReady
	}
	if !t.provider.IsReady() {
		return nil, ErrProviderNotReady
	}

	store, err := t.repo.Load(ctx)
	if err != nil {
		logger.Error("Failed to load flag store", "error", err)
		return nil, fmt.Errorf("failed to load flag store: %w", err)
	}

	loader := &streamLoader{provider: t.provider, logger: logger}
	err = loader.loadChunks(ctx, entries, opts.FetchConcurrency, func(result entryStreams) error {
		entryKey := result.Entry.Key()
		if result.FetchErr != nil {
			logger.Error("Failed to fetch readings, skipping entry", "entry", entryKey, "error", result.FetchErr)
			report.Failures = append(report.Failures, Failure{Entry: entryKey, Reason: FailureFetch, Error: result.FetchErr.Error()})
			return nil
		}

		for _, err := range splitJoined(result.PartitionErr) {
			report.Failures = append(report.Failures, Failure{Entry: entryKey, Reason: FailurePartition, Error: err.Error()})
		}

		for _, depth := range orderedDepths(result.Streams) {
			stream := result.Streams[depth]

			var stats AccuracyStats
			for _, r := range stream.Readings {
				flag, ok := store.Get(r.UID)
				if !ok {
					stats.Unscored++
					continue
				}
				stats.Add(!flag.IsGood(), r.Outlier)
			}

			report.Streams = append(report.Streams, StreamAccuracy{Stream: stream.Key.String(), Stats: stats})
			report.Total.Merge(stats)
		}
		return ctx.Err()
	})
	if err != nil {
		logger.Error("Accuracy run interrupted", "error", err)
		return nil, err
	}

	logger.Info("Accuracy run completed",
		"streams", len(report.Streams), "scored", report.Total.Scored(), "unscored", report.Total.Unscored)
	return report, nil
}
