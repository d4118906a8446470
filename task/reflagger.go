package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/timgluz/soilflag/catalog"
	"github.com/timgluz/soilflag/flagging"
	"github.com/timgluz/soilflag/flagstore"
	"github.com/timgluz/soilflag/metrics"
	"github.com/timgluz/soilflag/onfarm"
	"github.com/timgluz/soilflag/reading"
)

type ReflaggerOptions struct {
	// Frequency is the sampling frequency in readings per hour.
	Frequency        float64
	FetchConcurrency int
}

func NewDefaultReflaggerOptions() ReflaggerOptions {
	return ReflaggerOptions{
		Frequency:        reading.DefaultFrequency,
		FetchConcurrency: DefaultFetchConcurrency,
	}
}

// Reflagger runs one incremental flagging pass over a catalog.
type Reflagger struct {
	repo     flagstore.Repository
	provider onfarm.Provider
	oracle   flagging.Oracle
	recorder *metrics.Recorder

	logger *slog.Logger
}

func NewReflagger(
	repo flagstore.Repository,
	provider onfarm.Provider,
	oracle flagging.Oracle,
	recorder *metrics.Recorder,
	logger *slog.Logger,
) *Reflagger {
	return &Reflagger{
		repo:     repo,
		provider: provider,
		oracle:   oracle,
		recorder: recorder,
		logger:   logger,
	}
}

// Run loads the flag store, flags every catalog entry and saves the store.
// Failing entries and streams are recorded in the report and skipped; only
// store load and save errors abort the run.
func (t *Reflagger) Run(ctx context.Context, entries catalog.Entries, opts ReflaggerOptions) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Frequency: opts.Frequency,
		Entries:   len(entries),
	}
	logger := t.logger.With("run_id", report.RunID)

	calc, err := flagging.NewCalculator(opts.Frequency)
	if err != nil {
		logger.Error("Invalid sampling frequency", "frequency", opts.Frequency, "error", err)
		return nil, err
	}

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

	// flags decided during this run never make a reading eligible again
	flagged := store.UIDs()
	logger.Info("Starting reflagging run",
		"entries", len(entries), "stored_flags", len(flagged), "frequency", opts.Frequency, "window_step", calc.Step())

	loader := &streamLoader{provider: t.provider, logger: logger}
	err = loader.loadChunks(ctx, entries, opts.FetchConcurrency, func(result entryStreams) error {
		t.flagEntry(ctx, logger, result, store, flagged, calc, report)
		return ctx.Err()
	})
	if err != nil {
		logger.Error("Reflagging run interrupted, store not saved", "error", err)
		return nil, err
	}

	if err := t.repo.Save(ctx, store); err != nil {
		logger.Error("Failed to save flag store", "error", err)
		return nil, fmt.Errorf("failed to save flag store: %w", err)
	}

	report.StoreSize = store.Len()
	report.Store = store
	report.FinishedAt = time.Now().UTC()
	t.recorder.SetStoreSize(report.StoreSize)
	t.recorder.MarkRunCompleted(report.FinishedAt)

	if report.Anomalous() {
		logger.Warn("More readings were eligible than decided",
			"unflagged", report.Unflagged, "modified", report.Modified, "reflagged", report.Reflagged())
	}

	logger.Info("Reflagging run completed",
		"unflagged", report.Unflagged, "reflagged", report.Reflagged(), "modified", report.Modified,
		"failures", len(report.Failures), "duration", report.FinishedAt.Sub(report.StartedAt))
	return report, nil
}

func (t *Reflagger) flagEntry(
	ctx context.Context,
	logger *slog.Logger,
	result entryStreams,
	store *flagstore.Store,
	flagged flagstore.UIDSet,
	calc *flagging.Calculator,
	report *RunReport,
) {
	entryKey := result.Entry.Key()

	if result.FetchErr != nil {
		logger.Error("Failed to fetch readings, skipping entry", "entry", entryKey, "error", result.FetchErr)
		report.addFailure(entryKey, "", FailureFetch, result.FetchErr)
		t.recorder.IncFailure(metrics.ReasonFetch)
		return
	}

	for _, err := range splitJoined(result.PartitionErr) {
		logger.Error("Failed to build stream, skipping depth", "entry", entryKey, "error", err)
		report.addFailure(entryKey, "", FailurePartition, err)
		t.recorder.IncFailure(metrics.ReasonPartition)
	}

	for _, depth := range orderedDepths(result.Streams) {
		if ctx.Err() != nil {
			return
		}

		stream := result.Streams[depth]
		report.Streams++

		plan := flagging.PlanBatch(stream, flagged, calc)
		report.Unflagged += plan.Eligible
		t.recorder.AddEligible(plan.Eligible)
		if plan.IsEmpty() {
			logger.Debug("Stream fully flagged", "stream", stream.Key.String(), "readings", stream.Len())
			continue
		}

		started := time.Now()
		decisions, err := flagging.Decide(ctx, t.oracle, stream, plan, calc.Frequency())
		t.recorder.ObserveOracleCall(time.Since(started))
		report.OracleCalls++
		if err != nil {
			logger.Error("Oracle failed, skipping stream", "stream", stream.Key.String(), "error", err)
			report.addFailure(entryKey, stream.Key.String(), FailureOracle, err)
			t.recorder.IncFailure(metrics.ReasonOracle)
			continue
		}

		store.Merge(decisions)
		report.Modified += len(decisions)
		t.recorder.AddDecided(len(decisions))

		logger.Info("Stream flagged",
			"stream", stream.Key.String(), "readings", stream.Len(), "eligible", plan.Eligible,
			"context", plan.Context.Len(), "decided", len(decisions))
	}
}
