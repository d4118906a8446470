package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/timgluz/soilflag/catalog"
	"github.com/timgluz/soilflag/onfarm"
	"github.com/timgluz/soilflag/reading"
)

const DefaultFetchConcurrency = 1

var ErrProviderNotReady = fmt.Errorf("reading provider is not ready")

// entryStreams holds the depth streams of one catalog entry. FetchErr means
// the entry produced nothing; PartitionErr only affects the depths it names.
type entryStreams struct {
	Entry        catalog.Entry
	Streams      map[reading.Depth]*reading.Stream
	Dropped      int
	FetchErr     error
	PartitionErr error
}

type streamLoader struct {
	provider onfarm.Provider
	logger   *slog.Logger
}

func (l *streamLoader) load(ctx context.Context, entry catalog.Entry) entryStreams {
	result := entryStreams{Entry: entry}

	records, err := l.provider.GetSoilMoisture(ctx, entry.Code, entry.Subplot)
	if err != nil {
		var payloadErr *onfarm.PayloadError
		if errors.As(err, &payloadErr) {
			l.logger.Error("Unexpected API payload", "entry", entry.Key(), "payload", payloadErr.Excerpt(256))
		}
		result.FetchErr = err
		return result
	}

	readings, dropped := reading.Extract(records)
	readings = reading.FilterTreatment(readings, entry.Treatment)
	result.Dropped = dropped

	result.Streams, result.PartitionErr = reading.Partition(entry.StreamKey(), readings)
	l.logger.Debug("Loaded entry streams",
		"entry", entry.Key(), "records", len(records), "dropped", dropped, "streams", len(result.Streams))
	return result
}

// loadChunks fetches entries in chunks of at most concurrency parallel
// requests and hands each chunk to fn in catalog order. Only cancellation or
// an error from fn stops the iteration.
func (l *streamLoader) loadChunks(ctx context.Context, entries catalog.Entries, concurrency int, fn func(entryStreams) error) error {
	if concurrency < 1 {
		concurrency = DefaultFetchConcurrency
	}

	for start := 0; start < len(entries); start += concurrency {
		end := min(start+concurrency, len(entries))
		chunk := entries[start:end]
		results := make([]entryStreams, len(chunk))

		g, gctx := errgroup.WithContext(ctx)
		for i := range chunk {
			g.Go(func() error {
				results[i] = l.load(gctx, chunk[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		for _, result := range results {
			if err := fn(result); err != nil {
				return err
			}
		}
	}

	return nil
}

// orderedDepths returns the recognised depths present in streams, shallow first.
func orderedDepths(streams map[reading.Depth]*reading.Stream) []reading.Depth {
	depths := make([]reading.Depth, 0, len(streams))
	for _, depth := range reading.RecognizedDepths {
		if _, ok := streams[depth]; ok {
			depths = append(depths, depth)
		}
	}
	return depths
}
