package flagging

import (
	"context"
	"errors"
	"fmt"

	"github.com/timgluz/soilflag/flagstore"
	"github.com/timgluz/soilflag/reading"
)

var ErrOracleOutputMismatch = errors.New("oracle returned a different number of flags than readings")

// Oracle assigns one quality flag to every reading of a time ordered batch.
// The returned slice is aligned with the batch.
type Oracle interface {
	Flag(ctx context.Context, batch []reading.Reading, frequency float64) ([]flagstore.Flag, error)
}

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(ctx context.Context, batch []reading.Reading, frequency float64) ([]flagstore.Flag, error)

func (f OracleFunc) Flag(ctx context.Context, batch []reading.Reading, frequency float64) ([]flagstore.Flag, error) {
	return f(ctx, batch, frequency)
}

// Decide runs the oracle once over the plan's context positions and returns
// the flags of the readings at decision positions. An empty plan makes no
// oracle call and returns no decisions.
func Decide(ctx context.Context, oracle Oracle, stream *reading.Stream, plan Plan, frequency float64) ([]flagstore.Decision, error) {
	if plan.Context.IsEmpty() {
		return nil, nil
	}

	batch := make([]reading.Reading, 0, plan.Context.Len())
	for _, r := range stream.Readings {
		if plan.Context.Contains(r.Position) {
			batch = append(batch, r)
		}
	}

	flags, err := oracle.Flag(ctx, batch, frequency)
	if err != nil {
		return nil, fmt.Errorf("oracle failed for stream %s: %w", stream.Key, err)
	}

	if len(flags) != len(batch) {
		return nil, fmt.Errorf("%w: stream %s, %d readings, %d flags", ErrOracleOutputMismatch, stream.Key, len(batch), len(flags))
	}

	decisions := make([]flagstore.Decision, 0, plan.Decision.Len())
	for i, r := range batch {
		if plan.Decision.Contains(r.Position) {
			decisions = append(decisions, flagstore.Decision{UID: r.UID, Flag: flags[i]})
		}
	}

	return decisions, nil
}
