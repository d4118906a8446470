package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/timgluz/soilflag/flagging"
	"github.com/timgluz/soilflag/flagstore"
	"github.com/timgluz/soilflag/reading"
)

const (
	FlagBelowRange flagstore.Flag = "C01"
	FlagAboveRange flagstore.Flag = "C02"
	FlagSpike      flagstore.Flag = "D06"
)

const (
	DefaultMinimum    = 0.0
	DefaultMaximum    = 60.0
	DefaultSpikeRatio = 0.15
)

var ErrInvalidThreshold = fmt.Errorf("invalid threshold configuration")

type ThresholdOptions struct {
	// Minimum and Maximum bound the plausible volumetric water content.
	Minimum float64 `json:"minimum" yaml:"minimum"`
	Maximum float64 `json:"maximum" yaml:"maximum"`
	// SpikeRatio is the relative jump against both neighbours that marks a spike.
	SpikeRatio float64 `json:"spike_ratio" yaml:"spike_ratio"`
}

func DefaultThresholdOptions() ThresholdOptions {
	return ThresholdOptions{
		Minimum:    DefaultMinimum,
		Maximum:    DefaultMaximum,
		SpikeRatio: DefaultSpikeRatio,
	}
}

// Threshold is the builtin oracle: range checks plus a single point spike
// test against the previous and next reading of the batch.
type Threshold struct {
	opts   ThresholdOptions
	logger *slog.Logger
}

var _ flagging.Oracle = (*Threshold)(nil)

func NewThreshold(opts ThresholdOptions, logger *slog.Logger) (*Threshold, error) {
	if opts.Maximum <= opts.Minimum {
		return nil, fmt.Errorf("%w: maximum %v must exceed minimum %v", ErrInvalidThreshold, opts.Maximum, opts.Minimum)
	}
	if opts.SpikeRatio <= 0 {
		return nil, fmt.Errorf("%w: spike ratio %v must be positive", ErrInvalidThreshold, opts.SpikeRatio)
	}

	return &Threshold{opts: opts, logger: logger}, nil
}

func (o *Threshold) Flag(ctx context.Context, batch []reading.Reading, frequency float64) ([]flagstore.Flag, error) {
	defer ctx.Done()

	flags := make([]flagstore.Flag, len(batch))
	flagged := 0
	for i := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		codes := make([]string, 0, 2)
		value := batch[i].Value
		switch {
		case value < o.opts.Minimum:
			codes = append(codes, string(FlagBelowRange))
		case value > o.opts.Maximum:
			codes = append(codes, string(FlagAboveRange))
		}

		if o.isSpike(batch, i) {
			codes = append(codes, string(FlagSpike))
		}

		if len(codes) == 0 {
			flags[i] = flagstore.FlagGood
			continue
		}

		flagged++
		flags[i] = flagstore.Flag(strings.Join(codes, ","))
	}

	o.logger.Debug("Threshold oracle flagged batch", "size", len(batch), "flagged", flagged, "frequency", frequency)
	return flags, nil
}

// isSpike reports whether reading i jumps away from both neighbours by more
// than the spike ratio, in the same direction.
func (o *Threshold) isSpike(batch []reading.Reading, i int) bool {
	if i == 0 || i == len(batch)-1 {
		return false
	}

	prev, curr, next := batch[i-1].Value, batch[i].Value, batch[i+1].Value
	if prev == 0 || next == 0 {
		return false
	}

	rise := (curr - prev) / math.Abs(prev)
	fall := (curr - next) / math.Abs(next)
	if math.Abs(rise) <= o.opts.SpikeRatio || math.Abs(fall) <= o.opts.SpikeRatio {
		return false
	}

	return math.Signbit(rise) == math.Signbit(fall)
}
