package oracle

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timgluz/soilflag/flagstore"
	"github.com/timgluz/soilflag/reading"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func batchOf(values ...float64) []reading.Reading {
	batch := make([]reading.Reading, len(values))
	for i, v := range values {
		batch[i] = reading.Reading{UID: reading.UID(i + 1), Value: v, Position: i}
	}
	return batch
}

func TestThreshold_Flag(t *testing.T) {
	oracle, err := NewThreshold(DefaultThresholdOptions(), discardLogger())
	require.NoError(t, err)

	flags, err := oracle.Flag(context.Background(), batchOf(20, 21, -1, 20, 70, 21, 21, 40, 21, 20), 0.25)
	require.NoError(t, err)

	expected := []flagstore.Flag{"G", "G", "C01,D06", "G", "C02,D06", "G", "G", "D06", "G", "G"}
	assert.Equal(t, expected, flags)
}

func TestThreshold_GradualChangeIsNotSpike(t *testing.T) {
	oracle, err := NewThreshold(DefaultThresholdOptions(), discardLogger())
	require.NoError(t, err)

	flags, err := oracle.Flag(context.Background(), batchOf(20, 30, 40, 50), 1)
	require.NoError(t, err)
	for _, f := range flags {
		assert.True(t, f.IsGood())
	}
}

func TestNewThreshold_Invalid(t *testing.T) {
	_, err := NewThreshold(ThresholdOptions{Minimum: 10, Maximum: 5, SpikeRatio: 0.1}, discardLogger())
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = NewThreshold(ThresholdOptions{Minimum: 0, Maximum: 5}, discardLogger())
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}

func TestAlignFlags(t *testing.T) {
	batch := batchOf(1, 2, 3)

	flags, err := alignFlags(batch, []flagstore.Decision{
		{UID: 3, Flag: "{'C01'}"},
		{UID: 1, Flag: "G"},
		{UID: 2, Flag: "D06"},
	})
	require.NoError(t, err)
	assert.Equal(t, []flagstore.Flag{"G", "D06", "C01"}, flags)

	_, err = alignFlags(batch, []flagstore.Decision{{UID: 1, Flag: "G"}, {UID: 2, Flag: "G"}})
	assert.ErrorIs(t, err, ErrMissingUIDFlag)

	_, err = alignFlags(batch, []flagstore.Decision{{UID: 1, Flag: "G"}, {UID: 2, Flag: "G"}, {UID: 3, Flag: "G"}, {UID: 9, Flag: "G"}})
	assert.ErrorIs(t, err, ErrUnknownUID)
}

func requireShell(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func TestExec_Flag(t *testing.T) {
	sh := requireShell(t)
	script := `cat > /dev/null; echo '[{"uid":2,"qflag":"C02"},{"uid":1,"qflag":"G"}]'`

	oracle, err := NewExec(sh, []string{"-c", script}, 5*time.Second, discardLogger())
	require.NoError(t, err)

	flags, err := oracle.Flag(context.Background(), batchOf(10, 80), 0.25)
	require.NoError(t, err)
	assert.Equal(t, []flagstore.Flag{"G", "C02"}, flags)
}

func TestExec_CommandFailure(t *testing.T) {
	sh := requireShell(t)

	oracle, err := NewExec(sh, []string{"-c", "echo broken >&2; exit 3"}, 0, discardLogger())
	require.NoError(t, err)

	_, err = oracle.Flag(context.Background(), batchOf(10), 0.25)
	assert.ErrorIs(t, err, ErrCommandFailed)
}

func TestExec_InvalidOutput(t *testing.T) {
	sh := requireShell(t)

	oracle, err := NewExec(sh, []string{"-c", "cat > /dev/null; echo not-json"}, 0, discardLogger())
	require.NoError(t, err)

	_, err = oracle.Flag(context.Background(), batchOf(10), 0.25)
	assert.Error(t, err)
}

func TestNewExec_NoCommand(t *testing.T) {
	_, err := NewExec("", nil, 0, discardLogger())
	assert.ErrorIs(t, err, ErrCommandNotSet)
}
