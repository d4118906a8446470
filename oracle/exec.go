package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/timgluz/soilflag/flagging"
	"github.com/timgluz/soilflag/flagstore"
	"github.com/timgluz/soilflag/reading"
)

var (
	ErrCommandNotSet  = fmt.Errorf("oracle command not set")
	ErrCommandFailed  = fmt.Errorf("oracle command failed")
	ErrUnknownUID     = fmt.Errorf("oracle returned a flag for an unknown uid")
	ErrMissingUIDFlag = fmt.Errorf("oracle returned no flag for a uid")
)

const stderrExcerptBytes = 1024

// ExecRequest is written as JSON to the command's stdin.
type ExecRequest struct {
	Frequency float64           `json:"frequency"`
	Readings  []reading.Reading `json:"readings"`
}

// Exec delegates flagging to an external command. The command reads an
// ExecRequest on stdin and prints a JSON array of {"uid","qflag"} objects.
type Exec struct {
	command string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
}

var _ flagging.Oracle = (*Exec)(nil)

func NewExec(command string, args []string, timeout time.Duration, logger *slog.Logger) (*Exec, error) {
	if command == "" {
		return nil, ErrCommandNotSet
	}

	return &Exec{
		command: command,
		args:    args,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (o *Exec) Flag(ctx context.Context, batch []reading.Reading, frequency float64) ([]flagstore.Flag, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	input, err := json.Marshal(ExecRequest{Frequency: frequency, Readings: batch})
	if err != nil {
		return nil, fmt.Errorf("failed to encode oracle request: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, o.command, o.args...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	if err := cmd.Run(); err != nil {
		o.logger.Error("Oracle command failed",
			"command", o.command, "stderr", excerpt(stderr.Bytes(), stderrExcerptBytes), "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrCommandFailed, o.command, err)
	}

	var decisions []flagstore.Decision
	if err := json.Unmarshal(stdout.Bytes(), &decisions); err != nil {
		return nil, fmt.Errorf("failed to decode oracle output: %w", err)
	}

	o.logger.Debug("Oracle command finished",
		"command", o.command, "size", len(batch), "duration", time.Since(started))
	return alignFlags(batch, decisions)
}

// alignFlags orders the command output by the batch. Every batch uid needs
// exactly one flag; the last one wins if the command repeats a uid.
func alignFlags(batch []reading.Reading, decisions []flagstore.Decision) ([]flagstore.Flag, error) {
	byUID := make(map[reading.UID]flagstore.Flag, len(decisions))
	for _, d := range decisions {
		byUID[d.UID] = flagstore.ParseFlag(string(d.Flag))
	}

	if len(byUID) != len(batch) {
		known := make(map[reading.UID]struct{}, len(batch))
		for _, r := range batch {
			known[r.UID] = struct{}{}
		}
		for uid := range byUID {
			if _, ok := known[uid]; !ok {
				return nil, fmt.Errorf("%w: %d", ErrUnknownUID, uid)
			}
		}
	}

	flags := make([]flagstore.Flag, len(batch))
	for i, r := range batch {
		flag, ok := byUID[r.UID]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrMissingUIDFlag, r.UID)
		}
		flags[i] = flag
	}
	return flags, nil
}

func excerpt(data []byte, limit int) string {
	if len(data) <= limit {
		return string(data)
	}
	return string(data[:limit]) + "..."
}
