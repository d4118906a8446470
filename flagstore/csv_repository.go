package flagstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/timgluz/soilflag/reading"
)

const (
	CSVColumnUID  = "uid"
	CSVColumnFlag = "qflag"
)

// CSVRepository keeps the flag store in a two column CSV file (uid,qflag).
type CSVRepository struct {
	path   string
	logger *slog.Logger
}

func NewCSVRepository(path string, logger *slog.Logger) *CSVRepository {
	return &CSVRepository{
		path:   path,
		logger: logger,
	}
}

func (r *CSVRepository) IsReady() bool {
	if r.logger == nil {
		fmt.Println("Logger of CSVRepository is not initialized")
		return false
	}

	if r.path == "" {
		r.logger.Error("CSV flag file path is not set")
		return false
	}

	return true
}

func (r *CSVRepository) Close() error {
	return nil
}

func (r *CSVRepository) Load(ctx context.Context) (*Store, error) {
	defer ctx.Done()

	if !r.IsReady() {
		return nil, ErrRepositoryNotReady
	}

	file, err := os.Open(r.path)
	if errors.Is(err, os.ErrNotExist) {
		r.logger.Info("No flag file found, starting with an empty store", "path", r.path)
		return NewStore(), nil
	}
	if err != nil {
		r.logger.Error("Failed to open flag file", "path", r.path, "error", err)
		return nil, fmt.Errorf("failed to open flag file %s: %w", r.path, err)
	}
	defer func(file *os.File) {
		if err := file.Close(); err != nil {
			r.logger.Error("Failed to close flag file", "path", r.path, "error", err)
		}
	}(file)

	decisions, err := readFlagCSV(file)
	if err != nil {
		r.logger.Error("Failed to read flag file", "path", r.path, "error", err)
		return nil, fmt.Errorf("failed to read flag file %s: %w", r.path, err)
	}

	store := NewStoreFromDecisions(decisions)
	r.logger.Info("Flag store loaded", "path", r.path, "rows", len(decisions), "flags", store.Len())
	return store, nil
}

// Save writes the store to a temporary file next to the target and renames it
// into place, so an interrupted run never leaves a truncated flag file.
func (r *CSVRepository) Save(ctx context.Context, store *Store) error {
	defer ctx.Done()

	if !r.IsReady() {
		return ErrRepositoryNotReady
	}

	if store == nil {
		return ErrNilStore
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary flag file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := writeFlagCSV(tmp, store.Decisions()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		r.logger.Error("Failed to write flag file", "path", tmpPath, "error", err)
		return fmt.Errorf("failed to write flag file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary flag file: %w", err)
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace flag file %s: %w", r.path, err)
	}

	r.logger.Info("Flag store saved", "path", r.path, "flags", store.Len())
	return nil
}

func readFlagCSV(in io.Reader) ([]Decision, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	uidIdx, flagIdx := -1, -1
	for i, h := range headers {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case CSVColumnUID:
			uidIdx = i
		case CSVColumnFlag:
			flagIdx = i
		}
	}
	if uidIdx < 0 || flagIdx < 0 {
		return nil, fmt.Errorf("flag csv must have %q and %q columns", CSVColumnUID, CSVColumnFlag)
	}

	var decisions []Decision
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if uidIdx >= len(record) || flagIdx >= len(record) {
			return nil, fmt.Errorf("line %d: missing columns", line)
		}

		uid, err := parseUID(record[uidIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		decisions = append(decisions, Decision{UID: uid, Flag: ParseFlag(record[flagIdx])})
	}

	return decisions, nil
}

func writeFlagCSV(out io.Writer, decisions []Decision) error {
	writer := csv.NewWriter(out)
	if err := writer.Write([]string{CSVColumnUID, CSVColumnFlag}); err != nil {
		return err
	}

	for _, d := range decisions {
		if err := writer.Write([]string{strconv.FormatInt(int64(d.UID), 10), string(d.Flag)}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// parseUID accepts integer uids and the "123.0" form written by float columns.
func parseUID(raw string) (reading.UID, error) {
	raw = strings.TrimSpace(raw)
	if uid, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return reading.UID(uid), nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("invalid uid %q", raw)
	}
	return reading.UID(int64(f)), nil
}
