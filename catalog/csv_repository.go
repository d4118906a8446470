package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var ErrCatalogNotFound = fmt.Errorf("catalog file not found")

type CSVRepository struct {
	path   string
	logger *slog.Logger
}

func NewCSVRepository(path string, logger *slog.Logger) *CSVRepository {
	return &CSVRepository{path: path, logger: logger}
}

func (r *CSVRepository) IsReady() bool {
	if r.logger == nil {
		fmt.Println("Logger of catalog CSVRepository is not initialized")
		return false
	}

	if r.path == "" {
		r.logger.Error("Catalog path is not set")
		return false
	}

	return true
}

// List reads every entry of the catalog. Rows with missing fields are
// skipped with a warning; duplicated entries are collapsed.
func (r *CSVRepository) List(ctx context.Context) (Entries, error) {
	defer ctx.Done()

	if !r.IsReady() {
		return nil, fmt.Errorf("catalog repository is not ready")
	}

	file, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, r.path)
		}
		return nil, fmt.Errorf("failed to open catalog %s: %w", r.path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			r.logger.Error("Failed to close catalog file", "path", r.path, "error", err)
		}
	}()

	entries, skipped, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", r.path, err)
	}

	if skipped > 0 {
		r.logger.Warn("Skipped incomplete catalog rows", "path", r.path, "skipped", skipped)
	}

	entries, duplicates := entries.Dedupe()
	if duplicates > 0 {
		r.logger.Warn("Dropped duplicated catalog rows", "path", r.path, "duplicates", duplicates)
	}

	r.logger.Info("Catalog loaded", "path", r.path, "entries", len(entries))
	return entries, nil
}

// ReadCSV parses a catalog with a header row naming the columns code,
// subplot and treatment in any order. It returns the entries and the number
// of rows skipped for missing fields.
func ReadCSV(in io.Reader) (Entries, int, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Entries{}, 0, nil
		}
		return nil, 0, err
	}

	columns := map[string]int{"code": -1, "subplot": -1, "treatment": -1}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := columns[name]; ok {
			columns[name] = i
		}
	}
	for _, idx := range columns {
		if idx < 0 {
			return nil, 0, ErrMissingHeader
		}
	}

	entries := Entries{}
	skipped := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, err
		}

		field := func(name string) string {
			idx := columns[name]
			if idx >= len(row) {
				return ""
			}
			return row[idx]
		}

		entry, err := NewEntry(field("code"), field("subplot"), field("treatment"))
		if err != nil {
			skipped++
			continue
		}
		entries = append(entries, *entry)
	}

	return entries, skipped, nil
}
