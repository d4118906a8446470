package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/timgluz/soilflag/task"
)

const (
	SummarySheet  = "summary"
	FlagsSheet    = "flags"
	AccuracySheet = "accuracy"
	FailuresSheet = "failures"
)

// ExportWorkbook writes the run counts and the merged flags to an XLSX file.
// The accuracy sheet is added when accuracy is not nil.
func ExportWorkbook(path string, run *task.RunReport, accuracy *task.AccuracyReport) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}

	if run != nil {
		if err := writeSummarySheet(f, run); err != nil {
			return err
		}
		if err := writeFlagsSheet(f, run); err != nil {
			return err
		}
		if err := writeFailuresSheet(f, run.Failures); err != nil {
			return err
		}
	}

	if accuracy != nil {
		if err := writeAccuracySheet(f, accuracy); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of sheet %s: %w", i+1, sheet, err)
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, run *task.RunReport) error {
	rows := [][]any{
		{"run_id", run.RunID},
		{"started_at", run.StartedAt.Format(time.RFC3339)},
		{"finished_at", run.FinishedAt.Format(time.RFC3339)},
		{"frequency", run.Frequency},
		{"entries", run.Entries},
		{"streams", run.Streams},
		{"unflagged", run.Unflagged},
		{"reflagged", run.Reflagged()},
		{"modified", run.Modified},
		{"oracle_calls", run.OracleCalls},
		{"store_size", run.StoreSize},
		{"failures", len(run.Failures)},
	}
	return writeRows(f, SummarySheet, rows)
}

func writeFlagsSheet(f *excelize.File, run *task.RunReport) error {
	if run.Store == nil {
		return nil
	}

	if _, err := f.NewSheet(FlagsSheet); err != nil {
		return fmt.Errorf("failed to add flags sheet: %w", err)
	}

	decisions := run.Store.Decisions()
	rows := make([][]any, 0, len(decisions)+1)
	rows = append(rows, []any{"uid", "qflag"})
	for _, d := range decisions {
		rows = append(rows, []any{int64(d.UID), string(d.Flag)})
	}
	return writeRows(f, FlagsSheet, rows)
}

func writeFailuresSheet(f *excelize.File, failures []task.Failure) error {
	if len(failures) == 0 {
		return nil
	}

	if _, err := f.NewSheet(FailuresSheet); err != nil {
		return fmt.Errorf("failed to add failures sheet: %w", err)
	}

	rows := make([][]any, 0, len(failures)+1)
	rows = append(rows, []any{"entry", "stream", "reason", "error"})
	for _, failure := range failures {
		rows = append(rows, []any{failure.Entry, failure.Stream, failure.Reason, failure.Error})
	}
	return writeRows(f, FailuresSheet, rows)
}

func writeAccuracySheet(f *excelize.File, accuracy *task.AccuracyReport) error {
	if _, err := f.NewSheet(AccuracySheet); err != nil {
		return fmt.Errorf("failed to add accuracy sheet: %w", err)
	}

	rows := [][]any{{
		"stream", "both_flagged", "both_unflagged", "oracle_flagged", "oracle_unflagged",
		"manually_flagged", "manually_unflagged", "unscored",
		"oracle_flagged_confirmed", "oracle_unflagged_confirmed", "manually_flagged_found", "manually_unflagged_found",
	}}

	for _, s := range accuracy.Streams {
		rows = append(rows, accuracyRow(s.Stream, s.Stats))
	}
	rows = append(rows, accuracyRow("total", accuracy.Total))

	return writeRows(f, AccuracySheet, rows)
}

func accuracyRow(name string, stats task.AccuracyStats) []any {
	return []any{
		name, stats.BothFlagged, stats.BothUnflagged, stats.OracleFlagged, stats.OracleUnflagged,
		stats.ManuallyFlagged, stats.ManuallyUnflagged, stats.Unscored,
		formatPercent(stats.OracleFlaggedConfirmed()),
		formatPercent(stats.OracleUnflaggedConfirmed()),
		formatPercent(stats.ManuallyFlaggedFound()),
		formatPercent(stats.ManuallyUnflaggedFound()),
	}
}
