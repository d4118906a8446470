package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/timgluz/soilflag/task"
)

const undefined = "undefined"

// WriteRunSummary prints the three run counts, one per line.
func WriteRunSummary(w io.Writer, report *task.RunReport) error {
	_, err := fmt.Fprintf(w,
		"Number of Unflagged Entries: %d\nNumber of Reflagged Entries: %d\nTotal Number of Modified Entries (including unflagged): %d\n",
		report.Unflagged, report.Reflagged(), report.Modified)
	if err != nil {
		return err
	}

	if report.Anomalous() {
		if _, err := fmt.Fprintln(w, "Warning: fewer entries were modified than were unflagged"); err != nil {
			return err
		}
	}

	if len(report.Failures) > 0 {
		if _, err := fmt.Fprintf(w, "Skipped: %d (see log)\n", len(report.Failures)); err != nil {
			return err
		}
	}
	return nil
}

// WriteAccuracySummary prints the four agreement percentages of the totals.
func WriteAccuracySummary(w io.Writer, report *task.AccuracyReport) error {
	stats := report.Total
	lines := []struct {
		label string
		value func() (float64, bool)
	}{
		{"Percent oracle flagged that was manually flagged", stats.OracleFlaggedConfirmed},
		{"Percent oracle unflagged that was manually unflagged", stats.OracleUnflaggedConfirmed},
		{"Percent manually flagged that was oracle flagged", stats.ManuallyFlaggedFound},
		{"Percent manually unflagged that was oracle unflagged", stats.ManuallyUnflaggedFound},
	}

	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%s: %s\n", line.label, formatPercent(line.value())); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Scored readings: %d, unscored readings: %d\n", stats.Scored(), stats.Unscored)
	return err
}

func formatPercent(value float64, ok bool) string {
	if !ok {
		return undefined
	}
	return strconv.FormatFloat(value, 'f', 2, 64) + "%"
}
