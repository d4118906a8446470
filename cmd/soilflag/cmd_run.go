package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timgluz/soilflag/report"
	"github.com/timgluz/soilflag/task"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Flag new readings of every catalog entry and update the flag store",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadAppComponent(configPath)
		if err != nil {
			return err
		}
		defer app.Close()

		if !app.IsReady() {
			return fmt.Errorf("soilflag components are not ready")
		}

		ctx := cmd.Context()
		entries, err := app.entries(ctx)
		if err != nil {
			return err
		}

		reflagger := task.NewReflagger(app.flagRepository, app.provider, app.oracle, app.recorder, app.logger.With("component", "reflagger"))
		runReport, err := reflagger.Run(ctx, entries, task.ReflaggerOptions{
			Frequency:        app.frequency,
			FetchConcurrency: app.config.Flagging.FetchConcurrency,
		})
		if err != nil {
			return err
		}

		if err := report.WriteRunSummary(cmd.OutOrStdout(), runReport); err != nil {
			return err
		}

		if path := app.config.Report.XLSXPath; path != "" {
			if err := report.ExportWorkbook(path, runReport, nil); err != nil {
				app.logger.Error("Failed to export workbook", "path", path, "error", err)
			} else {
				app.logger.Info("Workbook exported", "path", path)
			}
		}

		if err := app.recorder.WriteTextfile(app.config.Metrics.TextfilePath); err != nil {
			app.logger.Error("Failed to write metrics", "error", err)
			fmt.Fprintln(os.Stderr, err)
		}
		return nil
	},
}
