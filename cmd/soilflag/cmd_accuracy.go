package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timgluz/soilflag/report"
	"github.com/timgluz/soilflag/task"
)

var accuracyXLSXPath string

var accuracyCmd = &cobra.Command{
	Use:   "accuracy",
	Short: "Compare stored flags with the manual outlier decisions of the API",
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

		reporter := task.NewAccuracyReporter(app.flagRepository, app.provider, app.logger.With("component", "accuracy"))
		accuracyReport, err := reporter.Run(ctx, entries, task.AccuracyOptions{
			FetchConcurrency: app.config.Flagging.FetchConcurrency,
		})
		if err != nil {
			return err
		}

		if err := report.WriteAccuracySummary(cmd.OutOrStdout(), accuracyReport); err != nil {
			return err
		}

		if accuracyXLSXPath != "" {
			if err := report.ExportWorkbook(accuracyXLSXPath, nil, accuracyReport); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	accuracyCmd.Flags().StringVar(&accuracyXLSXPath, "xlsx", "", "Also write the per-stream statistics to this XLSX file")
}
