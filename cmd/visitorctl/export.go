package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mellystark/visitormanagement/internal/services"
	"github.com/mellystark/visitormanagement/pkg/export"
)

const dateFlagLayout = "2006-01-02"

func newExportCmd(state *cli) *cobra.Command {
	var (
		format    string
		output    string
		startDate string
		endDate   string
	)

	cmd := &cobra.Command{
		Use:       "export {visitors|logs|stats}",
		Short:     "Export visitors, ledger rows or statistics as CSV or XLSX",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"visitors", "logs", "stats"},
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != "csv" && format != "xlsx" {
				return fmt.Errorf("unsupported format %q (want csv or xlsx)", format)
			}

			var (
				table  export.Table
				prefix string
				err    error
			)
			ctx := cmd.Context()
			switch args[0] {
			case "visitors":
				prefix = services.ExportPrefixVisitors
				table, err = state.svc.Exports.Visitors(ctx)
			case "logs":
				prefix = services.ExportPrefixLogs
				var dates services.DateRange
				if dates, err = parseDateFlags(startDate, endDate); err != nil {
					return err
				}
				table, err = state.svc.Exports.Logs(ctx, services.LogFilter{Range: dates})
			case "stats":
				prefix = services.ExportPrefixStats
				table, err = state.svc.Exports.Stats(ctx)
			}
			if err != nil {
				return err
			}

			if output == "" {
				output = export.Filename(prefix, format, time.Now())
			}
			if output == "-" {
				return writeTable(cmd.OutOrStdout(), table, format)
			}

			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			file, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := writeTable(file, table, format); err != nil {
				_ = file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", len(table.Rows), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format: csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default is a timestamped name)")
	cmd.Flags().StringVar(&startDate, "start", "", "logs only: first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "logs only: last day (YYYY-MM-DD), inclusive")
	return cmd
}

func writeTable(w io.Writer, table export.Table, format string) error {
	if format == "xlsx" {
		return export.WriteXLSX(w, table)
	}
	return export.WriteCSV(w, table)
}

func parseDateFlags(start, end string) (services.DateRange, error) {
	var dates services.DateRange
	if start != "" {
		t, err := time.Parse(dateFlagLayout, start)
		if err != nil {
			return dates, fmt.Errorf("invalid --start: %w", err)
		}
		dates.Start = &t
	}
	if end != "" {
		t, err := time.Parse(dateFlagLayout, end)
		if err != nil {
			return dates, fmt.Errorf("invalid --end: %w", err)
		}
		t = t.Add(24*time.Hour - time.Nanosecond)
		dates.End = &t
	}
	return dates, nil
}
