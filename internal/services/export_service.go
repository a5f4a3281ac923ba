package services

import (
	"context"
	"errors"

	"github.com/mellystark/visitormanagement/pkg/export"
)

// Download name prefixes.
const (
	ExportPrefixVisitors = "Visitors"
	ExportPrefixLogs     = "VisitorLogs"
	ExportPrefixStats    = "Stats"
)

// ExportService assembles registry, ledger and statistics tables for download.
type ExportService struct {
	visitors *VisitorService
	ledger   *LedgerService
	stats    *StatsService
}

// NewExportService constructs an ExportService.
func NewExportService(visitors *VisitorService, ledger *LedgerService, stats *StatsService) (*ExportService, error) {
	if visitors == nil || ledger == nil || stats == nil {
		return nil, errors.New("export service: visitor, ledger and stats services are required")
	}
	return &ExportService{visitors: visitors, ledger: ledger, stats: stats}, nil
}

// Visitors returns every visitor as a table.
func (s *ExportService) Visitors(ctx context.Context) (export.Table, error) {
	visitors, err := s.visitors.List(ctx)
	if err != nil {
		return export.Table{}, err
	}

	table := export.Table{
		Name:    "Visitors",
		Columns: []string{"ID", "Full Name", "Email", "Phone Number", "Created At"},
		Rows:    make([][]any, 0, len(visitors)),
	}
	for _, v := range visitors {
		table.Rows = append(table.Rows, []any{v.ID, v.FullName, v.Email, v.PhoneNumber, v.CreatedAt})
	}
	return table, nil
}

// Logs returns the ledger rows matching filter as a table.
func (s *ExportService) Logs(ctx context.Context, filter LogFilter) (export.Table, error) {
	rows, err := s.ledger.All(ctx, filter)
	if err != nil {
		return export.Table{}, err
	}

	table := export.Table{
		Name:    "Visitor Logs",
		Columns: []string{"Log ID", "Visitor Name", "Phone Number", "Entry Time", "Exit Time"},
		Rows:    make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		table.Rows = append(table.Rows, []any{r.ID, r.VisitorName, r.PhoneNumber, r.EntryTime, r.ExitTime})
	}
	return table, nil
}

// Stats returns the current statistics snapshot as a one row table.
func (s *ExportService) Stats(ctx context.Context) (export.Table, error) {
	snapshot, err := s.stats.Snapshot(ctx)
	if err != nil {
		return export.Table{}, err
	}
	return export.Table{
		Name:    "Stats",
		Columns: []string{"Total Visitors", "Daily Entries", "Daily Exits", "Report Date"},
		Rows: [][]any{{
			snapshot.TotalVisitors,
			snapshot.DailyEntries,
			snapshot.DailyExits,
			snapshot.GeneratedAt,
		}},
	}, nil
}
