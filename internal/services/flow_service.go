// Package services exposes the exchange core to presentation
// collaborators: canonical table access, range filtering, temporal
// aggregation, KPI summaries and top-day rankings.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"fluxnet/internal/exchange"
	"fluxnet/internal/metrics"
)

// FlowService serves reconstructed cross-border flow data from a single
// configured source file. The canonical table behind it is cached by the
// loader and immutable, so the service is safe for concurrent use.
type FlowService struct {
	loader   *exchange.Loader
	source   string
	partners []exchange.Partner
	logger   *slog.Logger
	recorder *metrics.Recorder
}

// NewFlowService creates a flow service. A nil logger falls back to
// slog.Default; a nil recorder disables instrumentation.
func NewFlowService(loader *exchange.Loader, source string, logger *slog.Logger, recorder *metrics.Recorder) *FlowService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlowService{
		loader:   loader,
		source:   source,
		partners: exchange.DefaultPartners(),
		logger:   logger.With(slog.String("component", "flow_service")),
		recorder: recorder,
	}
}

// Canonical returns the cached canonical table for the configured source.
func (s *FlowService) Canonical(ctx context.Context) (*exchange.Table, error) {
	start := time.Now()
	table, err := s.loader.Load(ctx, s.source)
	if s.recorder != nil {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		s.recorder.RecordLoad(outcome, time.Since(start).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.source, err)
	}
	return table, nil
}

// Aggregate filters the canonical table to [from, to] and resamples it to
// the requested granularity. Zero bounds leave the range open.
func (s *FlowService) Aggregate(ctx context.Context, g exchange.Granularity, from, to time.Time) (*exchange.Table, error) {
	table, err := s.Canonical(ctx)
	if err != nil {
		return nil, err
	}

	agg, err := exchange.Aggregate(exchange.FilterRange(table, from, to), g)
	if err != nil {
		return nil, err
	}
	if s.recorder != nil {
		s.recorder.RecordAggregation(string(g))
	}

	s.logger.DebugContext(ctx, "aggregated flow table",
		slog.String("granularity", string(g)),
		slog.Int("buckets", len(agg.Records)),
	)
	return agg, nil
}

// Summary holds the dashboard KPIs for a date range.
type Summary struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	Rows int       `json:"rows"`

	TotalExportMWh float64 `json:"total_export_mwh"`
	TotalImportMWh float64 `json:"total_import_mwh"`
	NetBalanceMWh  float64 `json:"net_balance_mwh"`

	TotalExport string `json:"total_export"`
	TotalImport string `json:"total_import"`
	NetBalance  string `json:"net_balance"`
}

// Summary computes cumulative export, cumulative import and net balance
// over the selected range, with human-scaled renderings.
func (s *FlowService) Summary(ctx context.Context, from, to time.Time) (*Summary, error) {
	table, err := s.Canonical(ctx)
	if err != nil {
		return nil, err
	}
	filtered := exchange.FilterRange(table, from, to)

	exportCols, importCols := s.classifyColumns(filtered.FlowColumns)

	out := &Summary{Rows: len(filtered.Records)}
	for _, rec := range filtered.Records {
		if out.From.IsZero() || rec.Timestamp.Before(out.From) {
			out.From = rec.Timestamp
		}
		if rec.Timestamp.After(out.To) {
			out.To = rec.Timestamp
		}
		for _, c := range exportCols {
			out.TotalExportMWh += rec.Flows[c]
		}
		for _, c := range importCols {
			out.TotalImportMWh += rec.Flows[c]
		}
		out.NetBalanceMWh += rec.NetTotal
	}

	out.TotalExport = exchange.FormatMWh(out.TotalExportMWh)
	out.TotalImport = exchange.FormatMWh(out.TotalImportMWh)
	out.NetBalance = exchange.FormatMWh(out.NetBalanceMWh)
	return out, nil
}

// classifyColumns splits the present flow columns into export-direction
// and import-direction sets using the static partner mapping.
func (s *FlowService) classifyColumns(flowColumns []string) (exports, imports []string) {
	present := make(map[string]bool, len(flowColumns))
	for _, c := range flowColumns {
		present[c] = true
	}
	for _, p := range s.partners {
		if present[p.ExportColumn] {
			exports = append(exports, p.ExportColumn)
		}
		if present[p.ImportColumn] {
			imports = append(imports, p.ImportColumn)
		}
	}
	return exports, imports
}

// DayTotal is one day's net balance.
type DayTotal struct {
	Date        string  `json:"date"`
	NetTotalMWh float64 `json:"net_total_mwh"`
	NetTotal    string  `json:"net_total"`
}

// TopDays ranks the strongest export days and the strongest import days.
type TopDays struct {
	Exports []DayTotal `json:"exports"`
	Imports []DayTotal `json:"imports"`
}

// TopDays returns the n days with the highest and the lowest daily net
// balance inside the selected range.
func (s *FlowService) TopDays(ctx context.Context, n int, from, to time.Time) (*TopDays, error) {
	if n <= 0 {
		n = 10
	}

	daily, err := s.Aggregate(ctx, exchange.Daily, from, to)
	if err != nil {
		return nil, err
	}

	days := make([]DayTotal, 0, len(daily.Records))
	for _, rec := range daily.Records {
		days = append(days, DayTotal{
			Date:        rec.Date,
			NetTotalMWh: rec.NetTotal,
			NetTotal:    exchange.FormatMWh(rec.NetTotal),
		})
	}

	sorted := append([]DayTotal(nil), days...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].NetTotalMWh > sorted[j].NetTotalMWh })

	out := &TopDays{}
	for i := 0; i < len(sorted) && i < n; i++ {
		out.Exports = append(out.Exports, sorted[i])
	}
	for i := len(sorted) - 1; i >= 0 && len(out.Imports) < n; i-- {
		out.Imports = append(out.Imports, sorted[i])
	}
	return out, nil
}

// Partners returns the codes of the partners that produced a net column.
func (s *FlowService) Partners(ctx context.Context) ([]string, error) {
	table, err := s.Canonical(ctx)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(table.NetColumns))
	for _, p := range s.partners {
		for _, c := range table.NetColumns {
			if p.NetColumn() == c {
				codes = append(codes, p.Code)
				break
			}
		}
	}
	return codes, nil
}
