// Package exchange reconstructs and aggregates France's cross-border
// electricity exchange data.
//
// This package contains three main components:
//
// Reconstruct: loads a raw hourly exchange table (semicolon-separated CSV
// or XLSX), resolves a canonical timestamp from either of the two raw
// schemas, and recomputes signed per-partner net flows with a fixed sign
// convention together with a consistent net total.
//
// Aggregate: resamples a canonical table into calendar-aligned hourly,
// daily, weekly or monthly buckets, summing flow and net columns and
// re-deriving the calendar breakdown from each bucket start.
//
// Loader: memoizes canonical tables per source file (path, size and
// modification time), so repeated consumers share a single immutable
// table for the lifetime of the process.
//
// Example usage:
//
//	loader := exchange.NewLoader(nil, logger)
//	table, err := loader.Load(ctx, "data/processed/processed-imports-exports.csv")
//
//	monthly, err := exchange.Aggregate(table, exchange.Monthly)
package exchange
