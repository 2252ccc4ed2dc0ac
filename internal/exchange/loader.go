package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gocache "github.com/patrickmn/go-cache"
)

// Loader builds canonical tables and memoizes them per source identity
// (absolute path, size and modification time). An entry is written at most
// once and never mutated afterwards, so concurrent readers may share the
// returned table without locking. Replacing the source file invalidates
// the key naturally.
type Loader struct {
	partners []Partner
	cache    *gocache.Cache
	logger   *slog.Logger
}

// NewLoader creates a loader for the given partner configuration. A nil
// or empty partner slice selects DefaultPartners; a nil logger falls back
// to slog.Default.
func NewLoader(partners []Partner, logger *slog.Logger) *Loader {
	if len(partners) == 0 {
		partners = DefaultPartners()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		partners: partners,
		cache:    gocache.New(gocache.NoExpiration, 0),
		logger:   logger.With(slog.String("component", "exchange_loader")),
	}
}

// Load returns the canonical table for the given source file, reading and
// reconstructing it on first access. CSV and XLSX sources are dispatched
// by extension. Load failures are fatal for the source: callers must
// surface them rather than substitute empty data.
func (l *Loader) Load(ctx context.Context, path string) (*Table, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat source file: %w", err)
	}

	key := fmt.Sprintf("%s|%d|%d", abs, info.Size(), info.ModTime().UnixNano())
	if cached, ok := l.cache.Get(key); ok {
		return cached.(*Table), nil
	}

	raw, err := l.readRaw(abs)
	if err != nil {
		return nil, err
	}

	table, err := Reconstruct(raw, l.partners)
	if err != nil {
		return nil, fmt.Errorf("reconstruct %s: %w", filepath.Base(abs), err)
	}

	l.cache.Set(key, table, gocache.NoExpiration)

	l.logger.InfoContext(ctx, "canonical table built",
		slog.String("source", abs),
		slog.Int("raw_rows", len(raw.Rows)),
		slog.Int("rows", len(table.Records)),
		slog.Int("net_columns", len(table.NetColumns)),
	)

	return table, nil
}

func (l *Loader) readRaw(path string) (*RawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSXFile(path)
	default:
		return ReadCSVFile(path)
	}
}
