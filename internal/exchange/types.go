package exchange

import "time"

const (
	// NetPrefix marks derived net-flow columns. Any raw column carrying
	// this prefix is assumed to come from an earlier, potentially
	// sign-inconsistent derivation and is dropped before recomputation.
	NetPrefix = "net_"

	// NetTotalColumn is the recomputed sum over all partner net columns.
	NetTotalColumn = "net_total"

	// Raw timestamp schemas, in resolution priority order.
	combinedTimestampColumn = "datetime"
	rawDateColumn           = "Date"
	hourSlotColumn          = "Tranche horaire du programme d'échange"
)

// Partner declares one neighbouring exchange zone together with its two
// raw unidirectional flow columns. The mapping is static: absence of a
// partner's columns in the loaded schema is a checked branch, never a
// string-matching side effect.
type Partner struct {
	Code         string
	ExportColumn string // volumes flowing from the home zone to the partner
	ImportColumn string // volumes flowing from the partner to the home zone
}

// NetColumn returns the canonical net-flow column name for the partner.
func (p Partner) NetColumn() string { return NetPrefix + p.Code }

// DefaultPartners returns the externally fixed column vocabulary of the
// raw exchange file.
func DefaultPartners() []Partner {
	return []Partner{
		{Code: "GBR", ExportColumn: "FR vers GB (MWh)", ImportColumn: "GB vers FR (MWh)"},
		{Code: "CHE", ExportColumn: "FR vers CH (MWh)", ImportColumn: "CH vers FR (MWh)"},
		{Code: "ITA", ExportColumn: "FR vers IT (MWh)", ImportColumn: "IT vers FR (MWh)"},
		{Code: "ESP", ExportColumn: "FR vers ES (MWh)", ImportColumn: "ES vers FR (MWh)"},
		{Code: "CWE/Core", ExportColumn: "FR->CWE/Core", ImportColumn: "CWE/Core->FR"},
	}
}

// Record is one canonical row: a resolved timestamp, the calendar fields
// derived from it, the recognized raw flow volumes and the recomputed net
// flows. Calendar fields are never taken from raw columns once the
// timestamp exists.
type Record struct {
	Timestamp time.Time `json:"timestamp"`

	Date  string `json:"date"`  // "2006-01-02"
	Year  int    `json:"year"`
	Month string `json:"month"` // "2006-01"; sorts and groups like (year, month)
	Day   int    `json:"day"`
	Hour  int    `json:"hour"`

	// Flows holds the recognized unidirectional volumes keyed by raw
	// column name, with their original signs. Missing values are zero.
	Flows map[string]float64 `json:"flows,omitempty"`

	// Net holds net_<partner> = |export| - |import| for every partner
	// whose two raw columns were present.
	Net map[string]float64 `json:"net,omitempty"`

	// NetTotal is the row-wise sum of Net. It is always recomputed and
	// never read from the raw file.
	NetTotal float64 `json:"net_total"`

	// Extra carries unrecognized raw columns untouched. They are excluded
	// from aggregation.
	Extra map[string]string `json:"extra,omitempty"`
}

// deriveCalendar rebuilds the calendar breakdown strictly from Timestamp.
func (r *Record) deriveCalendar() {
	r.Date = r.Timestamp.Format("2006-01-02")
	r.Year = r.Timestamp.Year()
	r.Month = r.Timestamp.Format("2006-01")
	r.Day = r.Timestamp.Day()
	r.Hour = r.Timestamp.Hour()
}

// Table is an immutable canonical or aggregated record set. FlowColumns
// and NetColumns list, in stable partner order, the columns present on
// every record; downstream consumers must filter and aggregate into new
// tables rather than mutate one in place.
type Table struct {
	Records     []Record `json:"records"`
	FlowColumns []string `json:"flow_columns,omitempty"`
	NetColumns  []string `json:"net_columns,omitempty"`
}

// FilterRange returns a new table holding the records with from <=
// timestamp <= to. A zero from or to leaves that bound open.
func FilterRange(t *Table, from, to time.Time) *Table {
	out := &Table{
		FlowColumns: t.FlowColumns,
		NetColumns:  t.NetColumns,
	}
	for _, rec := range t.Records {
		if !from.IsZero() && rec.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && rec.Timestamp.After(to) {
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out
}
