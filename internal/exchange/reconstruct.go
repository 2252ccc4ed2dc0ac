package exchange

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Timestamp formats accepted for the combined "datetime" column.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

// Date formats accepted for the separate calendar-date column.
var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
}

// Calendar fields are rebuilt from the resolved timestamp; raw columns
// with these names are discarded rather than passed through.
var calendarColumns = map[string]bool{
	"date": true, "year": true, "month": true, "day": true, "hour": true,
}

// Reconstruct rebuilds a canonical table from a raw exchange table:
// resolve one timestamp per row, drop any pre-existing net_* columns,
// recompute net_<partner> = |export| - |import| for every partner whose
// two raw columns are present, sum those into net_total, and derive the
// calendar breakdown from the timestamp alone.
//
// Rows whose timestamp cannot be resolved are counted, then excluded from
// the canonical table; a table where every row fails resolution is
// rejected as a whole. Row-local coercion failures are repaired instead
// (missing or unparsable hour slots become hour 0, flow values become 0).
func Reconstruct(raw *RawTable, partners []Partner) (*Table, error) {
	if len(partners) == 0 {
		partners = DefaultPartners()
	}

	stamps, valid, err := resolveTimestamps(raw)
	if err != nil {
		return nil, err
	}

	// Column roles. Partner columns are matched by the static mapping;
	// raw net_* columns are unconditionally dropped because their sign
	// convention is not trustworthy.
	flowIndex := map[string]int{}
	var flowColumns, netColumns []string
	type netPair struct {
		column   string
		exp, imp int
	}
	var pairs []netPair

	for _, p := range partners {
		ei, ii := raw.Index(p.ExportColumn), raw.Index(p.ImportColumn)
		if ei >= 0 {
			flowIndex[p.ExportColumn] = ei
			flowColumns = append(flowColumns, p.ExportColumn)
		}
		if ii >= 0 {
			flowIndex[p.ImportColumn] = ii
			flowColumns = append(flowColumns, p.ImportColumn)
		}
		if ei >= 0 && ii >= 0 {
			pairs = append(pairs, netPair{column: p.NetColumn(), exp: ei, imp: ii})
			netColumns = append(netColumns, p.NetColumn())
		}
	}
	if len(pairs) == 0 {
		return nil, &NoFlowDataError{Partners: partners}
	}

	// Everything that is neither a timestamp-schema column, a recognized
	// flow column, a stale net_* column nor a stale calendar column is
	// passed through untouched.
	var extraIndex []int
	for i, name := range raw.Columns {
		switch {
		case name == combinedTimestampColumn, name == rawDateColumn, name == hourSlotColumn:
		case strings.HasPrefix(name, NetPrefix):
		case calendarColumns[name]:
		default:
			if _, recognized := flowIndex[name]; !recognized {
				extraIndex = append(extraIndex, i)
			}
		}
	}

	table := &Table{FlowColumns: flowColumns, NetColumns: netColumns}
	for i, row := range raw.Rows {
		if !valid[i] {
			continue
		}

		rec := Record{
			Timestamp: stamps[i],
			Flows:     make(map[string]float64, len(flowColumns)),
			Net:       make(map[string]float64, len(pairs)),
		}
		rec.deriveCalendar()

		for _, name := range flowColumns {
			rec.Flows[name] = coerceFlow(raw.Cell(row, flowIndex[name]))
		}
		for _, p := range pairs {
			exp := math.Abs(coerceFlow(raw.Cell(row, p.exp)))
			imp := math.Abs(coerceFlow(raw.Cell(row, p.imp)))
			net := exp - imp
			rec.Net[p.column] = net
			rec.NetTotal += net
		}
		for _, ci := range extraIndex {
			if v := raw.Cell(row, ci); v != "" {
				if rec.Extra == nil {
					rec.Extra = make(map[string]string)
				}
				rec.Extra[raw.Columns[ci]] = v
			}
		}

		table.Records = append(table.Records, rec)
	}

	return table, nil
}

// resolveTimestamps resolves one absolute point in time per raw row,
// preferring the combined timestamp schema over the date + hour-slot
// schema. It fails when no schema is present, or when a schema is present
// but not a single row parses.
func resolveTimestamps(raw *RawTable) ([]time.Time, []bool, error) {
	if raw == nil || len(raw.Columns) == 0 {
		return nil, nil, &SchemaError{}
	}

	stamps := make([]time.Time, len(raw.Rows))
	valid := make([]bool, len(raw.Rows))

	if ti := raw.Index(combinedTimestampColumn); ti >= 0 {
		any := false
		for i, row := range raw.Rows {
			if ts, ok := parseAny(raw.Cell(row, ti), timestampFormats); ok {
				stamps[i], valid[i], any = ts, true, true
			}
		}
		if !any {
			return nil, nil, &TimestampResolutionError{Schema: combinedTimestampColumn, Rows: len(raw.Rows)}
		}
		return stamps, valid, nil
	}

	di, hi := raw.Index(rawDateColumn), raw.Index(hourSlotColumn)
	if di >= 0 && hi >= 0 {
		any := false
		for i, row := range raw.Rows {
			day, ok := parseAny(raw.Cell(row, di), dateFormats)
			if !ok {
				continue
			}
			stamps[i] = day.Add(time.Duration(coerceHourSlot(raw.Cell(row, hi))) * time.Hour)
			valid[i], any = true, true
		}
		if !any {
			return nil, nil, &TimestampResolutionError{
				Schema: rawDateColumn + "+" + hourSlotColumn,
				Rows:   len(raw.Rows),
			}
		}
		return stamps, valid, nil
	}

	return nil, nil, &SchemaError{Columns: raw.Columns}
}

func parseAny(value string, formats []string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, f := range formats {
		if ts, err := time.Parse(f, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// coerceHourSlot turns an exchange-program time slot into an hour in
// [0, 23]. Missing and unparsable slots default to 0; out-of-range slots
// are clamped rather than rejected, matching the leniency of the source.
func coerceHourSlot(value string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	hour := int(f)
	if hour < 0 {
		return 0
	}
	if hour > 23 {
		return 23
	}
	return hour
}

// coerceFlow parses a flow volume, treating missing or unparsable values
// as zero: the absence of a recorded flow means no flow, not unknown.
func coerceFlow(value string) float64 {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}
