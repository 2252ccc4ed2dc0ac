package exchange

import (
	"fmt"
	"strings"
)

// SchemaError reports that neither supported timestamp schema is present
// in the raw table: no combined "datetime" column and no calendar date +
// exchange-program hour-slot pair.
type SchemaError struct {
	Columns []string // header of the offending table
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf(
		"cannot resolve timestamps: expected a %q column or the (%q, %q) pair, got header [%s]",
		combinedTimestampColumn, rawDateColumn, hourSlotColumn,
		strings.Join(e.Columns, ", "))
}

// TimestampResolutionError reports that a timestamp schema was present but
// every row failed to parse into a valid point in time. A table with zero
// valid timestamps is unusable regardless of row count.
type TimestampResolutionError struct {
	Schema string // schema that was attempted
	Rows   int
}

func (e *TimestampResolutionError) Error() string {
	return fmt.Sprintf("all %d rows failed timestamp resolution via the %s schema", e.Rows, e.Schema)
}

// NoFlowDataError reports that no configured partner had both of its raw
// unidirectional columns present, so no net column could be produced.
type NoFlowDataError struct {
	Partners []Partner // configured partners that were checked
}

func (e *NoFlowDataError) Error() string {
	codes := make([]string, len(e.Partners))
	for i, p := range e.Partners {
		codes[i] = p.Code
	}
	return fmt.Sprintf(
		"no net columns could be constructed: none of the partners [%s] has both export and import columns present",
		strings.Join(codes, ", "))
}
