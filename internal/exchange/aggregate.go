package exchange

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Granularity selects the calendar bucket width for aggregation.
type Granularity string

const (
	Hourly  Granularity = "hourly"
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// ParseGranularity accepts the long form ("daily") and the single-letter
// form ("D") used by the dashboard selector, case-insensitively.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hourly", "h":
		return Hourly, nil
	case "daily", "d":
		return Daily, nil
	case "weekly", "w":
		return Weekly, nil
	case "monthly", "m":
		return Monthly, nil
	default:
		return "", fmt.Errorf("unsupported granularity %q", s)
	}
}

// bucketStart maps a timestamp onto the start of its calendar-aligned
// bucket. Weeks start Monday 00:00.
func (g Granularity) bucketStart(t time.Time) (time.Time, error) {
	switch g {
	case Hourly:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location()), nil
	case Daily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()), nil
	case Weekly:
		sinceMonday := (int(t.Weekday()) + 6) % 7
		return time.Date(t.Year(), t.Month(), t.Day()-sinceMonday, 0, 0, 0, 0, t.Location()), nil
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported granularity %q", string(g))
	}
}

// Aggregate resamples a canonical table into fixed-width calendar buckets,
// summing every flow and net column plus net_total, and re-deriving the
// calendar breakdown from each bucket start. Unrecognized passthrough
// columns are not part of the aggregation contract and are dropped.
//
// Bucket boundaries depend only on the granularity and the calendar, and
// summation is order-independent, so aggregating the same input twice
// yields the same output. A malformed granularity is a programmer error:
// data problems are rejected at load time, not here.
func Aggregate(t *Table, g Granularity) (*Table, error) {
	if _, err := g.bucketStart(time.Time{}); err != nil {
		return nil, err
	}

	buckets := make(map[time.Time]*Record)
	for _, rec := range t.Records {
		start, _ := g.bucketStart(rec.Timestamp)

		b, ok := buckets[start]
		if !ok {
			b = &Record{
				Timestamp: start,
				Flows:     make(map[string]float64, len(t.FlowColumns)),
				Net:       make(map[string]float64, len(t.NetColumns)),
			}
			b.deriveCalendar()
			buckets[start] = b
		}

		for _, c := range t.FlowColumns {
			b.Flows[c] += rec.Flows[c]
		}
		for _, c := range t.NetColumns {
			b.Net[c] += rec.Net[c]
		}
		b.NetTotal += rec.NetTotal
	}

	out := &Table{
		Records:     make([]Record, 0, len(buckets)),
		FlowColumns: t.FlowColumns,
		NetColumns:  t.NetColumns,
	}
	for _, b := range buckets {
		out.Records = append(out.Records, *b)
	}
	sort.Slice(out.Records, func(i, j int) bool {
		return out.Records[i].Timestamp.Before(out.Records[j].Timestamp)
	})

	return out, nil
}
