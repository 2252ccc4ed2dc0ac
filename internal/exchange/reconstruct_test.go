package exchange

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstruct_SignNeutralization(t *testing.T) {
	tests := []struct {
		name    string
		export  string
		imprt   string
		wantNet float64
	}{
		{"both positive", "100", "40", 60},
		{"import carries upstream sign error", "100", "-40", 60},
		{"export negative too", "-100", "-40", 60},
		{"net importer", "10", "250", -240},
		{"missing import value", "100", "", 100},
		{"unparsable export value", "n/a", "40", -40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &RawTable{
				Columns: []string{"datetime", "FR vers GB (MWh)", "GB vers FR (MWh)"},
				Rows:    [][]string{{"2023-01-01 00:00:00", tt.export, tt.imprt}},
			}

			table, err := Reconstruct(raw, nil)
			require.NoError(t, err)
			require.Len(t, table.Records, 1)

			rec := table.Records[0]
			assert.Equal(t, tt.wantNet, rec.Net["net_GBR"])
			assert.Equal(t, tt.wantNet, rec.NetTotal)
		})
	}
}

func TestReconstruct_PreexistingNetColumnsAreIgnored(t *testing.T) {
	clean := &RawTable{
		Columns: []string{"datetime", "FR vers GB (MWh)", "GB vers FR (MWh)"},
		Rows: [][]string{
			{"2023-01-01 00:00:00", "100", "40"},
			{"2023-01-01 01:00:00", "80", "90"},
		},
	}
	polluted := &RawTable{
		Columns: []string{"datetime", "FR vers GB (MWh)", "GB vers FR (MWh)", "net_GBR", "net_total"},
		Rows: [][]string{
			{"2023-01-01 00:00:00", "100", "40", "-9999", "-9999"},
			{"2023-01-01 01:00:00", "80", "90", "1234", "1234"},
		},
	}

	want, err := Reconstruct(clean, nil)
	require.NoError(t, err)
	got, err := Reconstruct(polluted, nil)
	require.NoError(t, err)

	assert.Equal(t, want, got, "stale net_* columns must never influence the result")
}

func TestReconstruct_MissingPartnerColumnProducesNoNet(t *testing.T) {
	raw := &RawTable{
		Columns: []string{"datetime", "FR vers GB (MWh)", "GB vers FR (MWh)", "FR->CWE/Core"},
		Rows:    [][]string{{"2023-01-01 00:00:00", "100", "40", "500"}},
	}

	table, err := Reconstruct(raw, nil)
	require.NoError(t, err)

	rec := table.Records[0]
	assert.NotContains(t, rec.Net, "net_CWE/Core", "unpaired partner must not get a net column")
	assert.Equal(t, []string{"net_GBR"}, table.NetColumns)
	assert.Equal(t, 60.0, rec.NetTotal, "net_total must exclude the unpaired partner")

	// The lone export column is still a recognized flow column.
	assert.Contains(t, table.FlowColumns, "FR->CWE/Core")
	assert.Equal(t, 500.0, rec.Flows["FR->CWE/Core"])
}

func TestReconstruct_TimestampSchemaEquivalence(t *testing.T) {
	combined := &RawTable{
		Columns: []string{"datetime", "FR vers CH (MWh)", "CH vers FR (MWh)"},
		Rows: [][]string{
			{"2023-05-02 07:00:00", "310", "12"},
			{"2023-05-02 08:00:00", "250", "80"},
		},
	}
	split := &RawTable{
		Columns: []string{"Date", "Tranche horaire du programme d'échange", "FR vers CH (MWh)", "CH vers FR (MWh)"},
		Rows: [][]string{
			{"2023-05-02", "7", "310", "12"},
			{"2023-05-02", "8", "250", "80"},
		},
	}

	want, err := Reconstruct(combined, nil)
	require.NoError(t, err)
	got, err := Reconstruct(split, nil)
	require.NoError(t, err)

	assert.Equal(t, want, got, "both raw schemas encode the same instants")
}

func TestReconstruct_HourSlotCoercion(t *testing.T) {
	tests := []struct {
		name     string
		slot     string
		wantHour int
	}{
		{"plain hour", "7", 7},
		{"float slot", "2.0", 2},
		{"missing slot defaults to zero", "", 0},
		{"unparsable slot defaults to zero", "abc", 0},
		{"clamped above", "24", 23},
		{"clamped below", "-3", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &RawTable{
				Columns: []string{"Date", "Tranche horaire du programme d'échange", "FR vers IT (MWh)", "IT vers FR (MWh)"},
				Rows:    [][]string{{"2024-03-10", tt.slot, "5", "1"}},
			}

			table, err := Reconstruct(raw, nil)
			require.NoError(t, err)
			require.Len(t, table.Records, 1)

			rec := table.Records[0]
			assert.Equal(t, tt.wantHour, rec.Hour)
			assert.Equal(t, time.Date(2024, 3, 10, tt.wantHour, 0, 0, 0, time.UTC), rec.Timestamp)
		})
	}
}

func TestReconstruct_CalendarDerivedFromTimestampOnly(t *testing.T) {
	raw := &RawTable{
		Columns: []string{"datetime", "year", "month", "FR vers ES (MWh)", "ES vers FR (MWh)"},
		Rows:    [][]string{{"2021-12-31 23:00:00", "1999", "bogus", "10", "4"}},
	}

	table, err := Reconstruct(raw, nil)
	require.NoError(t, err)

	rec := table.Records[0]
	assert.Equal(t, 2021, rec.Year)
	assert.Equal(t, "2021-12", rec.Month)
	assert.Equal(t, "2021-12-31", rec.Date)
	assert.Equal(t, 31, rec.Day)
	assert.Equal(t, 23, rec.Hour)
	assert.NotContains(t, rec.Extra, "year", "stale calendar columns are discarded, not passed through")
	assert.NotContains(t, rec.Extra, "month")
}

func TestReconstruct_UnrecognizedColumnsPassThrough(t *testing.T) {
	raw := &RawTable{
		Columns: []string{"datetime", "FR vers GB (MWh)", "GB vers FR (MWh)", "Commentaire"},
		Rows: [][]string{
			{"2023-01-01 00:00:00", "100", "40", "révision ex-post"},
			{"2023-01-01 01:00:00", "90", "40", ""},
		},
	}

	table, err := Reconstruct(raw, nil)
	require.NoError(t, err)

	assert.Equal(t, "révision ex-post", table.Records[0].Extra["Commentaire"])
	assert.NotContains(t, table.FlowColumns, "Commentaire")
	assert.Nil(t, table.Records[1].Extra)
}

func TestReconstruct_RowsWithUnresolvableTimestampsAreExcluded(t *testing.T) {
	raw := &RawTable{
		Columns: []string{"datetime", "FR vers GB (MWh)", "GB vers FR (MWh)"},
		Rows: [][]string{
			{"not-a-timestamp", "100", "40"},
			{"2023-01-01 01:00:00", "80", "20"},
			{"", "70", "10"},
		},
	}

	table, err := Reconstruct(raw, nil)
	require.NoError(t, err)
	require.Len(t, table.Records, 1)
	assert.Equal(t, time.Date(2023, 1, 1, 1, 0, 0, 0, time.UTC), table.Records[0].Timestamp)
}

func TestReconstruct_Failures(t *testing.T) {
	tests := []struct {
		name    string
		raw     *RawTable
		wantErr any
	}{
		{
			name: "neither timestamp schema present",
			raw: &RawTable{
				Columns: []string{"FR vers GB (MWh)", "GB vers FR (MWh)"},
				Rows:    [][]string{{"100", "40"}},
			},
			wantErr: &SchemaError{},
		},
		{
			name: "hour slot without calendar date",
			raw: &RawTable{
				Columns: []string{"Tranche horaire du programme d'échange", "FR vers GB (MWh)", "GB vers FR (MWh)"},
				Rows:    [][]string{{"7", "100", "40"}},
			},
			wantErr: &SchemaError{},
		},
		{
			name: "all timestamps unparsable",
			raw: &RawTable{
				Columns: []string{"datetime", "FR vers GB (MWh)", "GB vers FR (MWh)"},
				Rows:    [][]string{{"oops", "100", "40"}, {"", "80", "20"}},
			},
			wantErr: &TimestampResolutionError{},
		},
		{
			name: "all dates unparsable in split schema",
			raw: &RawTable{
				Columns: []string{"Date", "Tranche horaire du programme d'échange", "FR vers GB (MWh)", "GB vers FR (MWh)"},
				Rows:    [][]string{{"??", "7", "100", "40"}},
			},
			wantErr: &TimestampResolutionError{},
		},
		{
			name: "no partner has both columns",
			raw: &RawTable{
				Columns: []string{"datetime", "FR vers GB (MWh)", "CH vers FR (MWh)"},
				Rows:    [][]string{{"2023-01-01 00:00:00", "100", "40"}},
			},
			wantErr: &NoFlowDataError{},
		},
		{
			name:    "empty header",
			raw:     &RawTable{},
			wantErr: &SchemaError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reconstruct(tt.raw, nil)
			require.Error(t, err)

			switch want := tt.wantErr.(type) {
			case *SchemaError:
				var got *SchemaError
				assert.True(t, errors.As(err, &got), "want SchemaError, got %v", err)
			case *TimestampResolutionError:
				var got *TimestampResolutionError
				assert.True(t, errors.As(err, &got), "want TimestampResolutionError, got %v", err)
			case *NoFlowDataError:
				var got *NoFlowDataError
				assert.True(t, errors.As(err, &got), "want NoFlowDataError, got %v", err)
			default:
				t.Fatalf("unhandled expectation %T", want)
			}
		})
	}
}

func TestReconstruct_NetTotalMatchesSumOfParts(t *testing.T) {
	raw := &RawTable{
		Columns: []string{
			"datetime",
			"FR vers GB (MWh)", "GB vers FR (MWh)",
			"FR vers CH (MWh)", "CH vers FR (MWh)",
			"FR->CWE/Core", "CWE/Core->FR",
		},
		Rows: [][]string{
			{"2022-06-01 10:00:00", "120", "-30", "55", "200", "-400", "100"},
			{"2022-06-01 11:00:00", "0", "0", "10", "10", "90", "95"},
		},
	}

	table, err := Reconstruct(raw, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"net_GBR", "net_CHE", "net_CWE/Core"}, table.NetColumns)

	for _, rec := range table.Records {
		sum := 0.0
		for _, c := range table.NetColumns {
			sum += rec.Net[c]
		}
		assert.Equal(t, sum, rec.NetTotal)
	}
	assert.Equal(t, 90.0-145.0+300.0, table.Records[0].NetTotal)
}
