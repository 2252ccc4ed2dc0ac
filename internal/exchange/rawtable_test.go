package exchange

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"datetime;FR vers GB (MWh);GB vers FR (MWh);Commentaire",
		"2023-01-01 00:00:00;100;-40;",
		"2023-01-01 01:00:00;90", // ragged row
	}, "\n")

	raw, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"datetime", "FR vers GB (MWh)", "GB vers FR (MWh)", "Commentaire"}, raw.Columns)
	require.Len(t, raw.Rows, 2)
	assert.Equal(t, "-40", raw.Cell(raw.Rows[0], 2))
	assert.Equal(t, "", raw.Cell(raw.Rows[1], 2), "short rows read as missing values")
}

func TestReadCSV_StripsByteOrderMark(t *testing.T) {
	input := "\ufeffdatetime;FR vers GB (MWh)\n2023-01-01 00:00:00;100\n"

	raw, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 0, raw.Index("datetime"))
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorContains(t, err, "missing header row")
}

func TestRawTable_Index(t *testing.T) {
	raw := &RawTable{Columns: []string{"a", "b"}}
	assert.Equal(t, 1, raw.Index("b"))
	assert.Equal(t, -1, raw.Index("missing"))
}

func TestReadXLSXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exchanges.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{
		"datetime", "FR vers GB (MWh)", "GB vers FR (MWh)",
	}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{
		"2023-01-01 00:00:00", 100, -40,
	}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	raw, err := ReadXLSXFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"datetime", "FR vers GB (MWh)", "GB vers FR (MWh)"}, raw.Columns)
	require.Len(t, raw.Rows, 1)

	table, err := Reconstruct(raw, nil)
	require.NoError(t, err)
	assert.Equal(t, 60.0, table.Records[0].NetTotal)
}

func TestReadXLSXFile_MissingFile(t *testing.T) {
	_, err := ReadXLSXFile(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}
