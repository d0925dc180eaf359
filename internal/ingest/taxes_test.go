package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeTaxXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Tarife")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "estv_income_rates.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestParseTaxXLSX(t *testing.T) {
	path := writeTaxXLSX(t, [][]string{
		{"Steuerfüsse"},
		{"2025"},
		{"", "", "", "", "Einkommenssteuer"},
		{"Kanton-ID", "Kanton", "BFS-Nr", "Gemeinde", "Kanton %", "Gemeinde %"},
		{"1", "ZH", "261", "Zürich", "98", "119"},
		{"1", "ZH", "230", "Winterthur", "98", "122"},
		{"2", "BE", "351", "Bern", "", "154"},
		{"", "", "", "Subtotal", "", ""},
	})

	taxes, err := ParseTaxXLSX(path)
	require.NoError(t, err)
	require.Len(t, taxes, 3)

	zrh := taxes["261"]
	assert.Equal(t, "Zürich", zrh.Name)
	assert.Equal(t, "ZH", zrh.Canton)
	require.NotNil(t, zrh.Multiplier)
	assert.Equal(t, 217.0, *zrh.Multiplier)
	require.NotNil(t, zrh.CantonRate)
	assert.Equal(t, 98.0, *zrh.CantonRate)

	// Missing canton rate falls back to the commune rate alone.
	bern := taxes["351"]
	require.NotNil(t, bern.Multiplier)
	assert.Equal(t, 154.0, *bern.Multiplier)
	assert.Nil(t, bern.CantonRate)
}

func TestParseTaxXLSX_Rounding(t *testing.T) {
	path := writeTaxXLSX(t, [][]string{
		{"t"}, {"y"}, {"h"}, {"h"},
		{"1", "VD", "5586", "Lausanne", "154.995", "78.504"},
	})

	taxes, err := ParseTaxXLSX(path)
	require.NoError(t, err)

	rec := taxes["5586"]
	require.NotNil(t, rec.Multiplier)
	assert.Equal(t, 233.5, *rec.Multiplier)
	assert.Equal(t, 155.0, *rec.CantonRate)
	assert.Equal(t, 78.5, *rec.CommuneRate)
}

func TestParseTaxXLSX_MissingFile(t *testing.T) {
	_, err := ParseTaxXLSX(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}
