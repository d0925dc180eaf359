package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// TaxRecord is one municipality's income tax multipliers from the ESTV
// workbook export.
type TaxRecord struct {
	Name        string   `json:"name"`
	Canton      string   `json:"canton"`
	Multiplier  *float64 `json:"multiplier"`
	CantonRate  *float64 `json:"canton_rate"`
	CommuneRate *float64 `json:"commune_rate"`
}

// ESTV workbook layout: rows 1-4 are title, year and headers; data starts
// at row 5. Columns are canton id, canton abbreviation, BFS commune id,
// commune name, canton income multiplier, commune income multiplier.
const (
	taxSkipRows       = 4
	taxColCanton      = 1
	taxColBFS         = 2
	taxColName        = 3
	taxColCantonRate  = 4
	taxColCommuneRate = 5
)

// ParseTaxXLSX parses an ESTV tax multiplier export, keyed by BFS number.
func ParseTaxXLSX(path string) (map[string]TaxRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open tax xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("ingest: tax xlsx has no sheets")
	}

	taxes := make(map[string]TaxRecord)
	for i, row := range f.Sheets[0].Rows {
		if i < taxSkipRows || len(row.Cells) <= taxColCommuneRate {
			continue
		}

		bfs, err := strconv.Atoi(strings.TrimSpace(row.Cells[taxColBFS].String()))
		if err != nil {
			continue
		}

		cantonRate := cellFloat(row.Cells[taxColCantonRate].String())
		communeRate := cellFloat(row.Cells[taxColCommuneRate].String())

		var total *float64
		switch {
		case cantonRate != nil && communeRate != nil:
			t := round2(*cantonRate + *communeRate)
			total = &t
		case communeRate != nil:
			t := round2(*communeRate)
			total = &t
		}

		taxes[strconv.Itoa(bfs)] = TaxRecord{
			Name:        strings.TrimSpace(row.Cells[taxColName].String()),
			Canton:      strings.TrimSpace(row.Cells[taxColCanton].String()),
			Multiplier:  total,
			CantonRate:  roundPtr(cantonRate),
			CommuneRate: roundPtr(communeRate),
		}
	}

	return taxes, nil
}

func cellFloat(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round2(*v)
	return &r
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
