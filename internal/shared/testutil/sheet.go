package testutil

import (
	"pcpsucata/internal/scrap"
)

// SheetHeader is the header row of the cutting sheet.
var SheetHeader = []string{"Data", "Código Chapa", "Sucata", "Peso", "Aprov."}

// CuttingSheet lays records out the way the production sheet does: four
// title rows, the header on row index 4 and data from row index 5.
func CuttingSheet(header []string, records ...[]string) scrap.Grid {
	grid := scrap.Grid{
		{"CENTRAL CORTE CHAPAS"},
		{},
		{"Relatório de corte", "", "", "Atualizado"},
		{},
		header,
	}
	return append(grid, records...)
}

// SampleRecords returns a mix of June and July 2024 rows. Expected July
// figures: day 1 scrap 20 of 400 kg (5%), day 2 scrap 50 of 1650 kg, period
// 70 of 2050 kg. Day 3 has a blank Sucata cell and one row has an unparseable
// date.
func SampleRecords() [][]string {
	return [][]string{
		{"01/07/2024", "CH-10", "12,5", "250,0", "0,95"},
		{"01/07/2024", "CH-20", "7,5", "150,0", "0,97"},
		{"02/07/2024", "CH-10", "20,0", "400,0", "0,94"},
		{"02/07/2024", "CH-20", "30,0", "1.250,0", "0,97"},
		{"03/07/2024", "CH-30", "", "100,0", "0,99"},
		{"15/06/2024", "CH-10", "5,0", "100,0", "0,96"},
		{"sem data", "CH-20", "1,0", "10,0", ""},
	}
}

// SampleSheet is CuttingSheet with the standard header and SampleRecords.
func SampleSheet() scrap.Grid {
	return CuttingSheet(SheetHeader, SampleRecords()...)
}
