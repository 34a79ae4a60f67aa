// Package export turns extraction results into XLSX workbooks.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Aryan-Joshi-10/Fuel-Bill-Extraction-UsingLLM/internal/bill"
)

const sheetName = "Bills"

// Header is the fixed column layout of the exported spreadsheet
var Header = []string{
	"Fuel_bill_No.",
	"Petrol Pump Name",
	"Date",
	"Product",
	"Volume(L)",
	"Rate per Litre",
	"Total Amount (Rs)",
}

// WriteResults builds a workbook with one row per successful result. Failed
// results carry no data and are skipped; callers report them separately.
func WriteResults(results []bill.Result) (*excelize.File, error) {
	f := excelize.NewFile()

	if index, _ := f.GetSheetIndex(sheetName); index == -1 {
		if _, err := f.NewSheet(sheetName); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(activeIndex)

	for i, h := range Header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}

	row := 2
	for _, r := range results {
		if r.Data == nil {
			continue
		}
		values := []string{
			r.File,
			r.Data.PumpName,
			r.Data.Date,
			r.Data.Product,
			r.Data.VolumeLitres,
			r.Data.RatePerLitre,
			r.Data.TotalAmount,
		}
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("writing row %d: %w", row, err)
			}
		}
		row++
	}

	return f, nil
}
