package fileio

import (
	"bytes"
	"io"

	excelize "github.com/xuri/excelize/v2"

	"xref-service/internal/tabular"
)

const (
	exportSheet = "Sheet1"
	failedColor = "FF0000"
)

func readXLSX(r io.Reader) (tabular.Table, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// WriteXLSX writes t as a single-sheet workbook. Failed cells ("?…?") in col get a red font.
func WriteXLSX(w io.Writer, t tabular.Table, col int) error {
	f := excelize.NewFile()
	defer f.Close()

	failed, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: failedColor}})
	if err != nil {
		return err
	}
	for r, row := range t {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			// strings keep leading zeros of Bosch numbers
			if err := f.SetCellStr(exportSheet, cell, v); err != nil {
				return err
			}
			if c == col && tabular.IsFailedCell(v) {
				if err := f.SetCellStyle(exportSheet, cell, cell, failed); err != nil {
					return err
				}
			}
		}
	}
	return f.Write(w)
}
