// Package tabular extracts a column of part numbers from an uploaded table and
// writes conversion results back into the same row/column layout.
package tabular

import (
	"errors"
	"fmt"
	"strings"

	excelize "github.com/xuri/excelize/v2"
)

// MaxColumns is the widest table the batch conversion accepts (A..Z).
const MaxColumns = 26

var ErrColumnOutOfRange = errors.New("column out of range A-Z")

// Table is a sheet as rows of cells in file order. Rows may be ragged.
type Table [][]string

// ColumnIndex maps "A".."Z" (any case) to 0..25.
func ColumnIndex(letter string) (int, error) {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if len(letter) != 1 {
		return -1, fmt.Errorf("%w: %q", ErrColumnOutOfRange, letter)
	}
	n, err := excelize.ColumnNameToNumber(letter)
	if err != nil || n < 1 || n > MaxColumns {
		return -1, fmt.Errorf("%w: %q", ErrColumnOutOfRange, letter)
	}
	return n - 1, nil
}

// ColumnLetter is the inverse of ColumnIndex.
func ColumnLetter(index int) (string, error) {
	if index < 0 || index >= MaxColumns {
		return "", fmt.Errorf("%w: %d", ErrColumnOutOfRange, index)
	}
	return excelize.ColumnNumberToName(index + 1)
}

// Clone returns a deep copy so callers can rewrite cells without touching the source.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for i, row := range t {
		out[i] = append([]string(nil), row...)
	}
	return out
}

func (t Table) cell(row, col int) (string, bool) {
	if row < 0 || row >= len(t) || col < 0 || col >= len(t[row]) {
		return "", false
	}
	return t[row][col], true
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
