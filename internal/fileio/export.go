package fileio

import (
	"encoding/csv"
	"io"
	"strings"

	"xref-service/internal/tabular"
)

// EscapeCSVValue neutralises spreadsheet formula injection.
func EscapeCSVValue(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

// WriteCSV writes t ';'-separated with every cell escaped.
func WriteCSV(w io.Writer, t tabular.Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter
	for _, row := range t {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = EscapeCSVValue(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable writes t in the format matching the upload; xls comes back as xlsx.
func WriteTable(w io.Writer, t tabular.Table, col int, k Kind) error {
	if k.Spreadsheet() {
		return WriteXLSX(w, t, col)
	}
	return WriteCSV(w, t)
}

// ContentType of the exported file.
func (k Kind) ContentType() string {
	if k.Spreadsheet() {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}
