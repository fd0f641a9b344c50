package tabular

import "strings"

// Extraction is the ordered list of input tokens of one column together with the
// table rows they were read from.
type Extraction struct {
	Column    int      `json:"column"`
	HasHeader bool     `json:"hasHeader"`
	Tokens    []string `json:"tokens"`
	Rows      []int    `json:"rows"`
}

// Extract collects the trimmed values of column col from every data row.
// Empty cells and the literals "undefined"/"null" are skipped, as are blank rows.
func Extract(t Table, col int) Extraction {
	ex := Extraction{Column: col, HasHeader: HasHeader(t, col)}
	start := 0
	if ex.HasHeader {
		start = 1
	}
	for i := start; i < len(t); i++ {
		if blankRow(t[i]) {
			continue
		}
		v, ok := t.cell(i, col)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" || v == "undefined" || v == "null" {
			continue
		}
		ex.Tokens = append(ex.Tokens, v)
		ex.Rows = append(ex.Rows, i)
	}
	return ex
}

// Len is the number of extracted tokens.
func (ex Extraction) Len() int { return len(ex.Tokens) }
