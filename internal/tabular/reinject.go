package tabular

import (
	"errors"
	"fmt"
)

var (
	ErrOutcomeCount = errors.New("outcome count does not match extracted tokens")
	ErrHeaderDrift  = errors.New("header detection differs from extraction")
)

// Outcome is the conversion result for one extracted token.
type Outcome struct {
	Input   string `json:"input"`
	Output  string `json:"output,omitempty"`
	Success bool   `json:"success"`
}

// FailedCell marks an input that could not be converted: "12345" -> "?12345?".
func FailedCell(input string) string { return "?" + input + "?" }

// IsFailedCell reports whether a cell carries the failure marker.
func IsFailedCell(v string) bool { return len(v) > 0 && v[0] == '?' }

// Cell is the value written back into the table.
func (o Outcome) Cell() string {
	if o.Success {
		return o.Output
	}
	return FailedCell(o.Input)
}

// Reinject returns a copy of t where every extracted row's target cell holds the
// matching outcome. Header row and all other columns stay as they are.
func Reinject(t Table, ex Extraction, outcomes []Outcome) (Table, error) {
	if len(outcomes) != len(ex.Tokens) || len(ex.Rows) != len(ex.Tokens) {
		return nil, fmt.Errorf("%w: %d outcomes, %d tokens", ErrOutcomeCount, len(outcomes), len(ex.Tokens))
	}
	if HasHeader(t, ex.Column) != ex.HasHeader {
		return nil, fmt.Errorf("%w: column %d", ErrHeaderDrift, ex.Column)
	}
	out := t.Clone()
	for i, row := range ex.Rows {
		if row < 0 || row >= len(out) || ex.Column >= len(out[row]) {
			return nil, fmt.Errorf("%w: row %d", ErrOutcomeCount, row)
		}
		out[row][ex.Column] = outcomes[i].Cell()
	}
	return out, nil
}
