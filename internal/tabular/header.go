package tabular

import (
	"regexp"
	"strings"
)

// "123", "0.0.479.76"
var rxNumericToken = regexp.MustCompile(`^\d+(\.\d+)*$`)

// IsNumericToken reports whether s (trimmed) is digits, optionally dot-separated groups.
func IsNumericToken(s string) bool {
	return rxNumericToken.MatchString(strings.TrimSpace(s))
}

// HasHeader treats the first row as a header when its cell in col is non-empty
// and not numeric. A missing or empty cell means no header.
func HasHeader(t Table, col int) bool {
	v, ok := t.cell(0, col)
	if !ok {
		return false
	}
	v = strings.TrimSpace(v)
	return v != "" && !IsNumericToken(v)
}
