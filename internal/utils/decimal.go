package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var rxKeepNums = regexp.MustCompile(`[^\d\.\-]`)

var spaceStripper = strings.NewReplacer("\u00a0", "", "\u202f", "", " ", "", "\t", "")

// ParseDecimal reads user-typed numbers such as "0,6", " 0.75", "60 %" or
// "1 234,5". A trailing percent sign scales the value by 1/100.
func ParseDecimal(s string) (float64, bool) {
	s = spaceStripper.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	pct := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", ".")
	s = rxKeepNums.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." || strings.Count(s, ".") > 1 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if pct {
		f /= 100
	}
	return f, true
}
