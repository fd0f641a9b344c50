package service

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var umlauts = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
	"Ä", "Ae", "Ö", "Oe", "Ü", "Ue",
)

// 40x40, 40×40 → 40 40
var reDimension = regexp.MustCompile(`(\d)\s*[xX×*]\s*(\d)`)

// 0,5 → 0.5
var decComma = regexp.MustCompile(`(\d),(\d)`)

const unitWord = `mm|cm|m|kg|g|nm|stk|st|%`

// "8 mm" → "8mm"
var reAttachNumUnit = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)(\s*)(` + unitWord + `)\b`)

var punct = regexp.MustCompile(`[^\p{L}\p{N}\s.%]+`)

// normalize prepares a product description for fuzzy comparison.
func normalize(s string) string {
	if s == "" {
		return ""
	}
	out := cases.Lower(language.German).String(s)
	out = umlauts.Replace(out)

	// repeat: "40x40x2" needs two passes
	for prev := ""; prev != out; {
		prev = out
		out = reDimension.ReplaceAllString(out, "$1 $2")
	}
	out = decComma.ReplaceAllString(out, "$1.$2")
	out = collapseSpaces(punct.ReplaceAllString(out, " "))
	out = attachNumberUnits(out)
	return strings.Trim(out, " .")
}

func attachNumberUnits(s string) string {
	prev := ""
	out := s
	for out != prev {
		prev = out
		out = collapseSpaces(reAttachNumUnit.ReplaceAllString(out, "$1$3"))
	}
	return out
}

func tokenSort(s string) string {
	f := strings.Fields(s)
	sort.Strings(f)
	return strings.Join(f, " ")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
