package service

import (
	"regexp"
	"strings"
	"unicode"
)

// Number types recognised by DetectType.
const (
	TypeEmpty   = "empty"
	TypeBosch   = "bosch"
	TypeSyskomp = "syskomp"
	TypeItem    = "item"
	TypeInvalid = "invalid"
)

var (
	rxBosch   = regexp.MustCompile(`^\d{10}$`)
	rxSyskomp = regexp.MustCompile(`^\d{9}$`)
	rxItem    = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`)
	rxDigits  = regexp.MustCompile(`^\d+$`)
)

// DetectType classifies a part number by its shape.
func DetectType(number string) string {
	n := strings.TrimSpace(number)
	switch {
	case n == "":
		return TypeEmpty
	case rxBosch.MatchString(n):
		return TypeBosch
	case rxSyskomp.MatchString(n):
		return TypeSyskomp
	case rxItem.MatchString(n):
		return TypeItem
	default:
		return TypeInvalid
	}
}

// compact drops every whitespace rune.
func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ItemVariants returns number followed by the Item spellings it could stand for
// when typed without dots ("0062177" -> "0.0.621.77").
func ItemVariants(number string) []string {
	number = strings.TrimSpace(number)
	out := []string{number}
	add := func(v string) {
		for _, o := range out {
			if o == v {
				return
			}
		}
		out = append(out, v)
	}

	d := strings.ReplaceAll(compact(number), ".", "")
	if !rxDigits.MatchString(d) {
		return out
	}
	switch n := len(d); {
	case n == 5:
		add("0.0." + d[:3] + "." + d[3:])
	case n == 6:
		add(d[:1] + "." + d[1:2] + "." + d[2:4] + "." + d[4:])
		add("0.0." + d[:4] + "." + d[4:])
	case n >= 7:
		add(d[:1] + "." + d[1:2] + "." + d[2:5] + "." + d[5:])
		if n >= 8 {
			add(d[:1] + "." + d[1:2] + "." + d[2:6] + "." + d[6:])
		}
	}
	return out
}

// searchTerms expands a query into the values looked up in the index.
func searchTerms(number string) []string {
	switch DetectType(number) {
	case TypeItem, TypeInvalid:
		return ItemVariants(number)
	default:
		return []string{number}
	}
}
