package fileio

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"xref-service/internal/tabular"
)

// Delimiter of every CSV this service reads and writes.
const Delimiter = ';'

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readCSV reads a ';'-separated sheet, auto-detecting the encoding and converting to UTF-8.
// Blank lines are dropped.
func readCSV(r io.Reader) (tabular.Table, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimPrefix(b, utf8BOM)

	var src io.Reader = bytes.NewReader(b)
	if dec := detectDecoder(b); dec != nil {
		src = transform.NewReader(src, dec.NewDecoder())
	}

	cr := csv.NewReader(src)
	cr.Comma = Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows tabular.Table
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// detectDecoder returns nil for UTF-8 input. Excel on German Windows saves cp1252.
func detectDecoder(b []byte) encoding.Encoding {
	if utf8.Valid(b) {
		return nil
	}
	peek := b
	if len(peek) > 4096 {
		peek = peek[:4096]
	}
	cs := "windows-1252"
	if det, err := chardet.NewTextDetector().DetectBest(peek); err == nil && det != nil {
		cs = strings.ToLower(det.Charset)
	}
	switch cs {
	case "windows-1251", "cp1251":
		return charmap.Windows1251
	case "iso-8859-15":
		return charmap.ISO8859_15
	default:
		// iso-8859-1 and anything unknown: cp1252 is a superset for printable text
		return charmap.Windows1252
	}
}
