// Package fileio reads uploaded CSV/XLSX/XLS sheets into plain tables and writes
// converted tables back out.
package fileio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"xref-service/internal/tabular"
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrContentMismatch = errors.New("file content does not match extension")
)

type Kind int

const (
	KindCSV Kind = iota
	KindXLSX
	KindXLS
)

func (k Kind) String() string {
	switch k {
	case KindXLSX:
		return "xlsx"
	case KindXLS:
		return "xls"
	default:
		return "csv"
	}
}

// Spreadsheet reports whether the kind is exported as xlsx.
func (k Kind) Spreadsheet() bool { return k != KindCSV }

// KindOf picks the reader by file extension.
func KindOf(filename string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return KindCSV, nil
	case ".xlsx":
		return KindXLSX, nil
	case ".xls":
		return KindXLS, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFile, filename)
	}
}

var (
	zipMagic = []byte{0x50, 0x4B}
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DetectKind checks the first bytes of the upload against its extension.
func DetectKind(head []byte, filename string) (Kind, error) {
	k, err := KindOf(filename)
	if err != nil {
		return 0, err
	}
	switch k {
	case KindXLSX:
		if !bytes.HasPrefix(head, zipMagic) {
			return 0, fmt.Errorf("%w: %s", ErrContentMismatch, filename)
		}
	case KindXLS:
		if !bytes.HasPrefix(head, oleMagic) {
			return 0, fmt.Errorf("%w: %s", ErrContentMismatch, filename)
		}
	case KindCSV:
		// binary spreadsheets renamed to .csv
		if bytes.HasPrefix(head, zipMagic) || bytes.HasPrefix(head, oleMagic) {
			return 0, fmt.Errorf("%w: %s", ErrContentMismatch, filename)
		}
	}
	return k, nil
}

// ReadTable chooses the parser by extension and returns the first sheet as rows of cells.
func ReadTable(r io.Reader, filename string) (tabular.Table, error) {
	k, err := KindOf(filename)
	if err != nil {
		return nil, err
	}
	switch k {
	case KindXLSX:
		return readXLSX(r)
	case KindXLS:
		return readXLS(r)
	default:
		return readCSV(r)
	}
}

var rxBadFilename = regexp.MustCompile(`[<>:"|?*\x00-\x1f]`)

// SanitizeFilename drops path separators and control characters, strips
// leading dots, collapses ".." and caps the length at 255 characters.
func SanitizeFilename(name string) string {
	s := rxBadFilename.ReplaceAllString(name, "")
	s = strings.NewReplacer(`\`, "", "/", "").Replace(s)
	s = strings.TrimLeft(s, ".")
	s = strings.ReplaceAll(s, "..", ".")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > 255 {
		s = string([]rune(s)[:255])
	}
	return s
}

// ExportName builds "<base>-syskomp<target>.<ext>" for a converted upload.
// xls input is written back as xlsx.
func ExportName(original, target string) string {
	base := SanitizeFilename(original)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		base = "export"
	}
	ext := ".csv"
	if k, err := KindOf(original); err == nil && k.Spreadsheet() {
		ext = ".xlsx"
	}
	return base + "-syskomp" + strings.ToUpper(target) + ext
}
