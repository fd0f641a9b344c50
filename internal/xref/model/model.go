package model

import (
	"fmt"
	"strings"
)

// Column is a portfolio column letter A..H.
type Column string

const (
	ColSyskompNeu   Column = "A"
	ColSyskompAlt   Column = "B"
	ColDescription  Column = "C"
	ColItem         Column = "D"
	ColBosch        Column = "E"
	ColAlvarisArtnr Column = "F"
	ColAlvarisMatnr Column = "G"
	ColASK          Column = "H"
)

// NumColumns is the width of a portfolio row.
const NumColumns = 8

// Columns in file order.
var Columns = []Column{
	ColSyskompNeu, ColSyskompAlt, ColDescription, ColItem,
	ColBosch, ColAlvarisArtnr, ColAlvarisMatnr, ColASK,
}

// Searchable is every column except the description, in lookup order.
var Searchable = []Column{
	ColSyskompNeu, ColSyskompAlt, ColItem, ColBosch,
	ColAlvarisArtnr, ColAlvarisMatnr, ColASK,
}

var columnNames = map[Column]string{
	ColSyskompNeu:   "Syskomp neu",
	ColSyskompAlt:   "Syskomp alt",
	ColDescription:  "Beschreibung",
	ColItem:         "Item",
	ColBosch:        "Bosch",
	ColAlvarisArtnr: "Alvaris Artnr",
	ColAlvarisMatnr: "Alvaris Matnr",
	ColASK:          "ASK",
}

// ParseColumn accepts "a".."h".
func ParseColumn(s string) (Column, error) {
	c := Column(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := columnNames[c]; !ok {
		return "", fmt.Errorf("invalid column %q", s)
	}
	return c, nil
}

func (c Column) Name() string {
	if n, ok := columnNames[c]; ok {
		return n
	}
	return string(c)
}

// Index is the zero-based cell position.
func (c Column) Index() int { return int(c[0] - 'A') }

// Syskomp reports whether c is one of the internal numbering columns A/B.
func (c Column) Syskomp() bool { return c == ColSyskompNeu || c == ColSyskompAlt }

// MultiValued columns may hold several catalog numbers joined by '|'.
func (c Column) MultiValued() bool {
	switch c {
	case ColItem, ColBosch, ColAlvarisArtnr, ColAlvarisMatnr, ColASK:
		return true
	}
	return false
}

// ValueSep joins multiple catalog numbers inside one cell.
const ValueSep = "|"

// SplitValues splits a pipe-delimited cell into trimmed non-empty values.
func SplitValues(cell string) []string {
	var out []string
	for _, v := range strings.Split(cell, ValueSep) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// JoinValues is the inverse of SplitValues.
func JoinValues(vals []string) string { return strings.Join(vals, ValueSep) }

// Record is one row of the portfolio file.
type Record struct {
	Cells [NumColumns]string
}

func (r Record) Get(c Column) string { return r.Cells[c.Index()] }

func (r *Record) Set(c Column, v string) { r.Cells[c.Index()] = v }

// Values returns the individual numbers stored in column c.
func (r Record) Values(c Column) []string {
	if c.MultiValued() {
		return SplitValues(r.Get(c))
	}
	if v := strings.TrimSpace(r.Get(c)); v != "" {
		return []string{v}
	}
	return nil
}

// Key identifies a record for de-duplication of search hits.
func (r Record) Key() string { return r.Get(ColSyskompNeu) + "\x00" + r.Get(ColSyskompAlt) }

// Mode restricts which conversions are allowed.
type Mode string

const (
	ModeIntern Mode = "intern"
	ModeExtern Mode = "extern"
)

func ParseMode(s string, def Mode) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeIntern:
		return ModeIntern
	case ModeExtern:
		return ModeExtern
	default:
		return def
	}
}

// Status of one batch conversion item.
type Status string

const (
	StatusSuccess     Status = "success"
	StatusNotFound    Status = "not_found"
	StatusAmbiguous   Status = "ambiguous"
	StatusWrongTarget Status = "wrong_target"
	StatusEmpty       Status = "empty"
)

// ImageRef points the client at a product picture.
type ImageRef struct {
	Type      string `json:"type"` // alvaris | ask
	Artnr     string `json:"artnr"`
	CropTop70 bool   `json:"crop_top_70"`
}

// Entry is the JSON view of a record.
type Entry struct {
	SyskompNeu   string `json:"syskomp_neu"`
	SyskompAlt   string `json:"syskomp_alt"`
	Description  string `json:"description"`
	Item         string `json:"item"`
	Bosch        string `json:"bosch"`
	AlvarisArtnr string `json:"alvaris_artnr"`
	AlvarisMatnr string `json:"alvaris_matnr"`
	ASK          string `json:"ask"`
}

func EntryOf(r Record) Entry {
	return Entry{
		SyskompNeu:   r.Get(ColSyskompNeu),
		SyskompAlt:   r.Get(ColSyskompAlt),
		Description:  r.Get(ColDescription),
		Item:         r.Get(ColItem),
		Bosch:        r.Get(ColBosch),
		AlvarisArtnr: r.Get(ColAlvarisArtnr),
		AlvarisMatnr: r.Get(ColAlvarisMatnr),
		ASK:          r.Get(ColASK),
	}
}

// Record converts the JSON view back into a row.
func (e Entry) Record() Record {
	var r Record
	r.Set(ColSyskompNeu, strings.TrimSpace(e.SyskompNeu))
	r.Set(ColSyskompAlt, strings.TrimSpace(e.SyskompAlt))
	r.Set(ColDescription, strings.TrimSpace(e.Description))
	r.Set(ColItem, strings.TrimSpace(e.Item))
	r.Set(ColBosch, strings.TrimSpace(e.Bosch))
	r.Set(ColAlvarisArtnr, strings.TrimSpace(e.AlvarisArtnr))
	r.Set(ColAlvarisMatnr, strings.TrimSpace(e.AlvarisMatnr))
	r.Set(ColASK, strings.TrimSpace(e.ASK))
	return r
}

type SearchMatch struct {
	FoundInCol     Column `json:"found_in_col"`
	FoundInColName string `json:"found_in_col_name"`
	Entry
	Image *ImageRef `json:"image"`
}

type SearchResult struct {
	Found      bool          `json:"found"`
	SearchTerm string        `json:"search_term"`
	Count      int           `json:"count,omitempty"`
	Matches    []SearchMatch `json:"matches,omitempty"`
}

type ConvertResult struct {
	Found       bool      `json:"found"`
	FromCol     Column    `json:"from_col"`
	FromColName string    `json:"from_col_name,omitempty"`
	ToCol       Column    `json:"to_col"`
	ToColName   string    `json:"to_col_name,omitempty"`
	SearchValue string    `json:"search_value"`
	ResultValue string    `json:"result_value,omitempty"`
	Description string    `json:"description,omitempty"`
	Row         *Entry    `json:"row_data,omitempty"`
	Image       *ImageRef `json:"image,omitempty"`
}

type BatchItem struct {
	Index      int      `json:"index"`
	Input      string   `json:"input"`
	Output     string   `json:"output,omitempty"`
	Status     Status   `json:"status"`
	FromCol    Column   `json:"from_col,omitempty"`
	Message    string   `json:"message,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
}

type BatchResult struct {
	Total   int         `json:"total"`
	Success int         `json:"success"`
	Failed  int         `json:"failed"`
	Results []BatchItem `json:"results"`
}

type SimilarMatch struct {
	Entry
	Similarity float64 `json:"similarity"`
	Pos        int     `json:"-"`
}

type SimilarResult struct {
	Matches    []SimilarMatch `json:"matches"`
	TotalFound int            `json:"total_found"`
}

// Catalog is a supplier catalog CSV found on disk.
type Catalog struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Type string `json:"type"` // ASK | ALVARIS
}

// CatalogProduct is one line of a supplier catalog.
type CatalogProduct struct {
	Artikelnummer string `csv:"Artikelnummer" json:"Artikelnummer"`
	Beschreibung  string `csv:"Beschreibung" json:"Beschreibung"`
	Bild          string `csv:"Bild,omitempty" json:"Bild,omitempty"`
	URL           string `csv:"URL,omitempty" json:"URL,omitempty"`
	AlreadyMapped bool   `csv:"-" json:"already_mapped"`
}

type CatalogLoad struct {
	Products    []CatalogProduct `json:"products"`
	CatalogName string           `json:"catalog_name"`
	ImageDir    string           `json:"image_dir"`
	Total       int              `json:"total"`
}

type Stats struct {
	Syskomp int `json:"syskomp"`
	Item    int `json:"item"`
	Bosch   int `json:"bosch"`
	Alvaris int `json:"alvaris"`
	ASK     int `json:"ask"`
}
