package service

import (
	"errors"

	"xref-service/internal/xref/model"
)

var (
	ErrNoSyskomp     = errors.New("conversion must involve column A or B")
	ErrExternTarget  = errors.New("extern mode converts only to A or B")
	ErrInternSource  = errors.New("intern mode converts only from A or B")
	ErrBatchTarget   = errors.New("batch conversion targets only A or B")
	ErrEmptyNumber   = errors.New("no number given")
	ErrInvalidColumn = errors.New("invalid column")

	ErrEmptyDescription = errors.New("description is empty")
)

// CheckConversion applies the conversion rules for mode.
func CheckConversion(from, to model.Column, mode model.Mode) error {
	if !from.Syskomp() && !to.Syskomp() {
		return ErrNoSyskomp
	}
	if mode == model.ModeExtern && !to.Syskomp() {
		return ErrExternTarget
	}
	if mode == model.ModeIntern && !from.Syskomp() {
		return ErrInternSource
	}
	return nil
}

var ruleMessages = map[error]string{
	ErrNoSyskomp:     "Konvertierung muss A oder B beinhalten",
	ErrExternTarget:  "Extern-Modus: Nur Konvertierung nach A oder B erlaubt",
	ErrInternSource:  "Intern-Modus: Konvertierung muss von A oder B starten",
	ErrBatchTarget:   "Batch-Konvertierung nur nach A oder B erlaubt",
	ErrEmptyNumber:   "Keine Nummer angegeben",
	ErrInvalidColumn: "Ungültige Spalte",

	ErrEmptyDescription: "Beschreibung erforderlich",
	ErrCatalogNotFound:  "Katalog-Datei nicht gefunden",
	ErrOutsideCatalog:   "Katalog-Pfad nicht erlaubt",
	ErrImageNotFound:    "Bild nicht gefunden",
	ErrImageType:        "Unbekannter Bildtyp",
}

// Message returns the German text shown to users for a service error.
func Message(err error) (string, bool) {
	for e, msg := range ruleMessages {
		if errors.Is(err, e) {
			return msg, true
		}
	}
	return "", false
}
