package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jszwec/csvutil"

	"xref-service/internal/xref/model"
)

const (
	CatalogASK     = "ASK"
	CatalogAlvaris = "ALVARIS"

	askCatalogDir     = "ASK_CATALOG"
	alvarisCatalogDir = "ALVARIS_CATALOG"
	mappingFile       = "ask-syskomp.csv"
)

var (
	ErrCatalogNotFound = errors.New("catalog not found")
	ErrOutsideCatalog  = errors.New("path outside catalog directory")
)

// ScanCatalogs lists the supplier catalog CSVs below the catalog directory.
func (s *Service) ScanCatalogs() ([]model.Catalog, error) {
	out := []model.Catalog{}
	for _, d := range []struct{ dir, typ string }{
		{askCatalogDir, CatalogASK},
		{alvarisCatalogDir, CatalogAlvaris},
	} {
		dir := filepath.Join(s.catalogDir, d.dir)
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", dir, err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			n := e.Name()
			if e.IsDir() || !strings.HasSuffix(n, ".csv") || strings.EqualFold(n, mappingFile) {
				continue
			}
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			out = append(out, model.Catalog{Path: filepath.Join(dir, n), Name: n, Type: d.typ})
		}
	}
	return out, nil
}

// resolveCatalog confines p to the catalog directory.
func (s *Service) resolveCatalog(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", ErrCatalogNotFound
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.catalogDir, p)
	}
	root, err := filepath.Abs(s.catalogDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideCatalog, p)
	}
	return abs, nil
}

// LoadCatalog reads a supplier catalog and flags products already present in the portfolio.
func (s *Service) LoadCatalog(p string) (model.CatalogLoad, error) {
	path, err := s.resolveCatalog(p)
	if err != nil {
		return model.CatalogLoad{}, err
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return model.CatalogLoad{}, fmt.Errorf("%w: %s", ErrCatalogNotFound, p)
	}
	if err != nil {
		return model.CatalogLoad{}, fmt.Errorf("read catalog: %w", err)
	}

	products, err := decodeCatalog(bytes.NewReader(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))))
	if err != nil {
		return model.CatalogLoad{}, fmt.Errorf("decode catalog %s: %w", filepath.Base(path), err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parent := filepath.Dir(path)
	cols := []model.Column{model.ColASK}
	if strings.Contains(strings.ToUpper(parent), CatalogAlvaris) || strings.Contains(strings.ToLower(name), "alvaris") {
		cols = []model.Column{model.ColAlvarisArtnr, model.ColAlvarisMatnr}
	}
	for i := range products {
		products[i].AlreadyMapped = s.store.Contains(strings.TrimSpace(products[i].Artikelnummer), cols...)
	}

	s.log.Info().Str("catalog", name).Int("products", len(products)).Msg("catalog loaded")
	return model.CatalogLoad{
		Products:    products,
		CatalogName: name,
		ImageDir:    filepath.Join(parent, name+"-images"),
		Total:       len(products),
	}, nil
}

func decodeCatalog(r io.Reader) ([]model.CatalogProduct, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	dec, err := csvutil.NewDecoder(cr)
	if errors.Is(err, io.EOF) {
		return []model.CatalogProduct{}, nil
	}
	if err != nil {
		return nil, err
	}
	products := []model.CatalogProduct{}
	if err := dec.Decode(&products); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return products, nil
}
