// Package service answers part-number lookups against the portfolio store:
// search, single and batch conversion, validation, similarity matching and
// supplier catalogs.
package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"xref-service/internal/xref/model"
	"xref-service/internal/xref/store"
)

type Options struct {
	CatalogDir string
	Links      *LinkChecker
	Logger     zerolog.Logger
}

type Service struct {
	store *store.Store
	log   zerolog.Logger

	catalogDir string
	links      *LinkChecker

	simMu  sync.Mutex
	simIdx *similarIndex
}

func New(st *store.Store, opts Options) *Service {
	if opts.Links == nil {
		opts.Links = NewLinkChecker(0)
	}
	return &Service{
		store:      st,
		log:        opts.Logger.With().Str("component", "service").Logger(),
		catalogDir: opts.CatalogDir,
		links:      opts.Links,
	}
}

// Store exposes the underlying portfolio for editing.
func (s *Service) Store() *store.Store { return s.store }

type hit struct {
	col model.Column
	rec model.Record
}

// lookup finds every distinct record holding number in a searchable column.
func (s *Service) lookup(number string) []hit {
	terms := searchTerms(number)
	seen := make(map[string]bool)
	var hits []hit
	for _, c := range model.Searchable {
		for _, t := range terms {
			for _, r := range s.store.Lookup(c, t) {
				if seen[r.Key()] {
					continue
				}
				seen[r.Key()] = true
				hits = append(hits, hit{col: c, rec: r})
			}
		}
	}
	return hits
}

func description(r model.Record) string {
	return strings.ReplaceAll(r.Get(model.ColDescription), ";", "\n")
}

func firstValue(r model.Record, c model.Column) string {
	for _, v := range r.Values(c) {
		if v != "-" && v != "None" {
			return v
		}
	}
	return ""
}

// imageFor prefers the Alvaris picture over the ASK one.
func imageFor(r model.Record) *model.ImageRef {
	if v := firstValue(r, model.ColAlvarisArtnr); v != "" {
		return &model.ImageRef{Type: ImageAlvaris, Artnr: v, CropTop70: true}
	}
	if v := firstValue(r, model.ColASK); v != "" {
		return &model.ImageRef{Type: ImageASK, Artnr: v}
	}
	return nil
}

// Search looks number up in every searchable column.
func (s *Service) Search(number string) (model.SearchResult, error) {
	term := compact(number)
	if term == "" {
		return model.SearchResult{}, ErrEmptyNumber
	}
	res := model.SearchResult{SearchTerm: term}
	for _, h := range s.lookup(term) {
		e := model.EntryOf(h.rec)
		e.Description = description(h.rec)
		res.Matches = append(res.Matches, model.SearchMatch{
			FoundInCol:     h.col,
			FoundInColName: h.col.Name(),
			Entry:          e,
			Image:          imageFor(h.rec),
		})
	}
	res.Count = len(res.Matches)
	res.Found = res.Count > 0
	s.log.Debug().Str("term", term).Int("matches", res.Count).Msg("search")
	return res, nil
}

// Convert maps number from column from to column to.
func (s *Service) Convert(from, to model.Column, number string, mode model.Mode) (model.ConvertResult, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return model.ConvertResult{}, ErrEmptyNumber
	}
	if err := CheckConversion(from, to, mode); err != nil {
		return model.ConvertResult{}, err
	}

	res := model.ConvertResult{FromCol: from, ToCol: to, SearchValue: number}
	terms := []string{number}
	if from == model.ColItem {
		terms = ItemVariants(compact(number))
	}
	var (
		rec   model.Record
		found bool
	)
	for _, t := range terms {
		if recs := s.store.Lookup(from, t); len(recs) > 0 {
			rec, found = recs[0], true
			break
		}
	}
	if !found {
		return res, nil
	}

	res.Found = true
	res.FromColName = from.Name()
	res.ToColName = to.Name()
	res.ResultValue = orDash(rec.Get(to))
	if to == model.ColAlvarisArtnr || to == model.ColAlvarisMatnr {
		res.ResultValue = fmt.Sprintf("%s / %s", orDash(rec.Get(model.ColAlvarisArtnr)), orDash(rec.Get(model.ColAlvarisMatnr)))
	}
	res.Description = description(rec)
	e := model.EntryOf(rec)
	res.Row = &e
	if img := imageFor(rec); img != nil {
		if _, err := s.FindImage(img.Type, img.Artnr); err == nil {
			res.Image = img
		}
	}
	return res, nil
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

// BatchConvert resolves each number to target, which must be A or B.
func (s *Service) BatchConvert(numbers []string, target model.Column, mode model.Mode) (model.BatchResult, error) {
	if !target.Syskomp() {
		return model.BatchResult{}, ErrBatchTarget
	}
	res := model.BatchResult{Total: len(numbers), Results: make([]model.BatchItem, 0, len(numbers))}
	for i, n := range numbers {
		it := s.convertOne(compact(n), target, mode)
		it.Index = i
		if it.Status == model.StatusSuccess {
			res.Success++
		}
		res.Results = append(res.Results, it)
	}
	res.Failed = res.Total - res.Success
	s.log.Info().Int("total", res.Total).Int("success", res.Success).Str("target", string(target)).Msg("batch convert")
	return res, nil
}

func (s *Service) convertOne(number string, target model.Column, mode model.Mode) model.BatchItem {
	it := model.BatchItem{Input: number}
	if number == "" {
		it.Status = model.StatusEmpty
		return it
	}
	hits := s.lookup(number)
	if len(hits) == 0 {
		it.Status = model.StatusNotFound
		it.Message = "Nummer nicht gefunden"
		return it
	}

	var (
		values  []string
		fromCol model.Column
		ruleErr error
	)
	for _, h := range hits {
		if err := CheckConversion(h.col, target, mode); err != nil {
			ruleErr = err
			continue
		}
		v := h.rec.Get(target)
		if v == "" {
			continue
		}
		if fromCol == "" {
			fromCol = h.col
		}
		if !slices.Contains(values, v) {
			values = append(values, v)
		}
	}

	switch {
	case len(values) == 1:
		it.Status = model.StatusSuccess
		it.Output = values[0]
		it.FromCol = fromCol
	case len(values) > 1:
		it.Status = model.StatusAmbiguous
		it.Candidates = values
		it.Message = fmt.Sprintf("%d Treffer gefunden", len(values))
	case ruleErr != nil:
		it.Status = model.StatusWrongTarget
		it.FromCol = hits[0].col
		it.Message, _ = Message(ruleErr)
	default:
		it.Status = model.StatusNotFound
		it.Message = fmt.Sprintf("Keine Nummer in Spalte %s hinterlegt", target)
	}
	return it
}

// Stats counts the distinct indexed numbers per system.
func (s *Service) Stats() model.Stats {
	return model.Stats{
		Syskomp: s.store.Distinct(model.ColSyskompNeu),
		Item:    s.store.Distinct(model.ColItem),
		Bosch:   s.store.Distinct(model.ColBosch),
		Alvaris: s.store.Distinct(model.ColAlvarisArtnr),
		ASK:     s.store.Distinct(model.ColASK),
	}
}

// Dedupe merges duplicate portfolio rows. A term typed without Item dots also
// matches its dotted spellings.
func (s *Service) Dedupe(ctx context.Context, term string) (int, error) {
	term = compact(term)
	if term == "" {
		return s.store.Dedupe(ctx)
	}
	return s.store.Dedupe(ctx, searchTerms(term)...)
}
