package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"xref-service/internal/xref/model"
)

// Update sets column c of the record identified by syskompNeu. With appendValue the
// value is added to the cell's pipe list instead of replacing it.
func (s *Store) Update(ctx context.Context, syskompNeu string, c model.Column, value string, appendValue bool) (model.Record, error) {
	syskompNeu = strings.TrimSpace(syskompNeu)
	value = strings.TrimSpace(value)
	if err := s.acquire(ctx); err != nil {
		return model.Record{}, err
	}
	defer s.release()

	recs := s.All()
	i := s.position(recs, syskompNeu)
	if i < 0 {
		return model.Record{}, fmt.Errorf("%w: %s", ErrNotFound, syskompNeu)
	}
	before := recs[i]
	after := before

	if appendValue && c.MultiValued() {
		vals := before.Values(c)
		if slices.Contains(vals, value) {
			return before, fmt.Errorf("%w: %s in %s", ErrAlreadyMapped, value, c)
		}
		after.Set(c, model.JoinValues(append(vals, value)))
	} else {
		after.Set(c, value)
	}
	recs[i] = after

	if err := s.commit(recs); err != nil {
		return model.Record{}, err
	}
	s.undo.push(action{kind: actionUpdate, key: syskompNeu, col: c, before: before, after: after})
	s.log.Info().Str("syskomp_neu", syskompNeu).Str("col", string(c)).Str("old", before.Get(c)).Str("new", after.Get(c)).Msg("entry updated")
	return after, nil
}

// Create appends a new record. Its primary number must be unique.
func (s *Store) Create(ctx context.Context, r model.Record) error {
	key := strings.TrimSpace(r.Get(model.ColSyskompNeu))
	if key == "" {
		return ErrEmptyKey
	}
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	recs := s.All()
	if s.position(recs, key) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicate, key)
	}
	recs = append(recs, r)
	if err := s.commit(recs); err != nil {
		return err
	}
	s.undo.push(action{kind: actionCreate, key: key, after: r})
	s.log.Info().Str("syskomp_neu", key).Msg("entry created")
	return nil
}

// Delete removes the record with the given primary number.
func (s *Store) Delete(ctx context.Context, syskompNeu string) (model.Record, error) {
	syskompNeu = strings.TrimSpace(syskompNeu)
	if err := s.acquire(ctx); err != nil {
		return model.Record{}, err
	}
	defer s.release()

	recs := s.All()
	i := s.position(recs, syskompNeu)
	if i < 0 {
		return model.Record{}, fmt.Errorf("%w: %s", ErrNotFound, syskompNeu)
	}
	before := recs[i]
	recs = slices.Delete(recs, i, i+1)
	if err := s.commit(recs); err != nil {
		return model.Record{}, err
	}
	s.undo.push(action{kind: actionDelete, key: syskompNeu, pos: i, before: before})
	s.log.Info().Str("syskomp_neu", syskompNeu).Msg("entry deleted")
	return before, nil
}

// Undo reverts the latest action if it is younger than the undo window.
// It returns a human readable description of what was restored.
func (s *Store) Undo(ctx context.Context) (string, error) {
	if err := s.acquire(ctx); err != nil {
		return "", err
	}
	defer s.release()

	a, ok := s.undo.last()
	if !ok {
		return "", ErrNothingToUndo
	}

	recs := s.All()
	var msg string
	switch a.kind {
	case actionUpdate:
		i := s.position(recs, a.key)
		if i < 0 {
			return "", fmt.Errorf("%w: %s", ErrNotFound, a.key)
		}
		recs[i] = a.before
		msg = fmt.Sprintf("Änderung rückgängig gemacht (zurück zu: '%s')", a.before.Get(a.col))
	case actionCreate:
		i := s.position(recs, a.key)
		if i < 0 {
			return "", fmt.Errorf("%w: %s", ErrNotFound, a.key)
		}
		recs = slices.Delete(recs, i, i+1)
		msg = fmt.Sprintf("Eintrag %s entfernt", a.key)
	case actionDelete:
		pos := min(a.pos, len(recs))
		recs = slices.Insert(recs, pos, a.before)
		msg = fmt.Sprintf("Eintrag %s wiederhergestellt", a.key)
	case actionDedupe:
		recs = a.snapshot
		msg = "Bereinigung rückgängig gemacht"
	}

	if err := s.commit(recs); err != nil {
		return "", err
	}
	s.undo.pop()
	s.log.Info().Str("action", a.kind.String()).Str("key", a.key).Msg("undo")
	return msg, nil
}

// Dedupe merges records sharing a primary number. When terms are given only
// groups holding one of them in a searchable column are touched. Catalog values are unioned,
// the longest description wins. It returns the number of removed rows.
func (s *Store) Dedupe(ctx context.Context, terms ...string) (int, error) {
	var want []string
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			want = append(want, t)
		}
	}
	if err := s.acquire(ctx); err != nil {
		return 0, err
	}
	defer s.release()

	prev := s.All()
	groups := make(map[string][]int)
	for i, r := range prev {
		if k := r.Get(model.ColSyskompNeu); k != "" {
			groups[k] = append(groups[k], i)
		}
	}

	drop := make(map[int]bool)
	merged := make(map[int]model.Record)
	for _, pos := range groups {
		if len(pos) < 2 {
			continue
		}
		if len(want) > 0 && !groupMatches(prev, pos, want) {
			continue
		}
		m := prev[pos[0]]
		for _, p := range pos[1:] {
			m = mergeRecords(m, prev[p])
			drop[p] = true
		}
		merged[pos[0]] = m
	}
	if len(drop) == 0 {
		return 0, nil
	}

	recs := make([]model.Record, 0, len(prev)-len(drop))
	for i, r := range prev {
		if drop[i] {
			continue
		}
		if m, ok := merged[i]; ok {
			r = m
		}
		recs = append(recs, r)
	}
	if err := s.commit(recs); err != nil {
		return 0, err
	}
	s.undo.push(action{kind: actionDedupe, key: strings.Join(want, "|"), snapshot: prev})
	s.log.Info().Strs("terms", want).Int("removed", len(drop)).Msg("duplicates merged")
	return len(drop), nil
}

func groupMatches(recs []model.Record, pos []int, terms []string) bool {
	for _, p := range pos {
		for _, c := range model.Searchable {
			for _, v := range recs[p].Values(c) {
				if slices.Contains(terms, v) {
					return true
				}
			}
		}
	}
	return false
}

func mergeRecords(a, b model.Record) model.Record {
	out := a
	for _, c := range model.Columns {
		switch {
		case c == model.ColDescription:
			if len(b.Get(c)) > len(a.Get(c)) {
				out.Set(c, b.Get(c))
			}
		case c.MultiValued():
			vals := a.Values(c)
			for _, v := range b.Values(c) {
				if !slices.Contains(vals, v) {
					vals = append(vals, v)
				}
			}
			out.Set(c, model.JoinValues(vals))
		default:
			if out.Get(c) == "" {
				out.Set(c, b.Get(c))
			}
		}
	}
	return out
}
