package service

import (
	"sort"

	"xref-service/internal/xref/model"
)

// similarIndex groups portfolio records by normalised description so each
// distinct description is scored once per query.
type similarIndex struct {
	version uint64
	recs    []model.Record
	names   []string
	byName  map[string][]int
}

func buildSimilarIndex(recs []model.Record, version uint64) *similarIndex {
	idx := &similarIndex{
		version: version,
		recs:    recs,
		byName:  make(map[string][]int),
	}
	for i, r := range recs {
		if r.Get(model.ColSyskompNeu) == "" {
			continue
		}
		nn := normalize(r.Get(model.ColDescription))
		if nn == "" {
			continue
		}
		if _, ok := idx.byName[nn]; !ok {
			idx.names = append(idx.names, nn)
		}
		idx.byName[nn] = append(idx.byName[nn], i)
	}
	sort.Strings(idx.names)
	return idx
}
