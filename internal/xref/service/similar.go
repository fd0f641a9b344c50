package service

import (
	"regexp"
	"sort"
	"strings"

	"xref-service/internal/xref/model"
)

const (
	similarLimit = 20
	profileBonus = 0.3
)

// Filters accepted by FindSimilar.
const (
	FilterAll   = "all"
	FilterItem  = "item"
	FilterBosch = "bosch"
)

var (
	reProfil = regexp.MustCompile(`profil\s*(\d+)`)
	reNut    = regexp.MustCompile(`nut\s*(\d+)`)
)

func (s *Service) descriptions() *similarIndex {
	v := s.store.Version()
	s.simMu.Lock()
	defer s.simMu.Unlock()
	if s.simIdx == nil || s.simIdx.version != v {
		s.simIdx = buildSimilarIndex(s.store.All(), v)
	}
	return s.simIdx
}

// FindSimilar ranks portfolio records by how close their description is to
// desc. A "Profil N" in one text matching "Nut N" in the other adds a bonus.
func (s *Service) FindSimilar(desc string, minSimilarity float64, filter string) (model.SimilarResult, error) {
	query := normalize(strings.TrimSpace(desc))
	if query == "" {
		return model.SimilarResult{}, ErrEmptyDescription
	}
	idx := s.descriptions()

	res := model.SimilarResult{Matches: []model.SimilarMatch{}}
	var matches []model.SimilarMatch
	// every description is scored: the slot bonus and transpositions can lift
	// texts with no shared substring above the threshold
	for _, name := range idx.names {
		score := min(1, bestSimilarity(query, name)+slotBonus(query, name))
		if score < minSimilarity {
			continue
		}
		for _, i := range idx.byName[name] {
			r := idx.recs[i]
			if filter == FilterItem && r.Get(model.ColItem) == "" {
				continue
			}
			if filter == FilterBosch && r.Get(model.ColBosch) == "" {
				continue
			}
			matches = append(matches, model.SimilarMatch{Entry: model.EntryOf(r), Similarity: score, Pos: i})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Similarity != matches[b].Similarity {
			return matches[a].Similarity > matches[b].Similarity
		}
		return matches[a].Pos < matches[b].Pos
	})
	res.TotalFound = len(matches)
	if len(matches) > similarLimit {
		matches = matches[:similarLimit]
	}
	res.Matches = append(res.Matches, matches...)
	return res, nil
}

// slotBonus rewards a profile size matching a slot size in either direction.
func slotBonus(a, b string) float64 {
	bonus := 0.0
	if sameNumber(reProfil, a, reNut, b) {
		bonus += profileBonus
	}
	if sameNumber(reNut, a, reProfil, b) {
		bonus += profileBonus
	}
	return bonus
}

func sameNumber(rxA *regexp.Regexp, a string, rxB *regexp.Regexp, b string) bool {
	ma := rxA.FindStringSubmatch(a)
	mb := rxB.FindStringSubmatch(b)
	return ma != nil && mb != nil && ma[1] == mb[1]
}
