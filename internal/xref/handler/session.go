package handler

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"xref-service/internal/fileio"
	"xref-service/internal/tabular"
	"xref-service/internal/xref/model"
)

var errSessionNotFound = errors.New("batch session not found")

// batchSession keeps an uploaded table and its conversion until it is exported.
type batchSession struct {
	id       string
	filename string
	kind     fileio.Kind
	table    tabular.Table
	ex       tabular.Extraction
	target   model.Column
	outcomes []tabular.Outcome
	created  time.Time
}

type sessions struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	byID map[string]*batchSession
}

func newSessions(ttl time.Duration) *sessions {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &sessions{ttl: ttl, now: time.Now, byID: make(map[string]*batchSession)}
}

func (s *sessions) put(bs *batchSession) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, old := range s.byID {
		if now.Sub(old.created) > s.ttl {
			delete(s.byID, id)
		}
	}
	bs.id = uuid.NewString()
	bs.created = now
	s.byID[bs.id] = bs
	return bs.id
}

func (s *sessions) get(id string) (*batchSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bs, ok := s.byID[id]
	if !ok {
		return nil, errSessionNotFound
	}
	if s.now().Sub(bs.created) > s.ttl {
		delete(s.byID, id)
		return nil, errSessionNotFound
	}
	return bs, nil
}
