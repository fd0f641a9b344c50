package store

import (
	"sync"
	"time"

	"xref-service/internal/xref/model"
)

type actionKind int

const (
	actionUpdate actionKind = iota
	actionCreate
	actionDelete
	actionDedupe
)

func (k actionKind) String() string {
	switch k {
	case actionUpdate:
		return "update"
	case actionCreate:
		return "create"
	case actionDelete:
		return "delete"
	default:
		return "dedupe"
	}
}

type action struct {
	kind     actionKind
	key      string
	col      model.Column
	pos      int
	before   model.Record
	after    model.Record
	snapshot []model.Record
	at       time.Time
}

// undoLog is a bounded history; only entries younger than window can be undone.
type undoLog struct {
	mu      sync.Mutex
	depth   int
	window  time.Duration
	now     func() time.Time
	history []action
}

func newUndoLog(depth int, window time.Duration, now func() time.Time) *undoLog {
	return &undoLog{depth: depth, window: window, now: now}
}

func (u *undoLog) push(a action) {
	u.mu.Lock()
	defer u.mu.Unlock()
	a.at = u.now()
	u.history = append(u.history, a)
	if len(u.history) > u.depth {
		u.history = u.history[len(u.history)-u.depth:]
	}
}

func (u *undoLog) last() (action, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.history) == 0 {
		return action{}, false
	}
	a := u.history[len(u.history)-1]
	if !a.at.After(u.now().Add(-u.window)) {
		return action{}, false
	}
	return a, true
}

func (u *undoLog) pop() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if n := len(u.history); n > 0 {
		u.history = u.history[:n-1]
	}
}
