// Package store keeps the portfolio CSV in memory, indexes every catalog number
// and writes edits back with backups and a short undo history.
package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"xref-service/internal/fileio"
	"xref-service/internal/xref/model"
)

var (
	ErrNotFound      = errors.New("entry not found")
	ErrDuplicate     = errors.New("primary number already exists")
	ErrLocked        = errors.New("portfolio file is locked")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrAlreadyMapped = errors.New("value already mapped")
	ErrEmptyKey      = errors.New("primary number is empty")
	ErrNotCSV        = errors.New("portfolio must be a .csv file")
)

type Options struct {
	BackupDir       string        // default: <dir of file>/backups
	BackupRetention time.Duration // default 24h
	UndoWindow      time.Duration // default 3m
	UndoDepth       int           // default 100
	LockTimeout     time.Duration // default 5s
	Logger          zerolog.Logger
	Now             func() time.Time
}

func (o *Options) defaults(path string) {
	if o.BackupDir == "" {
		o.BackupDir = filepath.Join(filepath.Dir(path), "backups")
	}
	if o.BackupRetention <= 0 {
		o.BackupRetention = 24 * time.Hour
	}
	if o.UndoWindow <= 0 {
		o.UndoWindow = 3 * time.Minute
	}
	if o.UndoDepth <= 0 {
		o.UndoDepth = 100
	}
	if o.LockTimeout <= 0 {
		o.LockTimeout = 5 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Store is safe for concurrent use. Reads take a snapshot under a read lock;
// writes are serialised by the file lock.
type Store struct {
	path string
	opts Options
	log  zerolog.Logger

	fileLock chan struct{}

	mu      sync.RWMutex
	header  []string
	records []model.Record
	index   map[model.Column]map[string][]int
	version uint64

	undo    *undoLog
	backups *backups
}

var defaultHeader = []string{
	"Syskomp neu", "Syskomp alt", "Beschreibung", "Item",
	"Bosch", "Alvaris Artnr", "Alvaris Matnr", "ASK",
}

// Open loads the portfolio file at path.
// Only CSV is accepted since every commit rewrites the file as CSV.
func Open(path string, opts Options) (*Store, error) {
	if k, err := fileio.KindOf(path); err != nil || k != fileio.KindCSV {
		return nil, fmt.Errorf("%w: %s", ErrNotCSV, filepath.Base(path))
	}
	opts.defaults(path)
	s := &Store{
		path:     path,
		opts:     opts,
		log:      opts.Logger.With().Str("component", "store").Logger(),
		fileLock: make(chan struct{}, 1),
		undo:     newUndoLog(opts.UndoDepth, opts.UndoWindow, opts.Now),
		backups: &backups{
			dir:       opts.BackupDir,
			prefix:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			retention: opts.BackupRetention,
			now:       opts.Now,
		},
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the file from disk.
func (s *Store) Reload() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open portfolio: %w", err)
	}
	defer f.Close()

	rows, err := fileio.ReadTable(f, s.path)
	if err != nil {
		return fmt.Errorf("read portfolio: %w", err)
	}

	header := append([]string(nil), defaultHeader...)
	var recs []model.Record
	for i, row := range rows {
		if i == 0 {
			for c := 0; c < len(row) && c < model.NumColumns; c++ {
				if h := strings.TrimSpace(row[c]); h != "" {
					header[c] = h
				}
			}
			continue
		}
		var r model.Record
		for c := 0; c < len(row) && c < model.NumColumns; c++ {
			v := strings.TrimSpace(row[c])
			if v == "None" {
				v = ""
			}
			r.Cells[c] = v
		}
		recs = append(recs, r)
	}

	s.mu.Lock()
	s.header = header
	s.swap(recs)
	s.mu.Unlock()

	s.log.Info().Str("file", s.path).Int("rows", len(recs)).Msg("portfolio loaded")
	return nil
}

// swap replaces the records and rebuilds the index. Caller holds s.mu.
func (s *Store) swap(recs []model.Record) {
	idx := make(map[model.Column]map[string][]int, len(model.Searchable))
	for _, c := range model.Searchable {
		idx[c] = make(map[string][]int)
	}
	for i, r := range recs {
		for _, c := range model.Searchable {
			for _, v := range r.Values(c) {
				pos := idx[c][v]
				if n := len(pos); n > 0 && pos[n-1] == i {
					continue
				}
				idx[c][v] = append(pos, i)
			}
		}
	}
	s.records = recs
	s.index = idx
	s.version++
}

// Version changes whenever the records are replaced.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Header returns the column titles of the file.
func (s *Store) Header() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.header...)
}

// Path is the portfolio file location.
func (s *Store) Path() string { return s.path }

// Lookup returns every record holding value in column c.
func (s *Store) Lookup(c model.Column, value string) []model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos := s.index[c][strings.TrimSpace(value)]
	out := make([]model.Record, 0, len(pos))
	for _, i := range pos {
		out = append(out, s.records[i])
	}
	return out
}

// Get returns the record with the given primary number.
func (s *Store) Get(syskompNeu string) (model.Record, bool) {
	recs := s.Lookup(model.ColSyskompNeu, syskompNeu)
	if len(recs) == 0 {
		return model.Record{}, false
	}
	return recs[0], true
}

// All returns a copy of every record in file order.
func (s *Store) All() []model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Record(nil), s.records...)
}

// Len is the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Distinct is the number of distinct values indexed for column c.
func (s *Store) Distinct(c model.Column) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index[c])
}

// Indexed is the total number of indexed values over all searchable columns.
func (s *Store) Indexed() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.index {
		n += len(m)
	}
	return n
}

// Contains reports whether value appears in any of the given columns.
func (s *Store) Contains(value string, cols ...model.Column) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value = strings.TrimSpace(value)
	for _, c := range cols {
		if len(s.index[c][value]) > 0 {
			return true
		}
	}
	return false
}

func (s *Store) acquire(ctx context.Context) error {
	t := time.NewTimer(s.opts.LockTimeout)
	defer t.Stop()
	select {
	case s.fileLock <- struct{}{}:
		return nil
	case <-t.C:
		return ErrLocked
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() { <-s.fileLock }

// commit backs up the current file, writes recs and swaps them in. Caller holds the file lock.
func (s *Store) commit(recs []model.Record) error {
	backup, err := s.backups.create(s.path)
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	s.log.Debug().Str("backup", backup).Msg("backup created")

	s.mu.RLock()
	header := s.header
	s.mu.RUnlock()

	if err := writeFile(s.path, header, recs); err != nil {
		return err
	}

	s.mu.Lock()
	s.swap(recs)
	s.mu.Unlock()

	if n, err := s.backups.prune(); err != nil {
		s.log.Warn().Err(err).Msg("backup cleanup")
	} else if n > 0 {
		s.log.Info().Int("removed", n).Msg("old backups removed")
	}
	return nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// writeFile writes a UTF-8 (BOM) ';' CSV through a temp file and renames it into place.
func writeFile(path string, header []string, recs []model.Record) error {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	w.Comma = fileio.Delimiter
	_ = w.Write(header)
	for _, r := range recs {
		_ = w.Write(r.Cells[:])
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode portfolio: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".portfolio-*.csv")
	if err != nil {
		return fmt.Errorf("write portfolio: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write portfolio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write portfolio: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write portfolio: %w", err)
	}
	return nil
}

func (s *Store) position(recs []model.Record, syskompNeu string) int {
	for i, r := range recs {
		if r.Get(model.ColSyskompNeu) == syskompNeu {
			return i
		}
	}
	return -1
}
