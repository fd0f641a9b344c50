package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"xref-service/internal/xref/model"
)

const fixture = "\ufeffSyskomp neu;Syskomp alt;Beschreibung;Item;Bosch;Alvaris Artnr;Alvaris Matnr;ASK\n" +
	"100000001;200000001;Profil 40x40 Nut 8;0.0.026.01|0.0.026.02;3842990720;1020010;None;\n" +
	"100000002;200000002;Winkel;;3842523530;;;20001234\n" +
	"100000003;400000003;Nutenstein;0.0.419.06;;;;\n"

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func openFixture(t *testing.T) (*Store, *clock, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "portfolio.csv")
	if err := os.WriteFile(path, []byte(fixture), 0o644); err != nil {
		t.Fatal(err)
	}
	clk := &clock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	s, err := Open(path, Options{Logger: zerolog.Nop(), Now: clk.now})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, clk, path
}

func TestOpenAndLookup(t *testing.T) {
	s, _, _ := openFixture(t)

	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	cases := []struct {
		col   model.Column
		value string
		want  string
	}{
		{model.ColItem, "0.0.026.02", "100000001"},
		{model.ColBosch, "3842523530", "100000002"},
		{model.ColSyskompAlt, "400000003", "100000003"},
		{model.ColASK, "20001234", "100000002"},
	}
	for _, tc := range cases {
		got := s.Lookup(tc.col, tc.value)
		if len(got) != 1 || got[0].Get(model.ColSyskompNeu) != tc.want {
			t.Errorf("Lookup(%s, %q) = %v, want %s", tc.col, tc.value, got, tc.want)
		}
	}

	r, ok := s.Get("100000001")
	if !ok {
		t.Fatal("Get: not found")
	}
	if got := r.Get(model.ColAlvarisMatnr); got != "" {
		t.Errorf("None cell = %q, want empty", got)
	}
	if !s.Contains("1020010", model.ColAlvarisArtnr, model.ColAlvarisMatnr) {
		t.Error("Contains(1020010) = false")
	}
	if s.Contains("1020010", model.ColASK) {
		t.Error("Contains(1020010, H) = true")
	}
}

func TestOpenRejectsSpreadsheet(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Portfolio.xlsx", "Portfolio.xls", "portfolio.txt"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(fixture), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Open(path, Options{Logger: zerolog.Nop()}); !errors.Is(err, ErrNotCSV) {
			t.Errorf("Open(%s) err = %v, want ErrNotCSV", name, err)
		}
	}

	path := filepath.Join(dir, "Portfolio.CSV")
	if err := os.WriteFile(path, []byte(fixture), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path, Options{Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("Open(upper-case .CSV): %v", err)
	}
	if _, err := s.Update(context.Background(), "100000002", model.ColBosch, "3842523531", false); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload after update: %v", err)
	}
	if s.Path() != path || s.Len() != 3 {
		t.Errorf("Path = %s, Len = %d", s.Path(), s.Len())
	}
}

func TestUpdateAppendAndUndo(t *testing.T) {
	s, _, path := openFixture(t)
	ctx := context.Background()

	r, err := s.Update(ctx, "100000002", model.ColItem, "0.0.480.75", true)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := r.Get(model.ColItem); got != "0.0.480.75" {
		t.Errorf("item = %q", got)
	}
	r, err = s.Update(ctx, "100000002", model.ColItem, "0.0.480.76", true)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := r.Get(model.ColItem); got != "0.0.480.75|0.0.480.76" {
		t.Errorf("item = %q", got)
	}
	if _, err := s.Update(ctx, "100000002", model.ColItem, "0.0.480.76", true); !errors.Is(err, ErrAlreadyMapped) {
		t.Errorf("duplicate append err = %v, want ErrAlreadyMapped", err)
	}
	if _, err := s.Update(ctx, "999999999", model.ColItem, "x", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown key err = %v, want ErrNotFound", err)
	}

	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "0.0.480.75|0.0.480.76") {
		t.Errorf("file not updated:\n%s", raw)
	}

	if _, err := s.Undo(ctx); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	r, _ = s.Get("100000002")
	if got := r.Get(model.ColItem); got != "0.0.480.75" {
		t.Errorf("after undo item = %q", got)
	}
	if len(s.Lookup(model.ColItem, "0.0.480.76")) != 0 {
		t.Error("index still holds undone value")
	}
}

func TestCreateDeleteUndo(t *testing.T) {
	s, _, _ := openFixture(t)
	ctx := context.Background()

	var r model.Record
	r.Set(model.ColSyskompNeu, "100000009")
	r.Set(model.ColBosch, "3842000000")
	if err := s.Create(ctx, r); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, r); !errors.Is(err, ErrDuplicate) {
		t.Errorf("second Create err = %v, want ErrDuplicate", err)
	}
	if err := s.Create(ctx, model.Record{}); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("empty Create err = %v, want ErrEmptyKey", err)
	}

	if _, err := s.Delete(ctx, "100000002"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := s.Get("100000002"); ok {
		t.Fatal("deleted record still present")
	}
	if _, err := s.Undo(ctx); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	all := s.All()
	if len(all) != 4 || all[1].Get(model.ColSyskompNeu) != "100000002" {
		t.Errorf("restore position wrong: %v", all)
	}

	if _, err := s.Undo(ctx); err != nil {
		t.Fatalf("Undo create: %v", err)
	}
	if _, ok := s.Get("100000009"); ok {
		t.Error("created record survived undo")
	}
}

func TestUndoWindow(t *testing.T) {
	s, clk, _ := openFixture(t)
	ctx := context.Background()

	if _, err := s.Undo(ctx); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("empty history err = %v", err)
	}
	if _, err := s.Update(ctx, "100000003", model.ColBosch, "3842111111", false); err != nil {
		t.Fatal(err)
	}
	clk.t = clk.t.Add(4 * time.Minute)
	if _, err := s.Undo(ctx); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("expired undo err = %v, want ErrNothingToUndo", err)
	}
}

func TestDedupe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.csv")
	data := "A;B;C;D;E;F;G;H\n" +
		"100000001;;kurz;0.0.1.1;;;;\n" +
		"100000002;;x;;;;;\n" +
		"100000001;200000001;eine lange Beschreibung;0.0.1.2|0.0.1.1;;;;\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path, Options{Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if n, err := s.Dedupe(ctx, "0.0.9.9"); err != nil || n != 0 {
		t.Errorf("filtered Dedupe = %d, %v; want 0", n, err)
	}
	n, err := s.Dedupe(ctx, "")
	if err != nil {
		t.Fatalf("Dedupe: %v", err)
	}
	if n != 1 || s.Len() != 2 {
		t.Fatalf("removed %d, len %d", n, s.Len())
	}
	r, _ := s.Get("100000001")
	if got := r.Get(model.ColItem); got != "0.0.1.1|0.0.1.2" {
		t.Errorf("merged item = %q", got)
	}
	if got := r.Get(model.ColDescription); got != "eine lange Beschreibung" {
		t.Errorf("merged description = %q", got)
	}
	if got := r.Get(model.ColSyskompAlt); got != "200000001" {
		t.Errorf("merged alt = %q", got)
	}

	if _, err := s.Undo(ctx); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 3 {
		t.Errorf("after undo len = %d, want 3", s.Len())
	}
}

func TestBackupsPruned(t *testing.T) {
	s, clk, _ := openFixture(t)
	ctx := context.Background()

	if _, err := s.Update(ctx, "100000003", model.ColBosch, "1", false); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(s.opts.BackupDir)
	if len(entries) != 1 {
		t.Fatalf("backups = %d, want 1", len(entries))
	}
	old := filepath.Join(s.opts.BackupDir, entries[0].Name())
	past := clk.t.Add(-48 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	clk.t = clk.t.Add(time.Second)
	if _, err := s.Update(ctx, "100000003", model.ColBosch, "2", false); err != nil {
		t.Fatal(err)
	}
	entries, _ = os.ReadDir(s.opts.BackupDir)
	if len(entries) != 1 {
		t.Errorf("backups after prune = %d, want 1", len(entries))
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expired backup not removed")
	}
}

func TestLockTimeout(t *testing.T) {
	s, _, _ := openFixture(t)
	s.opts.LockTimeout = 10 * time.Millisecond
	s.fileLock <- struct{}{}
	defer s.release()

	if _, err := s.Delete(context.Background(), "100000001"); !errors.Is(err, ErrLocked) {
		t.Errorf("err = %v, want ErrLocked", err)
	}
}
