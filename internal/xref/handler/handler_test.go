package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"xref-service/internal/config"
	"xref-service/internal/xref/service"
	"xref-service/internal/xref/store"
)

const portfolio = "Syskomp neu;Syskomp alt;Beschreibung;Item;Bosch;Alvaris Artnr;Alvaris Matnr;ASK\n" +
	"100000001;200000001;Profil 8 40x40;0.0.026.01;3842990720;1020010;;\n" +
	"100000002;400000002;Nutenstein Nut 8;0.0.621.77;;;;20001234\n"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "portfolio.csv")
	if err := os.WriteFile(path, []byte(portfolio), 0o644); err != nil {
		t.Fatal(err)
	}
	st, err := store.Open(path, store.Options{Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	svc := service.New(st, service.Options{CatalogDir: dir, Logger: zerolog.Nop()})
	cfg := config.Config{MaxUploadMB: 10, SessionTTL: 30 * time.Minute}
	h := New(svc, cfg, zerolog.Nop())

	r := chi.NewRouter()
	r.Get("/api/stats", h.Stats())
	r.Post("/api/search", h.Search())
	r.Post("/api/convert", h.Convert())
	r.Post("/api/batch-convert", h.BatchConvert())
	r.Post("/api/batch/upload", h.BatchUpload())
	r.Get("/api/batch/{id}/export", h.BatchExport())
	r.Post("/api/validate-number", h.ValidateNumber())
	r.Post("/api/update-entry", h.UpdateEntry())
	r.Post("/api/create-entry", h.CreateEntry())
	r.Post("/api/delete-entry", h.DeleteEntry())
	r.Post("/api/undo", h.Undo())
	r.Post("/api/clean-duplicates", h.CleanDuplicates())
	r.Get("/api/scan-catalogs", h.ScanCatalogs())
	r.Post("/api/find-similar", h.FindSimilar())
	r.Get("/api/image/{type}/{artnr}", h.Image())
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: bad json %q", method, path, rec.Body.String())
		}
	}
	return rec, out
}

func TestJSONEndpoints(t *testing.T) {
	h := newTestRouter(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		errMsg string
	}{
		{"search", http.MethodPost, "/api/search", `{"number":"0.0.026.01"}`, 200, ""},
		{"search empty", http.MethodPost, "/api/search", `{"number":" "}`, 400, "Keine Nummer angegeben"},
		{"search bad json", http.MethodPost, "/api/search", `{`, 400, "Ungültiges JSON"},
		{"convert", http.MethodPost, "/api/convert", `{"from_col":"d","to_col":"a","number":"0.0.026.01","mode":"extern"}`, 200, ""},
		{"convert rule", http.MethodPost, "/api/convert", `{"from_col":"A","to_col":"D","number":"100000001","mode":"extern"}`, 400, "Extern-Modus: Nur Konvertierung nach A oder B erlaubt"},
		{"convert column", http.MethodPost, "/api/convert", `{"from_col":"Z","to_col":"A","number":"1"}`, 400, "Ungültige Spalte"},
		{"batch target", http.MethodPost, "/api/batch-convert", `{"numbers":["1"],"target_col":"D"}`, 400, "Batch-Konvertierung nur nach A oder B erlaubt"},
		{"validate", http.MethodPost, "/api/validate-number", `{"col":"D","number":"1.2.3"}`, 200, ""},
		{"validate missing", http.MethodPost, "/api/validate-number", `{"col":"D"}`, 400, "Spalte und Nummer erforderlich"},
		{"update invalid", http.MethodPost, "/api/update-entry", `{"syskomp_neu":"100000002","col":"E","value":"12"}`, 400, "Validierung fehlgeschlagen: Bosch-Nummer muss genau 10 Zeichen haben"},
		{"update unknown", http.MethodPost, "/api/update-entry", `{"syskomp_neu":"199999999","col":"E","value":"3842000001"}`, 404, "Eintrag nicht gefunden"},
		{"update primary", http.MethodPost, "/api/update-entry", `{"syskomp_neu":"100000002","col":"A","value":"100000009"}`, 400, "Ungültige Spalte"},
		{"create duplicate", http.MethodPost, "/api/create-entry", `{"syskomp_neu":"100000001"}`, 409, "Syskomp-Nummer existiert bereits"},
		{"create invalid", http.MethodPost, "/api/create-entry", `{"syskomp_neu":"100000009","bosch":"1"}`, 400, "Bosch: Bosch-Nummer muss genau 10 Zeichen haben"},
		{"undo empty", http.MethodPost, "/api/undo", ``, 400, "Keine Aktion zum Rückgängigmachen (max. 3 Minuten)"},
		{"similar", http.MethodPost, "/api/find-similar", `{"description":"Profil 8 40x40","min_similarity":"0,5"}`, 200, ""},
		{"similar empty", http.MethodPost, "/api/find-similar", `{"description":""}`, 400, "Beschreibung erforderlich"},
		{"image", http.MethodGet, "/api/image/ask/20001234", ``, 404, "Bild nicht gefunden"},
		{"image type", http.MethodGet, "/api/image/foo/1", ``, 400, "Unbekannter Bildtyp"},
		{"export unknown", http.MethodGet, "/api/batch/nope/export", ``, 404, "Sitzung abgelaufen oder unbekannt"},
		{"scan", http.MethodGet, "/api/scan-catalogs", ``, 200, ""},
		{"stats", http.MethodGet, "/api/stats", ``, 200, ""},
	}
	for _, tc := range cases {
		rec, out := do(t, h, tc.method, tc.path, tc.body)
		if rec.Code != tc.status {
			t.Errorf("%s: status %d, want %d (%s)", tc.name, rec.Code, tc.status, rec.Body.String())
			continue
		}
		if tc.errMsg != "" && out["error"] != tc.errMsg {
			t.Errorf("%s: error %q, want %q", tc.name, out["error"], tc.errMsg)
		}
	}
}

func TestBatchConvertNumbers(t *testing.T) {
	h := newTestRouter(t)
	_, out := do(t, h, http.MethodPost, "/api/batch-convert", `{"numbers":["0.0.026.01", 3842990720, ""],"target_col":"a"}`)
	if out["success"] != float64(2) || out["failed"] != float64(1) {
		t.Fatalf("batch = %v", out)
	}
	res := out["results"].([]any)
	if res[1].(map[string]any)["output"] != "100000001" {
		t.Errorf("numeric token = %v", res[1])
	}
	if res[2].(map[string]any)["status"] != "empty" {
		t.Errorf("empty token = %v", res[2])
	}
}

func TestEditFlow(t *testing.T) {
	h := newTestRouter(t)

	rec, out := do(t, h, http.MethodPost, "/api/update-entry", `{"syskomp_neu":"100000002","col":"d","value":"0.0.621.78","append":true}`)
	if rec.Code != 200 || out["value"] != "0.0.621.77|0.0.621.78" {
		t.Fatalf("append: %d %v", rec.Code, out)
	}
	rec, out = do(t, h, http.MethodPost, "/api/update-entry", `{"syskomp_neu":"100000002","col":"D","value":"0.0.621.78","append":true}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate append: %d %v", rec.Code, out)
	}
	rec, _ = do(t, h, http.MethodPost, "/api/undo", ``)
	if rec.Code != 200 {
		t.Fatalf("undo: %d", rec.Code)
	}
	_, out = do(t, h, http.MethodPost, "/api/search", `{"number":"0.0.621.78"}`)
	if out["found"] != false {
		t.Errorf("undone value still searchable: %v", out)
	}

	rec, _ = do(t, h, http.MethodPost, "/api/create-entry", `{"syskomp_neu":"100000003","syskomp_alt":"200000003","bosch":"3842000001|3842000002"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	_, out = do(t, h, http.MethodPost, "/api/search", `{"number":"3842000002"}`)
	if out["count"] != float64(1) {
		t.Errorf("created entry not indexed: %v", out)
	}
	rec, _ = do(t, h, http.MethodPost, "/api/delete-entry", `{"syskomp_neu":"100000003"}`)
	if rec.Code != 200 {
		t.Errorf("delete: %d", rec.Code)
	}
	_, out = do(t, h, http.MethodPost, "/api/clean-duplicates", ``)
	if out["removed"] != float64(0) {
		t.Errorf("dedupe = %v", out)
	}
}

func upload(t *testing.T, h http.Handler, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write(content)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/batch/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBatchUploadExport(t *testing.T) {
	h := newTestRouter(t)

	csv := "Nummer;Text\n0.0.026.01;foo\n0.0.999.99;bar\n"
	rec := upload(t, h, "liste.csv", []byte(csv), map[string]string{"column": "a", "target": "A"})
	if rec.Code != 200 {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}
	var up uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &up); err != nil {
		t.Fatal(err)
	}
	if !up.HasHeader || up.Result.Total != 2 || up.Result.Success != 1 || up.ExportName != "liste-syskompA.csv" {
		t.Fatalf("upload response = %+v", up)
	}

	rec, _ = do(t, h, http.MethodGet, "/api/batch/"+up.SessionID+"/export", "")
	if rec.Code != 200 {
		t.Fatalf("export: %d %s", rec.Code, rec.Body.String())
	}
	want := "Nummer;Text\n100000001;foo\n?0.0.999.99?;bar\n"
	if rec.Body.String() != want {
		t.Errorf("export body = %q, want %q", rec.Body.String(), want)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="liste-syskompA.csv"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}

	rec = upload(t, h, "liste.xlsx", []byte("not a zip"), nil)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("fake xlsx: %d", rec.Code)
	}
	rec = upload(t, h, "liste.pdf", []byte("%PDF"), nil)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("pdf: %d", rec.Code)
	}
	rec = upload(t, h, "liste.csv", []byte(csv), map[string]string{"column": "AA"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("column AA: %d", rec.Code)
	}
}

func TestSessionExpiry(t *testing.T) {
	s := newSessions(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	id := s.put(&batchSession{filename: "a.csv"})
	if _, err := s.get(id); err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := s.get(id); err != errSessionNotFound {
		t.Errorf("expired session err = %v", err)
	}
}
