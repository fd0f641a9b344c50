package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"xref-service/internal/fileio"
	"xref-service/internal/tabular"
	"xref-service/internal/xref/model"
)

type uploadResponse struct {
	SessionID  string            `json:"session_id"`
	Filename   string            `json:"filename"`
	Column     string            `json:"column"`
	HasHeader  bool              `json:"has_header"`
	Rows       int               `json:"rows"`
	ExportName string            `json:"export_name"`
	Result     model.BatchResult `json:"result"`
}

// BatchUpload converts one column of an uploaded CSV/XLSX/XLS file and keeps
// the table for a later export.
func (h *Handler) BatchUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := reqLogger(h.log, r)

		if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes()); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				fail(w, log, err)
				return
			}
			fail(w, log, badRequest("Ungültiges Formular"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			fail(w, log, badRequest("Keine Datei hochgeladen"))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			fail(w, log, err)
			return
		}
		kind, err := fileio.DetectKind(data, header.Filename)
		if err != nil {
			fail(w, log, err)
			return
		}
		table, err := fileio.ReadTable(bytes.NewReader(data), header.Filename)
		if err != nil {
			if errors.Is(err, fileio.ErrUnsupportedFile) {
				fail(w, log, err)
				return
			}
			log.Warn().Err(err).Str("file", header.Filename).Msg("unreadable upload")
			fail(w, log, badRequest("Datei konnte nicht gelesen werden"))
			return
		}

		letter := strings.ToUpper(strings.TrimSpace(r.FormValue("column")))
		if letter == "" {
			letter = "A"
		}
		col, err := tabular.ColumnIndex(letter)
		if err != nil {
			fail(w, log, err)
			return
		}
		target, err := parseTarget(r.FormValue("target"))
		if err != nil {
			fail(w, log, err)
			return
		}
		mode := model.ParseMode(r.FormValue("mode"), model.ModeExtern)

		ex := tabular.Extract(table, col)
		if ex.Len() == 0 {
			fail(w, log, badRequest(fmt.Sprintf("Keine Nummern in Spalte %s gefunden", letter)))
			return
		}
		res, err := h.svc.BatchConvert(ex.Tokens, target, mode)
		if err != nil {
			fail(w, log, err)
			return
		}

		// failures are marked with the cell text as read, not the compacted token
		outcomes := make([]tabular.Outcome, len(res.Results))
		for i, it := range res.Results {
			outcomes[i] = tabular.Outcome{Input: ex.Tokens[i], Output: it.Output, Success: it.Status == model.StatusSuccess}
		}

		id := h.sessions.put(&batchSession{
			filename: header.Filename,
			kind:     kind,
			table:    table,
			ex:       ex,
			target:   target,
			outcomes: outcomes,
		})

		writeJSON(w, http.StatusOK, uploadResponse{
			SessionID:  id,
			Filename:   fileio.SanitizeFilename(header.Filename),
			Column:     letter,
			HasHeader:  ex.HasHeader,
			Rows:       len(table),
			ExportName: fileio.ExportName(header.Filename, string(target)),
			Result:     res,
		})
		log.Info().
			Str("file", header.Filename).
			Str("kind", kind.String()).
			Int("tokens", ex.Len()).
			Int("success", res.Success).
			Dur("elapsed", time.Since(start)).
			Msg("batch upload converted")
	}
}

// BatchExport writes the uploaded table back with the conversion results in
// the extracted column. Failed cells become ?input?.
func (h *Handler) BatchExport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(h.log, r)
		bs, err := h.sessions.get(chi.URLParam(r, "id"))
		if err != nil {
			fail(w, log, err)
			return
		}
		out, err := tabular.Reinject(bs.table, bs.ex, bs.outcomes)
		if err != nil {
			fail(w, log, err)
			return
		}

		var buf bytes.Buffer
		if err := fileio.WriteTable(&buf, out, bs.ex.Column, bs.kind); err != nil {
			fail(w, log, err)
			return
		}
		name := fileio.ExportName(bs.filename, string(bs.target))
		w.Header().Set("Content-Type", bs.kind.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, asciiName(name), url.PathEscape(name)))
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(buf.Bytes())
		log.Info().Str("session", bs.id).Str("file", name).Int("bytes", buf.Len()).Msg("batch exported")
	}
}

func asciiName(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' {
			return '_'
		}
		return r
	}, s)
}
