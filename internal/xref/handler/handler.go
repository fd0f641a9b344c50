// Package handler exposes the cross-reference service over JSON/HTTP.
package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"xref-service/internal/config"
	"xref-service/internal/xref/model"
	"xref-service/internal/xref/service"
)

type Handler struct {
	svc      *service.Service
	cfg      config.Config
	log      zerolog.Logger
	sessions *sessions
}

func New(svc *service.Service, cfg config.Config, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		cfg:      cfg,
		log:      logger.With().Str("component", "handler").Logger(),
		sessions: newSessions(cfg.SessionTTL),
	}
}

func (h *Handler) Stats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.svc.Stats())
	}
}

type searchRequest struct {
	Number string `json:"number"`
}

func (h *Handler) Search() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(h.log, r)
		var req searchRequest
		if err := decodeJSON(r, &req); err != nil {
			fail(w, log, err)
			return
		}
		res, err := h.svc.Search(req.Number)
		if err != nil {
			fail(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type convertRequest struct {
	FromCol string `json:"from_col"`
	ToCol   string `json:"to_col"`
	Number  string `json:"number"`
	Mode    string `json:"mode"`
}

func (h *Handler) Convert() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(h.log, r)
		var req convertRequest
		if err := decodeJSON(r, &req); err != nil {
			fail(w, log, err)
			return
		}
		from, err := model.ParseColumn(req.FromCol)
		if err != nil {
			fail(w, log, service.ErrInvalidColumn)
			return
		}
		to, err := model.ParseColumn(req.ToCol)
		if err != nil {
			fail(w, log, service.ErrInvalidColumn)
			return
		}
		res, err := h.svc.Convert(from, to, req.Number, model.ParseMode(req.Mode, model.ModeIntern))
		if err != nil {
			fail(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type batchRequest struct {
	Numbers   []any  `json:"numbers"`
	TargetCol string `json:"target_col"`
	Mode      string `json:"mode"`
}

// tokenString accepts numbers sent as JSON numbers as well as strings.
func tokenString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func parseTarget(s string) (model.Column, error) {
	if strings.TrimSpace(s) == "" {
		return model.ColSyskompNeu, nil
	}
	c, err := model.ParseColumn(s)
	if err != nil {
		return "", service.ErrBatchTarget
	}
	return c, nil
}

func (h *Handler) BatchConvert() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(h.log, r)
		var req batchRequest
		if err := decodeJSON(r, &req); err != nil {
			fail(w, log, err)
			return
		}
		target, err := parseTarget(req.TargetCol)
		if err != nil {
			fail(w, log, err)
			return
		}
		numbers := make([]string, len(req.Numbers))
		for i, v := range req.Numbers {
			numbers[i] = tokenString(v)
		}
		res, err := h.svc.BatchConvert(numbers, target, model.ParseMode(req.Mode, model.ModeExtern))
		if err != nil {
			fail(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type validateRequest struct {
	Col      string `json:"col"`
	Number   string `json:"number"`
	CheckURL bool   `json:"check_url"`
}

func (h *Handler) ValidateNumber() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(h.log, r)
		var req validateRequest
		if err := decodeJSON(r, &req); err != nil {
			fail(w, log, err)
			return
		}
		if strings.TrimSpace(req.Col) == "" || strings.TrimSpace(req.Number) == "" {
			fail(w, log, badRequest("Spalte und Nummer erforderlich"))
			return
		}
		c, err := model.ParseColumn(req.Col)
		if err != nil {
			fail(w, log, service.ErrInvalidColumn)
			return
		}
		writeJSON(w, http.StatusOK, h.svc.Validate(r.Context(), c, req.Number, req.CheckURL))
	}
}

type updateRequest struct {
	SyskompNeu string `json:"syskomp_neu"`
	Col        string `json:"col"`
	Value      string `json:"value"`
	Append     bool   `json:"append"`
}

func (h *Handler) UpdateEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(h.log, r)
		var req updateRequest
		if err := decodeJSON(r, &req); err != nil {
			fail(w, log, err)
			return
		}
		if strings.TrimSpace(req.SyskompNeu) == "" || strings.TrimSpace(req.Col) == "" || strings.TrimSpace(req.Value) == "" {
			fail(w, log, badRequest("Syskomp neu, Spalte und Wert erforderlich"))
			return
		}
		c, err := model.ParseColumn(req.Col)
		if err != nil || c == model.ColSyskompNeu {
			fail(w, log, service.ErrInvalidColumn)
			return
		}
		if ok, msg := service.ValidateFormat(c, req.Value); !ok {
			fail(w, log, badRequest("Validierung fehlgeschlagen: "+msg))
			return
		}
		rec, err := h.svc.Store().Update(r.Context(), req.SyskompNeu, c, req.Value, req.Append)
		if err != nil {
			fail(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"message":     fmt.Sprintf("%s für %s gespeichert", c.Name(), req.SyskompNeu),
			"syskomp_neu": req.SyskompNeu,
			"col":         c,
			"value":       rec.Get(c),
		})
	}
}

func (h *Handler) CreateEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(h.log, r)
		var req model.Entry
		if err := decodeJSON(r, &req); err != nil {
			fail(w, log, err)
			return
		}
		rec := req.Record()
		for _, c := range model.Columns {
			if c == model.ColDescription {
				continue
			}
			vals := rec.Values(c)
			if c == model.ColSyskompNeu && len(vals) == 0 {
				fail(w, log, badRequest("Syskomp neu erforderlich"))
				return
			}
			for _, v := range vals {
				if ok, msg := service.ValidateFormat(c, v); !ok {
					fail(w, log, badRequest(fmt.Sprintf("%s: %s", c.Name(), msg)))
					return
				}
			}
		}
		if err := h.svc.Store().Create(r.Context(), rec); err != nil {
			fail(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"message": fmt.Sprintf("Eintrag %s angelegt", rec.Get(model.ColSyskompNeu)),
			"entry":   model.EntryOf(rec),
		})
	}
}

type keyRequest struct {
	SyskompNeu string `json:"syskomp_neu"`
}

func (h *Handler) DeleteEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(h.log, r)
		var req keyRequest
		if err := decodeJSON(r, &req); err != nil {
			fail(w, log, err)
			return
		}
		if strings.TrimSpace(req.SyskompNeu) == "" {
			fail(w, log, badRequest("Syskomp neu erforderlich"))
			return
		}
		rec, err := h.svc.Store().Delete(r.Context(), req.SyskompNeu)
		if err != nil {
			fail(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": fmt.Sprintf("Eintrag %s gelöscht", req.SyskompNeu),
			"entry":   model.EntryOf(rec),
		})
	}
}

func (h *Handler) Undo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(h.log, r)
		msg, err := h.svc.Store().Undo(r.Context())
		if err != nil {
			fail(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msg})
	}
}

type dedupeRequest struct {
	SearchTerm string `json:"search_term"`
}

func (h *Handler) CleanDuplicates() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(h.log, r)
		var req dedupeRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				fail(w, log, err)
				return
			}
		}
		n, err := h.svc.Dedupe(r.Context(), req.SearchTerm)
		if err != nil {
			fail(w, log, err)
			return
		}
		msg := "Keine Duplikate gefunden"
		if n > 0 {
			msg = fmt.Sprintf("%d Duplikate zusammengeführt", n)
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "removed": n, "message": msg})
	}
}

func (h *Handler) ScanCatalogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := h.svc.ScanCatalogs()
		if err != nil {
			fail(w, reqLogger(h.log, r), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"catalogs": cats})
	}
}

type loadCatalogRequest struct {
	CatalogPath string `json:"catalog_path"`
}

func (h *Handler) LoadCatalog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(h.log, r)
		var req loadCatalogRequest
		if err := decodeJSON(r, &req); err != nil {
			fail(w, log, err)
			return
		}
		res, err := h.svc.LoadCatalog(req.CatalogPath)
		if err != nil {
			fail(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Success bool `json:"success"`
			model.CatalogLoad
		}{true, res})
	}
}

type similarRequest struct {
	Description   string `json:"description"`
	MinSimilarity any    `json:"min_similarity"`
	FilterType    string `json:"filter_type"`
}

func (h *Handler) FindSimilar() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := reqLogger(h.log, r)
		start := time.Now()
		var req similarRequest
		if err := decodeJSON(r, &req); err != nil {
			fail(w, log, err)
			return
		}
		filter := strings.ToLower(strings.TrimSpace(req.FilterType))
		if filter == "" {
			filter = service.FilterAll
		}
		res, err := h.svc.FindSimilar(req.Description, toFloat(req.MinSimilarity, 0), filter)
		if err != nil {
			fail(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Success bool `json:"success"`
			model.SimilarResult
		}{true, res})
		log.Debug().Int("total", res.TotalFound).Dur("elapsed", time.Since(start)).Msg("find similar")
	}
}

func (h *Handler) Image() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := h.svc.FindImage(chi.URLParam(r, "type"), chi.URLParam(r, "artnr"))
		if err != nil {
			fail(w, reqLogger(h.log, r), err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		http.ServeFile(w, r, path)
	}
}
