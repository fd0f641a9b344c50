package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"xref-service/internal/fileio"
	"xref-service/internal/middleware"
	"xref-service/internal/tabular"
	"xref-service/internal/utils"
	"xref-service/internal/xref/service"
	"xref-service/internal/xref/store"
)

// reqLogger binds the request id to the logger.
func reqLogger(logger zerolog.Logger, r *http.Request) zerolog.Logger {
	if rid := middleware.GetRequestID(r); rid != "" {
		return logger.With().Str("rid", rid).Logger()
	}
	return logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps err to a status and German message; unexpected errors are logged.
func fail(w http.ResponseWriter, log zerolog.Logger, err error) {
	status, msg := classify(err)
	if status >= 500 {
		log.Error().Err(err).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeError(w, status, msg)
}

func classify(err error) (int, string) {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge, fmt.Sprintf("Datei zu groß (max. %d MB)", tooBig.Limit>>20)
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), errBadRequest.Error()+": ")
	case errors.Is(err, errSessionNotFound):
		return http.StatusNotFound, "Sitzung abgelaufen oder unbekannt"

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Eintrag nicht gefunden"
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict, "Syskomp-Nummer existiert bereits"
	case errors.Is(err, store.ErrAlreadyMapped):
		return http.StatusConflict, "Nummer ist bereits zugeordnet"
	case errors.Is(err, store.ErrLocked):
		return http.StatusLocked, "Datei wird gerade bearbeitet, bitte erneut versuchen"
	case errors.Is(err, store.ErrNothingToUndo):
		return http.StatusBadRequest, "Keine Aktion zum Rückgängigmachen (max. 3 Minuten)"
	case errors.Is(err, store.ErrEmptyKey):
		return http.StatusBadRequest, "Syskomp neu erforderlich"

	case errors.Is(err, tabular.ErrColumnOutOfRange):
		return http.StatusBadRequest, "Ungültige Spalte (A-Z)"
	case errors.Is(err, tabular.ErrOutcomeCount), errors.Is(err, tabular.ErrHeaderDrift):
		return http.StatusConflict, "Tabelle passt nicht mehr zum Ergebnis"

	case errors.Is(err, fileio.ErrUnsupportedFile):
		return http.StatusUnsupportedMediaType, "Nicht unterstützter Dateityp (CSV, XLSX, XLS)"
	case errors.Is(err, fileio.ErrContentMismatch):
		return http.StatusUnsupportedMediaType, "Dateiinhalt passt nicht zur Dateiendung"

	case errors.Is(err, service.ErrImageNotFound), errors.Is(err, service.ErrCatalogNotFound):
		msg, _ := service.Message(err)
		return http.StatusNotFound, msg
	}
	if msg, ok := service.Message(err); ok {
		return http.StatusBadRequest, msg
	}
	return http.StatusInternalServerError, "Interner Serverfehler"
}

var errBadRequest = errors.New("bad request")

func badRequest(msg string) error { return fmt.Errorf("%w: %s", errBadRequest, msg) }

// decodeJSON reads a JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return badRequest("Leere Anfrage")
		}
		return badRequest("Ungültiges JSON")
	}
	return nil
}

func toFloat(v any, def float64) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		p, ok := utils.ParseDecimal(x)
		if !ok {
			return def
		}
		f = p
	default:
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}
