package handlers

import (
	"encoding/json"
	"net/http"

	"xref-service/internal/xref/model"
)

// Portfolio is what the health check reports on.
type Portfolio interface {
	Len() int
	Indexed() int
	Header() []string
}

func Health(p Portfolio) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":        "ok",
			"rows_loaded":   p.Len(),
			"indexed_count": p.Indexed(),
			"columns":       model.Columns,
			"headers":       p.Header(),
		})
	}
}
