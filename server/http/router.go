package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"xref-service/internal/config"
	"xref-service/internal/middleware"
	xrefHnd "xref-service/internal/xref/handler"
	"xref-service/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger, h *xrefHnd.Handler, p handlers.Portfolio) *chi.Mux {
	r := chi.NewRouter()

	// order matters: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(cfg.MaxUploadBytes()))

	r.Get("/health", handlers.Health(p))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health(p))
		r.Get("/stats", h.Stats())

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.SearchPerMinute, cfg.TrustProxy, logger))
			r.Post("/search", h.Search())
			r.Post("/convert", h.Convert())
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.BatchPerMinute, cfg.TrustProxy, logger))
			r.Post("/batch-convert", h.BatchConvert())
			r.Post("/batch/upload", h.BatchUpload())
		})
		r.Get("/batch/{id}/export", h.BatchExport())

		r.Post("/validate-number", h.ValidateNumber())
		r.Post("/update-entry", h.UpdateEntry())
		r.Post("/create-entry", h.CreateEntry())
		r.Post("/delete-entry", h.DeleteEntry())
		r.Post("/undo", h.Undo())
		r.Post("/clean-duplicates", h.CleanDuplicates())

		r.Get("/scan-catalogs", h.ScanCatalogs())
		r.Post("/load-catalog", h.LoadCatalog())
		r.Post("/find-similar", h.FindSimilar())
		r.Get("/image/{type}/{artnr}", h.Image())
	})

	return r
}
