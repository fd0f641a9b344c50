package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"xref-service/internal/config"
	"xref-service/internal/xref/handler"
	"xref-service/internal/xref/service"
	"xref-service/internal/xref/store"
	serverhttp "xref-service/server/http"
)

func main() {
	cfg := config.Load()
	logger := config.SetupLogger(cfg)

	st, err := store.Open(cfg.DataFile, store.Options{
		BackupDir:       cfg.BackupDir,
		BackupRetention: cfg.BackupRetention,
		UndoWindow:      cfg.UndoWindow,
		LockTimeout:     cfg.LockTimeout,
		Logger:          logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("file", cfg.DataFile).Msg("load portfolio")
	}
	svc := service.New(st, service.Options{
		CatalogDir: cfg.CatalogDir,
		Links:      service.NewLinkChecker(cfg.LinkCheckTimeout),
		Logger:     logger,
	})

	r := serverhttp.NewRouter(cfg, logger, handler.New(svc, cfg, logger), st)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info().Str("addr", cfg.Addr()).Str("portfolio", st.Path()).Int("rows", st.Len()).Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info().Msg("bye")
}
