package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"xref-service/internal/config"
	"xref-service/internal/xref/service"
	"xref-service/internal/xref/store"
)

var (
	dataFile   string
	catalogDir string
	verbose    bool

	cfg    config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:          "xrefctl",
	Short:        "Cross-reference Syskomp, Item, Bosch, Alvaris and ASK part numbers",
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&dataFile, "data", "", "portfolio CSV (default $DATA_FILE)")
	rootCmd.PersistentFlags().StringVar(&catalogDir, "catalogs", "", "catalog directory (default $CATALOG_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(dedupeCmd)
}

func initConfig() {
	cfg = config.Load()
	if dataFile == "" {
		dataFile = cfg.DataFile
	}
	if catalogDir == "" {
		catalogDir = cfg.CatalogDir
	}
	lvl := zerolog.WarnLevel
	if verbose {
		lvl = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).With().Timestamp().Logger()
}

func openService() (*service.Service, error) {
	st, err := store.Open(dataFile, store.Options{
		BackupDir:       cfg.BackupDir,
		BackupRetention: cfg.BackupRetention,
		UndoWindow:      cfg.UndoWindow,
		LockTimeout:     cfg.LockTimeout,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}
	return service.New(st, service.Options{CatalogDir: catalogDir, Logger: logger}), nil
}
