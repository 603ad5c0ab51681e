package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/username/cartera/backend/src/config"
	"github.com/username/cartera/backend/src/database"
	"github.com/username/cartera/backend/src/logger"
	"github.com/username/cartera/backend/src/parsers"
	"github.com/username/cartera/backend/src/parsers/caixabank"
	"github.com/username/cartera/backend/src/parsers/degiro"
	"github.com/username/cartera/backend/src/parsers/ibkr"
	"github.com/username/cartera/backend/src/services"
)

func newRegistry() *parsers.Registry {
	// Registration order is detection order for sniffing.
	return parsers.NewRegistry(
		degiro.NewParser(),
		ibkr.NewParser(),
		caixabank.NewParser(),
	)
}

func main() {
	var (
		brokerFlag = flag.String("broker", "", "explicit broker id (skips format sniffing)")
		userFlag   = flag.Int64("user", 1, "owner user id for the imported data")
		detectOnly = flag.Bool("detect", false, "only report format detection confidence, do not import")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <export-file>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Cartera import starting...", "file", path)

	payload, err := os.ReadFile(path)
	if err != nil {
		logger.L.Error("Failed to read input file", "path", path, "error", err)
		os.Exit(1)
	}

	if *detectOnly {
		matches := parsers.PreviewDetect(string(payload), filepath.Base(path))
		printJSON(matches)
		return
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	metadataService := services.NewMetadataService(services.MetadataOptions{
		BaseURL:      config.Cfg.MetadataBaseURL,
		BatchSize:    config.Cfg.MetadataBatchSize,
		RateLimit:    config.Cfg.MetadataRateLimit,
		RateWindow:   config.Cfg.MetadataRateWindow,
		Timeout:      config.Cfg.MetadataTimeout,
		MaxRetries:   config.Cfg.MetadataMaxRetries,
		Cooldown429:  config.Cfg.MetadataCooldown429,
		CacheExpiry:  config.Cfg.MetadataCacheExpiry,
		CacheCleanup: config.Cfg.MetadataCacheCleanup,
	})
	importService := services.NewImportService(newRegistry(), metadataService)

	outcome, err := importService.Import(context.Background(), services.ImportRequest{
		UserID:   *userFlag,
		Payload:  payload,
		Filename: filepath.Base(path),
		Broker:   *brokerFlag,
	})
	if err != nil {
		logger.L.Error("Import failed", "error", err)
		os.Exit(1)
	}

	printJSON(outcome)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.L.Error("Failed to encode output", "error", err)
		os.Exit(1)
	}
}
