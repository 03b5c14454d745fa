package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"

	"livedetect/internal/config"
	"livedetect/internal/logger"
	"livedetect/internal/repository/sqlite"
)

func main() {
	cfg := config.Load()
	dbPath := flag.String("db", cfg.DatabasePath, "Database path")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: migrate [-db path] up|down|status|version\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	appLogger := logger.NewLogger(cfg)
	defer appLogger.Close()
	goose.SetLogger(appLogger)

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	switch command {
	case "up":
		err = db.Migrate()
	case "down":
		err = db.MigrateDown()
	case "status":
		err = db.MigrationStatus()
	case "version":
		var version int64
		if version, err = db.Version(); err == nil {
			fmt.Printf("Schema version: %d\n", version)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", command, err)
	}

	if command != "up" {
		return
	}
	stats, err := sqlite.NewScreenshotRepository(db).GetStats()
	if err != nil {
		return
	}
	fmt.Printf("\nDatabase Statistics:\n")
	fmt.Printf("   Total screenshots: %d\n", stats.TotalScreenshots)
	fmt.Printf("   Total size: %d bytes\n", stats.TotalSizeBytes)
	for model, count := range stats.PerModel {
		fmt.Printf("      - %s: %d screenshots\n", model, count)
	}
}
