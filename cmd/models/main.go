package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"

	"livedetect/internal/config"
	"livedetect/internal/logger"
	"livedetect/internal/service/modelstore"
)

func main() {
	cfg := config.Load()
	all := flag.Bool("all", false, "Fetch every variant")
	list := flag.Bool("list", false, "Only list variants and whether they are cached")
	parallel := flag.Int("parallel", 2, "Concurrent downloads")
	flag.Parse()

	appLogger := logger.NewLogger(cfg)
	defer appLogger.Close()

	store := modelstore.NewStore(cfg.ModelDirectory, cfg.ModelBaseURL, cfg.DownloadTimeout, appLogger)

	if *list {
		for _, m := range store.List() {
			state := "missing"
			if m.Cached {
				state = fmt.Sprintf("cached (%d bytes)", m.Size)
			}
			fmt.Printf("%-8s %s\n", m.Name, state)
		}
		return
	}

	variants := flag.Args()
	if *all {
		variants = modelstore.Variants
	}
	if len(variants) == 0 {
		variants = []string{cfg.DefaultModel}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(*parallel)
	for _, v := range variants {
		v := v
		g.Go(func() error {
			path, err := store.Ensure(ctx, v)
			if err != nil {
				return fmt.Errorf("%s: %w", v, err)
			}
			fmt.Printf("%s -> %s\n", v, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("Failed to fetch models: %v", err)
	}
}
