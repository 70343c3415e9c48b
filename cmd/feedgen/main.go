// Command feedgen writes a synthetic binary market-data feed file for
// benchmarking and manual testing of feedpipe.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"marketfeed/internal/config"
	"marketfeed/internal/genfeed"
	"marketfeed/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.ParseGeneratorConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log, err := telemetry.NewLogger(false)
	if err != nil {
		fmt.Fprintln(os.Stderr, "feedgen: logger init failed:", err)
		return 1
	}
	defer log.Sync()

	if dir := filepath.Dir(cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("failed to create output directory", zap.Error(err))
			return 1
		}
	}

	f, err := os.Create(cfg.Output)
	if err != nil {
		log.Error("failed to create output file", zap.Error(err))
		return 1
	}
	defer f.Close()

	log.Info("feedgen starting",
		zap.Int64("messages", cfg.Messages),
		zap.Strings("symbols", cfg.SymbolList()),
		zap.String("output", cfg.Output),
		zap.Int64("seed", cfg.Seed),
	)

	g := genfeed.New(cfg.SymbolList(), cfg.Seed)
	n, err := g.WriteTo(f, cfg.Messages)
	if err != nil {
		log.Error("failed to write feed", zap.Error(err))
		return 1
	}

	log.Info("feedgen finished", zap.Int64("bytes_written", n))
	return 0
}
