// Command feedpipe decodes a binary market-data feed, applies it to
// per-symbol order books, and publishes top-of-book snapshots as CSV
// on standard output.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"marketfeed/internal/broadcast"
	"marketfeed/internal/config"
	"marketfeed/internal/feed"
	"marketfeed/internal/pipeline"
	"marketfeed/internal/publish"
	"marketfeed/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.ParsePipelineConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log, err := telemetry.NewLogger(cfg.Verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "feedpipe: logger init failed:", err)
		return 1
	}
	defer log.Sync()

	dec, err := feed.NewDecoder(cfg.Input)
	if err != nil {
		log.Error("failed to open feed", zap.Error(err))
		return 1
	}
	defer dec.Close()

	pub := publish.New(os.Stdout)
	p := pipeline.New(dec, pub, cfg.SymbolList(), uint64(cfg.PublishTopOfBookUs), log)

	var sink *broadcast.Sink
	if cfg.BroadcastEnabled() {
		sink = broadcast.NewSink(cfg.KafkaBrokerList(), cfg.KafkaTopic, log)
		defer sink.Close()
		p.SetBroadcast(broadcastAdapter{sink})
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("shutdown signal received")
		p.Shutdown()
	}()

	log.Info("feedpipe starting",
		zap.String("input", cfg.Input),
		zap.Strings("symbols", cfg.SymbolList()),
		zap.Int64("publish_top_of_book_us", cfg.PublishTopOfBookUs),
	)

	p.Run()
	p.LogSummary()
	return 0
}

// broadcastAdapter adapts *broadcast.Sink to pipeline.BroadcastSink
// without making the pipeline package depend on Kafka directly.
type broadcastAdapter struct{ sink *broadcast.Sink }

func (a broadcastAdapter) Publish(row pipeline.BroadcastRow) {
	a.sink.Publish(broadcast.Row{
		TsUs:   row.TsUs,
		Symbol: row.Symbol,
		BidPx:  row.Tob.BestBidPx,
		BidSz:  row.Tob.BidSz,
		AskPx:  row.Tob.BestAskPx,
		AskSz:  row.Tob.AskSz,
	})
}
