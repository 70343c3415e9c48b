// Package config resolves command-line flags, with optional JSON
// file-based defaults, into the two binaries' runtime configuration.
package config

import (
	"flag"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tkanos/gonfig"
)

// PipelineConfig configures cmd/feedpipe.
type PipelineConfig struct {
	Input              string `json:"input"`
	Symbols            string `json:"symbols"`
	PublishTopOfBookUs int64  `json:"publish_top_of_book_us"`
	Verbose            bool   `json:"verbose"`
	KafkaBrokers       string `json:"kafka_brokers"`
	KafkaTopic         string `json:"kafka_topic"`
}

// SymbolList splits the comma-separated Symbols flag into trimmed,
// non-empty entries.
func (c PipelineConfig) SymbolList() []string { return splitCSV(c.Symbols) }

// KafkaBrokerList splits the comma-separated KafkaBrokers flag.
func (c PipelineConfig) KafkaBrokerList() []string { return splitCSV(c.KafkaBrokers) }

// BroadcastEnabled reports whether enough Kafka configuration was
// supplied to start the optional broadcast sink.
func (c PipelineConfig) BroadcastEnabled() bool {
	return len(c.KafkaBrokerList()) > 0 && c.KafkaTopic != ""
}

// ConfigurationError marks a fatal, pre-pipeline-start configuration
// failure: a missing required flag or an unreadable/malformed
// --config file.
type ConfigurationError struct {
	msg string
	err error
}

func (e *ConfigurationError) Error() string {
	if e.err != nil {
		return errors.Wrap(e.err, e.msg).Error()
	}
	return e.msg
}

func (e *ConfigurationError) Unwrap() error { return e.err }

// ParsePipelineConfig parses args (normally os.Args[1:]) into a
// PipelineConfig. If --config names a readable JSON file, its values
// seed the defaults before flags are re-applied, so an explicit flag
// always overrides the file.
func ParsePipelineConfig(args []string) (PipelineConfig, error) {
	fs := flag.NewFlagSet("feedpipe", flag.ContinueOnError)

	var (
		configPath = fs.String("config", "", "optional JSON file of defaults")
		input      = fs.String("input", "", "path to the binary feed file (required)")
		symbols    = fs.String("symbols", "", "comma-separated list of symbols to track (required)")
		publishUs  = fs.Int64("publish-top-of-book-us", 1000, "minimum microseconds between top-of-book publications per symbol")
		verbose    = fs.Bool("verbose", false, "raise log level to debug")
		brokers    = fs.String("kafka-brokers", "", "comma-separated Kafka broker addresses for the optional broadcast sink")
		topic      = fs.String("kafka-topic", "", "Kafka topic for the optional broadcast sink")
	)

	if err := fs.Parse(args); err != nil {
		return PipelineConfig{}, err
	}

	cfg := PipelineConfig{PublishTopOfBookUs: 1000}
	if *configPath != "" {
		if err := gonfig.GetConf(*configPath, &cfg); err != nil {
			return PipelineConfig{}, &ConfigurationError{msg: fmt.Sprintf("reading config file %q", *configPath), err: err}
		}
	}

	applyIfSet(fs, "input", input, &cfg.Input)
	applyIfSet(fs, "symbols", symbols, &cfg.Symbols)
	if isFlagPassed(fs, "publish-top-of-book-us") || cfg.PublishTopOfBookUs == 0 {
		cfg.PublishTopOfBookUs = *publishUs
	}
	if isFlagPassed(fs, "verbose") {
		cfg.Verbose = *verbose
	}
	applyIfSet(fs, "kafka-brokers", brokers, &cfg.KafkaBrokers)
	applyIfSet(fs, "kafka-topic", topic, &cfg.KafkaTopic)

	if cfg.Input == "" {
		return PipelineConfig{}, &ConfigurationError{msg: "missing required --input"}
	}
	if cfg.Symbols == "" {
		return PipelineConfig{}, &ConfigurationError{msg: "missing required --symbols"}
	}
	return cfg, nil
}

// GeneratorConfig configures cmd/feedgen.
type GeneratorConfig struct {
	Messages int64  `json:"messages"`
	Symbols  string `json:"symbols"`
	Output   string `json:"output"`
	Seed     int64  `json:"seed"`
}

// SymbolList splits the comma-separated Symbols flag.
func (c GeneratorConfig) SymbolList() []string { return splitCSV(c.Symbols) }

// ParseGeneratorConfig parses args into a GeneratorConfig.
func ParseGeneratorConfig(args []string) (GeneratorConfig, error) {
	fs := flag.NewFlagSet("feedgen", flag.ContinueOnError)

	messages := fs.Int64("messages", 1_000_000, "number of messages to generate")
	symbols := fs.String("symbols", "AAPL,MSFT", "comma-separated list of symbols to generate across")
	output := fs.String("output", "data/sim.bin", "output path for the generated binary feed")
	seed := fs.Int64("seed", 1, "seed for deterministic pseudo-random generation")

	if err := fs.Parse(args); err != nil {
		return GeneratorConfig{}, err
	}

	return GeneratorConfig{
		Messages: *messages,
		Symbols:  *symbols,
		Output:   *output,
		Seed:     *seed,
	}, nil
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isFlagPassed(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func applyIfSet(fs *flag.FlagSet, name string, val *string, dst *string) {
	if val == nil || dst == nil {
		return
	}
	if isFlagPassed(fs, name) || *dst == "" {
		*dst = *val
	}
}
