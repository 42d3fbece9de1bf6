// Command buildidx builds the per-language inverted index of a crawled
// website's documents.
//
// It reads two parallel files, one base64-encoded document text per line and
// one language code per line, tokenizes (and optionally morphologically
// normalizes) every document in one of the two configured languages and
// writes one line per surviving (language, word) pair:
//
//	language TAB word TAB firstDocID[:gap]*
//
// Usage:
//
//	buildidx --text text.xz --lang lang.xz --lang1 en --lang2 fr \
//	    --wordtokeniser1 "tokenise.sh en" --wordtokeniser2 builtin:uax29 [-m 15] [-o out.idx.gz]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/Adithya-Monish-Kumar-K/docalign/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docalign/internal/stream"
	"github.com/Adithya-Monish-Kumar-K/docalign/internal/transform"
	"github.com/Adithya-Monish-Kumar-K/docalign/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/docalign/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docalign/pkg/fileio"
	"github.com/Adithya-Monish-Kumar-K/docalign/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docalign/pkg/metrics"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "buildidx: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(args []string) error {
	flagSet := pflag.NewFlagSet("buildidx", pflag.ContinueOnError)
	configPath := flagSet.String("config", "", "path to YAML config file")
	textFile := flagSet.String("text", "", "file with one base64-encoded document text per line")
	langFile := flagSet.String("lang", "", "file with one language code per line, aligned with --text")
	output := flagSet.StringP("output", "o", "-", "postings output file (compressed by extension, - for stdout)")
	maxOcc := flagSet.IntP("max-occ", "m", -1, "maximum number of documents a word may occur in to be kept (-1 keeps all)")
	morphSL := flagSet.String("morphanalyser_sl", "", "morphological analyser script for lang1, or builtin:snowball")
	morphTL := flagSet.String("morphanalyser_tl", "", "morphological analyser script for lang2, or builtin:snowball")
	lang1 := flagSet.String("lang1", "", "two-letter code of the first language")
	lang2 := flagSet.String("lang2", "", "two-letter code of the second language")
	tok1 := flagSet.String("wordtokeniser1", "", "word tokeniser command for lang1, or builtin:uax29")
	tok2 := flagSet.String("wordtokeniser2", "", "word tokeniser command for lang2, or builtin:uax29")
	encoding := flagSet.String("text-encoding", config.EncodingBase64, "encoding of the text file: base64 or plain")
	timeout := flagSet.Duration("transform-timeout", 0, "deadline for each tokeniser or analyser call (0 waits forever)")
	metricsFile := flagSet.String("metrics-textfile", "", "write Prometheus metrics to this file on exit")
	metricsPort := flagSet.Int("metrics-port", 0, "serve Prometheus metrics on this port while running")
	logLevel := flagSet.String("log-level", "", "log level: debug, info, warn, error")
	logFormat := flagSet.String("log-format", "", "log format: text or json")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return err
		}
		return apperrors.New(apperrors.ErrInvalidConfig, err.Error())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return apperrors.New(apperrors.ErrInvalidConfig, err.Error())
	}
	ic := &cfg.Index
	overrideString(flagSet, "text", &ic.TextFile, *textFile)
	overrideString(flagSet, "lang", &ic.LangFile, *langFile)
	overrideString(flagSet, "output", &ic.Output, *output)
	overrideString(flagSet, "morphanalyser_sl", &ic.MorphAnalyserSL, *morphSL)
	overrideString(flagSet, "morphanalyser_tl", &ic.MorphAnalyserTL, *morphTL)
	overrideString(flagSet, "lang1", &ic.Lang1, *lang1)
	overrideString(flagSet, "lang2", &ic.Lang2, *lang2)
	overrideString(flagSet, "wordtokeniser1", &ic.WordTokeniser1, *tok1)
	overrideString(flagSet, "wordtokeniser2", &ic.WordTokeniser2, *tok2)
	overrideString(flagSet, "text-encoding", &ic.TextEncoding, *encoding)
	overrideString(flagSet, "metrics-textfile", &cfg.Metrics.Textfile, *metricsFile)
	overrideString(flagSet, "log-level", &cfg.Logging.Level, *logLevel)
	overrideString(flagSet, "log-format", &cfg.Logging.Format, *logFormat)
	if flagSet.Changed("max-occ") {
		ic.MaxOccurrences = *maxOcc
	}
	if flagSet.Changed("transform-timeout") {
		ic.TransformTimeout = *timeout
	}
	if flagSet.Changed("metrics-port") {
		cfg.Metrics.Port = *metricsPort
	}
	if err := ic.Validate(); err != nil {
		return err
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	shutdown := m.StartServer(cfg.Metrics.Port)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}()

	if err := buildIndex(ctx, *ic, m); err != nil {
		return err
	}
	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

func buildIndex(ctx context.Context, ic config.IndexConfig, m *metrics.Metrics) error {
	opts, err := engineOptions(ic)
	if err != nil {
		return err
	}
	engine, err := indexer.NewEngine(opts, m)
	if err != nil {
		return err
	}

	texts, err := fileio.Open(ic.TextFile)
	if err != nil {
		return apperrors.New(apperrors.ErrInvalidInput, err.Error())
	}
	defer texts.Close()
	langs, err := fileio.Open(ic.LangFile)
	if err != nil {
		return apperrors.New(apperrors.ErrInvalidInput, err.Error())
	}
	defer langs.Close()

	slog.Info("building index",
		"lang1", ic.Lang1,
		"lang2", ic.Lang2,
		"max_occurrences", ic.MaxOccurrences,
	)
	start := time.Now()
	textStream := stream.Map[string, string](stream.NewLines(texts), indexer.DecodeText(ic.TextEncoding))
	if err := engine.Build(ctx, textStream, stream.NewLines(langs)); err != nil {
		return err
	}

	out, err := fileio.Create(ic.Output)
	if err != nil {
		return err
	}
	if err := engine.Flush(out); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", ic.Output, err)
	}
	slog.Info("index built", "docs", engine.DocCount(), "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func engineOptions(ic config.IndexConfig) (indexer.Options, error) {
	opts := indexer.Options{
		Lang1:          ic.Lang1,
		Lang2:          ic.Lang2,
		MaxOccurrences: ic.MaxOccurrences,
	}
	var err error
	if opts.Tokenizer1, err = transform.ParseTokeniser(ic.WordTokeniser1, ic.TransformTimeout); err != nil {
		return opts, err
	}
	if opts.Tokenizer2, err = transform.ParseTokeniser(ic.WordTokeniser2, ic.TransformTimeout); err != nil {
		return opts, err
	}
	if opts.Normalizer1, err = transform.ParseMorphAnalyser(ic.MorphAnalyserSL, ic.Lang1, ic.TransformTimeout); err != nil {
		return opts, err
	}
	if opts.Normalizer2, err = transform.ParseMorphAnalyser(ic.MorphAnalyserTL, ic.Lang2, ic.TransformTimeout); err != nil {
		return opts, err
	}
	return opts, nil
}

func overrideString(flagSet *pflag.FlagSet, name string, dst *string, value string) {
	if flagSet.Changed(name) {
		*dst = value
	}
}
