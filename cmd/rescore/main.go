// Command rescore appends a similarity score to every candidate pair of a
// ridx file.
//
// Usage:
//
//	rescore [ridx] --metric url-distance --url urls.xz [-o out.ridx]
//	rescore [ridx] --metric url-distance --lett site.lett
//	rescore [ridx] --metric link-distance --html html.xz [--url urls.xz]
//	rescore [ridx] --metric link-overlap --html html.xz
//
// With no ridx argument, or "-", candidates are read from stdin.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/Adithya-Monish-Kumar-K/docalign/internal/features"
	"github.com/Adithya-Monish-Kumar-K/docalign/internal/rescorer"
	"github.com/Adithya-Monish-Kumar-K/docalign/internal/rescorer/metric"
	"github.com/Adithya-Monish-Kumar-K/docalign/internal/stream"
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
		fmt.Fprintf(os.Stderr, "rescore: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(args []string) error {
	flagSet := pflag.NewFlagSet("rescore", pflag.ContinueOnError)
	configPath := flagSet.String("config", "", "path to YAML config file")
	metricName := flagSet.String("metric", config.MetricURLDistance, "url-distance, link-distance or link-overlap")
	urlFile := flagSet.String("url", "", "file with one URL per line, aligned with the document ids")
	htmlFile := flagSet.String("html", "", "file with one base64-encoded document markup per line")
	lettFile := flagSet.String("lett", "", "legacy lett file used as the URL source")
	strip := flagSet.Bool("strip-authority", true, "remove the scheme and host from URL features and each document's own authority from its link string")
	extractor := flagSet.String("link-extractor", config.ExtractorRegex, "link extractor: regex or html")
	output := flagSet.StringP("output", "o", "-", "output file (compressed by extension, - for stdout)")
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
	if flagSet.NArg() > 1 {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "expected at most one ridx file, got %d", flagSet.NArg())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return apperrors.New(apperrors.ErrInvalidConfig, err.Error())
	}
	rc := &cfg.Rescore
	if flagSet.NArg() == 1 {
		rc.Input = flagSet.Arg(0)
	}
	overrideString(flagSet, "metric", &rc.Metric, *metricName)
	overrideString(flagSet, "url", &rc.URLFile, *urlFile)
	overrideString(flagSet, "html", &rc.HTMLFile, *htmlFile)
	overrideString(flagSet, "lett", &rc.LettFile, *lettFile)
	overrideString(flagSet, "link-extractor", &rc.LinkExtractor, *extractor)
	overrideString(flagSet, "output", &rc.Output, *output)
	overrideString(flagSet, "metrics-textfile", &cfg.Metrics.Textfile, *metricsFile)
	overrideString(flagSet, "log-level", &cfg.Logging.Level, *logLevel)
	overrideString(flagSet, "log-format", &cfg.Logging.Format, *logFormat)
	if flagSet.Changed("strip-authority") {
		rc.StripAuthority = *strip
	}
	if flagSet.Changed("metrics-port") {
		cfg.Metrics.Port = *metricsPort
	}
	if err := rc.Validate(); err != nil {
		return err
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	m := metrics.New()
	shutdown := m.StartServer(cfg.Metrics.Port)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}()

	if err := rescore(*rc, m); err != nil {
		return err
	}
	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

func rescore(rc config.RescoreConfig, m *metrics.Metrics) error {
	extractor, err := features.NewLinkExtractor(rc.LinkExtractor)
	if err != nil {
		return err
	}
	loader := features.NewLoader(extractor, rc.StripAuthority, m)

	start := time.Now()
	var runner interface {
		Run(stream.Stream[string], io.Writer) error
	}
	switch rc.Metric {
	case config.MetricURLDistance:
		table, err := loadURLTable(loader, rc)
		if err != nil {
			return err
		}
		runner = rescorer.New(rc.Metric, table, metric.EditDistance, m)
	case config.MetricLinkDistance:
		table, err := loadLinkStrings(loader, rc)
		if err != nil {
			return err
		}
		runner = rescorer.New(rc.Metric, table, metric.EditDistance, m)
	case config.MetricLinkOverlap:
		var table *features.Table[features.LinkSet]
		err := withLines(rc.HTMLFile, func(markup stream.Stream[string]) error {
			var err error
			table, err = loader.LinkSets(markup)
			return err
		})
		if err != nil {
			return err
		}
		runner = rescorer.New(rc.Metric, table, metric.Jaccard, m)
	default:
		return apperrors.Newf(apperrors.ErrInvalidConfig, "unknown metric %q", rc.Metric)
	}
	slog.Info("features loaded", "metric", rc.Metric, "elapsed", time.Since(start).Round(time.Millisecond))

	out, err := fileio.Create(rc.Output)
	if err != nil {
		return err
	}
	err = withLines(rc.Input, func(lines stream.Stream[string]) error {
		return runner.Run(lines, out)
	})
	if err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", rc.Output, err)
	}
	return nil
}

func loadURLTable(loader *features.Loader, rc config.RescoreConfig) (*features.Table[string], error) {
	var table *features.Table[string]
	if rc.LettFile != "" {
		err := withLines(rc.LettFile, func(lines stream.Stream[string]) error {
			var err error
			table, err = loader.Lett(lines)
			return err
		})
		return table, err
	}
	err := withLines(rc.URLFile, func(lines stream.Stream[string]) error {
		var err error
		table, err = loader.URLs(lines)
		return err
	})
	return table, err
}

func loadLinkStrings(loader *features.Loader, rc config.RescoreConfig) (*features.Table[string], error) {
	var table *features.Table[string]
	err := withLines(rc.HTMLFile, func(markup stream.Stream[string]) error {
		if rc.URLFile == "" {
			var err error
			table, err = loader.LinkStrings(markup, nil)
			return err
		}
		return withLines(rc.URLFile, func(urls stream.Stream[string]) error {
			var err error
			table, err = loader.LinkStrings(markup, urls)
			return err
		})
	})
	return table, err
}

// withLines opens path, decompressing as needed, and hands its lines to fn.
func withLines(path string, fn func(stream.Stream[string]) error) error {
	f, err := fileio.Open(path)
	if err != nil {
		return apperrors.New(apperrors.ErrInvalidInput, err.Error())
	}
	defer f.Close()
	return fn(stream.NewLines(f))
}

func overrideString(flagSet *pflag.FlagSet, name string, dst *string, value string) {
	if flagSet.Changed(name) {
		*dst = value
	}
}
