// Package config loads and validates configuration for the index builder and
// the candidate rescorer from YAML files with environment-variable overrides.
// Command-line flags are applied on top by the commands themselves.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/docalign/pkg/errors"
)

// Config is the top-level configuration.
type Config struct {
	Index   IndexConfig   `yaml:"index"`
	Rescore RescoreConfig `yaml:"rescore"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// IndexConfig controls the inverted index builder.
type IndexConfig struct {
	TextFile         string        `yaml:"textFile"`
	LangFile         string        `yaml:"langFile"`
	Output           string        `yaml:"output"`
	Lang1            string        `yaml:"lang1"`
	Lang2            string        `yaml:"lang2"`
	MaxOccurrences   int           `yaml:"maxOccurrences"`
	MorphAnalyserSL  string        `yaml:"morphAnalyserSL"`
	MorphAnalyserTL  string        `yaml:"morphAnalyserTL"`
	WordTokeniser1   string        `yaml:"wordTokeniser1"`
	WordTokeniser2   string        `yaml:"wordTokeniser2"`
	TextEncoding     string        `yaml:"textEncoding"`
	TransformTimeout time.Duration `yaml:"transformTimeout"`
}

// RescoreConfig selects the similarity metric and its feature sources.
type RescoreConfig struct {
	Input          string `yaml:"input"`
	Output         string `yaml:"output"`
	Metric         string `yaml:"metric"`
	URLFile        string `yaml:"urlFile"`
	HTMLFile       string `yaml:"htmlFile"`
	LettFile       string `yaml:"lettFile"`
	StripAuthority bool   `yaml:"stripAuthority"`
	LinkExtractor  string `yaml:"linkExtractor"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls where run metrics are exported.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
	Port     int    `yaml:"port"`
}

// Text payload encodings.
const (
	EncodingBase64 = "base64"
	EncodingPlain  = "plain"
)

// Metric names accepted by the rescorer.
const (
	MetricURLDistance  = "url-distance"
	MetricLinkDistance = "link-distance"
	MetricLinkOverlap  = "link-overlap"
)

// Link extraction strategies.
const (
	ExtractorRegex = "regex"
	ExtractorHTML  = "html"
)

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Output:         "-",
			MaxOccurrences: -1,
			TextEncoding:   EncodingBase64,
		},
		Rescore: RescoreConfig{
			Input:          "-",
			Output:         "-",
			Metric:         MetricURLDistance,
			StripAuthority: true,
			LinkExtractor:  ExtractorRegex,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// applyEnvOverrides reads DA_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DA_INDEX_LANG1"); v != "" {
		cfg.Index.Lang1 = v
	}
	if v := os.Getenv("DA_INDEX_LANG2"); v != "" {
		cfg.Index.Lang2 = v
	}
	if v := os.Getenv("DA_INDEX_MAX_OCCURRENCES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.MaxOccurrences = n
		}
	}
	if v := os.Getenv("DA_INDEX_WORD_TOKENISER1"); v != "" {
		cfg.Index.WordTokeniser1 = v
	}
	if v := os.Getenv("DA_INDEX_WORD_TOKENISER2"); v != "" {
		cfg.Index.WordTokeniser2 = v
	}
	if v := os.Getenv("DA_INDEX_MORPH_ANALYSER_SL"); v != "" {
		cfg.Index.MorphAnalyserSL = v
	}
	if v := os.Getenv("DA_INDEX_MORPH_ANALYSER_TL"); v != "" {
		cfg.Index.MorphAnalyserTL = v
	}
	if v := os.Getenv("DA_INDEX_TRANSFORM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Index.TransformTimeout = d
		}
	}
	if v := os.Getenv("DA_RESCORE_METRIC"); v != "" {
		cfg.Rescore.Metric = v
	}
	if v := os.Getenv("DA_RESCORE_LINK_EXTRACTOR"); v != "" {
		cfg.Rescore.LinkExtractor = v
	}
	if v := os.Getenv("DA_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DA_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("DA_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
	if v := os.Getenv("DA_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}

// Validate reports the first missing or unrecognised index option.
func (c IndexConfig) Validate() error {
	switch {
	case c.TextFile == "":
		return apperrors.New(apperrors.ErrInvalidConfig, "text file is required")
	case c.LangFile == "":
		return apperrors.New(apperrors.ErrInvalidConfig, "language file is required")
	case c.Lang1 == "" || c.Lang2 == "":
		return apperrors.New(apperrors.ErrInvalidConfig, "both lang1 and lang2 are required")
	case c.WordTokeniser1 == "" || c.WordTokeniser2 == "":
		return apperrors.New(apperrors.ErrInvalidConfig, "a word tokeniser is required for each language")
	}
	if c.TextEncoding != EncodingBase64 && c.TextEncoding != EncodingPlain {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "unknown text encoding %q", c.TextEncoding)
	}
	if c.TransformTimeout < 0 {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "negative transform timeout %s", c.TransformTimeout)
	}
	return nil
}

// Validate checks that the feature sources required by the selected metric
// are present.
func (c RescoreConfig) Validate() error {
	switch c.LinkExtractor {
	case ExtractorRegex, ExtractorHTML:
	default:
		return apperrors.Newf(apperrors.ErrInvalidConfig, "unknown link extractor %q", c.LinkExtractor)
	}
	switch c.Metric {
	case MetricURLDistance:
		if c.URLFile == "" && c.LettFile == "" {
			return apperrors.New(apperrors.ErrInvalidConfig, "url-distance needs a url file or a lett file")
		}
	case MetricLinkDistance, MetricLinkOverlap:
		if c.HTMLFile == "" {
			return apperrors.Newf(apperrors.ErrInvalidConfig, "%s needs an html file", c.Metric)
		}
	default:
		return apperrors.Newf(apperrors.ErrInvalidConfig, "unknown metric %q", c.Metric)
	}
	return nil
}
