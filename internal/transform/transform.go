// Package transform provides the synchronous text-in/text-out steps applied
// to documents before indexing: word tokenizers and morphological
// normalizers. A step is either an external process fed through stdin or an
// in-process implementation.
package transform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apperrors "github.com/Adithya-Monish-Kumar-K/docalign/pkg/errors"
)

// Transform turns one document's text into another text. Calls block until
// the result is available.
type Transform interface {
	Apply(ctx context.Context, text string) (string, error)
}

// Func adapts a function to Transform.
type Func func(ctx context.Context, text string) (string, error)

func (f Func) Apply(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// Identity returns the text unchanged.
var Identity Transform = Func(func(_ context.Context, text string) (string, error) {
	return text, nil
})

const builtinPrefix = "builtin:"

// ParseTokeniser builds a tokenizer from its configured form: either
// "builtin:uax29" or a command line whose words become the process argv.
func ParseTokeniser(spec string, timeout time.Duration) (Transform, error) {
	spec = strings.TrimSpace(spec)
	if name, ok := strings.CutPrefix(spec, builtinPrefix); ok {
		if name != "uax29" {
			return nil, apperrors.Newf(apperrors.ErrInvalidConfig, "unknown builtin tokeniser %q", name)
		}
		return UAX29(), nil
	}
	args := strings.Fields(spec)
	if len(args) == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidConfig, "empty tokeniser command")
	}
	return NewCommand(args, timeout), nil
}

// ParseMorphAnalyser builds a normalizer from its configured form: either
// "builtin:snowball" (optionally ":<language>", defaulting to lang) or the
// path of a shell script run as "/bin/bash <path>". An empty spec yields nil.
func ParseMorphAnalyser(spec, lang string, timeout time.Duration) (Transform, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	if name, ok := strings.CutPrefix(spec, builtinPrefix); ok {
		kind, language, _ := strings.Cut(name, ":")
		if kind != "snowball" {
			return nil, apperrors.Newf(apperrors.ErrInvalidConfig, "unknown builtin analyser %q", name)
		}
		if language == "" {
			language = lang
		}
		return Snowball(language)
	}
	return NewCommand([]string{"/bin/bash", spec}, timeout), nil
}

// Timed records the latency of every call to t on observer.
func Timed(t Transform, observer prometheus.Observer) Transform {
	return Func(func(ctx context.Context, text string) (string, error) {
		start := time.Now()
		out, err := t.Apply(ctx, text)
		observer.Observe(time.Since(start).Seconds())
		return out, err
	})
}

func describe(args []string) string {
	return fmt.Sprintf("%q", strings.Join(args, " "))
}
