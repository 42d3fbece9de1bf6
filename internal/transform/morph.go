package transform

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/docalign/pkg/errors"
)

var (
	// "/lemma<tags>...$" and "<tags>$" tails of an analysed unit.
	analysisTail = regexp.MustCompile(`[/<][^$]*\$`)
	// "^" unit openers, with the "*" that marks unknown words.
	unitOpener = regexp.MustCompile(`\^\*?`)
)

// StripAnalysis reduces morphological analyser output in the
// "^surface/lemma<tag>$" stream format to plain surface forms.
func StripAnalysis(analysed string) string {
	return unitOpener.ReplaceAllString(analysisTail.ReplaceAllString(analysed, ""), "")
}

// Fallback reasons reported to OnFallback.
const (
	FallbackDiagnostics = "diagnostics"
	FallbackFailed      = "failed"
)

// Morphological wraps an analyser so that normalization never fails a run:
// when the analyser writes diagnostics or errors, the original text is kept.
type Morphological struct {
	Analyser   Transform
	OnFallback func(reason string)
	Logger     *slog.Logger
}

func NewMorphological(analyser Transform, logger *slog.Logger) *Morphological {
	return &Morphological{Analyser: analyser, Logger: logger}
}

func (m *Morphological) Apply(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	out, err := m.Analyser.Apply(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		reason := FallbackFailed
		if apperrors.Is(err, apperrors.ErrDiagnostics) {
			reason = FallbackDiagnostics
		}
		if m.Logger != nil {
			m.Logger.Debug("keeping original text", "reason", reason, "error", err)
		}
		if m.OnFallback != nil {
			m.OnFallback(reason)
		}
		return text, nil
	}
	return StripAnalysis(out), nil
}
