package transform

import (
	"context"
	"strings"

	"github.com/clipperhouse/uax29/v2/words"
	"github.com/kljensen/snowball"

	apperrors "github.com/Adithya-Monish-Kumar-K/docalign/pkg/errors"
)

// UAX29 returns an in-process tokenizer that splits text on Unicode word
// boundaries and joins the non-space segments with single spaces.
func UAX29() Transform {
	return Func(func(_ context.Context, text string) (string, error) {
		toks := words.FromString(text)
		var b strings.Builder
		for toks.Next() {
			tok := toks.Value()
			if strings.TrimSpace(tok) == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(tok)
		}
		return b.String(), nil
	})
}

var snowballLanguages = map[string]string{
	"en": "english",
	"es": "spanish",
	"fr": "french",
	"ru": "russian",
	"sv": "swedish",
	"no": "norwegian",
	"nb": "norwegian",
	"hu": "hungarian",
}

// Snowball returns an in-process normalizer that replaces every
// whitespace-separated word with its Snowball stem. language is either a
// two-letter code or a Snowball language name.
func Snowball(language string) (Transform, error) {
	name := strings.ToLower(language)
	if full, ok := snowballLanguages[name]; ok {
		name = full
	}
	supported := false
	for _, v := range snowballLanguages {
		if v == name {
			supported = true
			break
		}
	}
	if !supported {
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, "no snowball stemmer for %q", language)
	}
	return Func(func(_ context.Context, text string) (string, error) {
		fields := strings.Fields(text)
		for i, f := range fields {
			stemmed, err := snowball.Stem(f, name, true)
			if err != nil {
				return "", apperrors.Newf(apperrors.ErrTransformFailed, "snowball %s: %v", name, err)
			}
			if stemmed != "" {
				fields[i] = stemmed
			}
		}
		return strings.Join(fields, " "), nil
	}), nil
}
