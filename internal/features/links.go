package features

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/Adithya-Monish-Kumar-K/docalign/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/docalign/pkg/errors"
)

// LinkSet is the set of distinct hyperlink targets of one document.
type LinkSet map[string]struct{}

func NewLinkSet(links ...string) LinkSet {
	s := make(LinkSet, len(links))
	for _, l := range links {
		s[l] = struct{}{}
	}
	return s
}

// LinkExtractor returns the hyperlink targets of a markup document in the
// order they appear.
type LinkExtractor interface {
	Extract(markup string) []string
}

// NewLinkExtractor returns the extractor registered under name.
func NewLinkExtractor(name string) (LinkExtractor, error) {
	switch name {
	case config.ExtractorRegex, "":
		return RegexLinkExtractor{}, nil
	case config.ExtractorHTML:
		return HTMLLinkExtractor{}, nil
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, "unknown link extractor %q", name)
	}
}

var hrefPattern = regexp.MustCompile(`(?is)href\s*=\s*['"]\s*([^'"]+)['"]`)

// RegexLinkExtractor scans for href="..." and href='...' anywhere in the
// text, tolerating case and spacing differences and broken markup.
type RegexLinkExtractor struct{}

func (RegexLinkExtractor) Extract(markup string) []string {
	matches := hrefPattern.FindAllStringSubmatch(markup, -1)
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		links = append(links, m[1])
	}
	return links
}

// HTMLLinkExtractor tokenizes the markup and reads the href attribute of
// every start tag. Entities in attribute values are decoded.
type HTMLLinkExtractor struct{}

func (HTMLLinkExtractor) Extract(markup string) []string {
	var links []string
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; either way the scan is over.
			return links
		case html.StartTagToken, html.SelfClosingTagToken:
			_, hasAttr := z.TagName()
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) != "href" {
					continue
				}
				if v := strings.TrimSpace(string(val)); v != "" {
					links = append(links, v)
				}
			}
		}
	}
}
