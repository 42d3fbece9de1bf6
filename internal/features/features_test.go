package features

import (
	"encoding/base64"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docalign/internal/stream"
	apperrors "github.com/Adithya-Monish-Kumar-K/docalign/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docalign/pkg/metrics"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func newLoader(t *testing.T, extractor LinkExtractor, strip bool) (*Loader, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	return NewLoader(extractor, strip, m), m
}

func TestTable(t *testing.T) {
	table := NewTable[string]()
	table.Set(1, "/a")
	table.Set(3, "/c")
	table.Set(3, "/c2")
	assert.Equal(t, 2, table.Len())

	v, err := table.Lookup(3)
	require.NoError(t, err)
	assert.Equal(t, "/c2", v)

	for _, id := range []int{0, 2, 4, -1} {
		_, err := table.Lookup(id)
		assert.True(t, apperrors.Is(err, apperrors.ErrDocumentNotFound), "id %d", id)
	}
}

func TestStripAuthority(t *testing.T) {
	tests := []struct {
		url, s, want string
	}{
		{"http://example.com/en/page", "http://example.com/en/page", "/en/page"},
		{"https://example.com:8080/x", "https://example.com:8080/x", ":8080/x"},
		{"ftp://example.com/x", "ftp://example.com/x", "ftp://example.com/x"},
		{"http://a.org/", "http://a.org/x http://a.org/y", "/x /y"},
		{"/relative", "/relative", "/relative"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripAuthority(tt.url, tt.s), tt.url)
	}
}

func TestLoaderWithoutMetrics(t *testing.T) {
	l := NewLoader(RegexLinkExtractor{}, true, nil)
	table, err := l.Lett(stream.FromSlice("en\ttext/html\tutf-8\thttp://site.com/en/\tx", "short"))
	require.NoError(t, err)
	v, err := table.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, "/en/", v)
}

func TestLoadURLs(t *testing.T) {
	l, _ := newLoader(t, RegexLinkExtractor{}, true)
	table, err := l.URLs(stream.FromSlice("http://site.com/en/a.html\n", "https://site.com/fr/a.html", ""))
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	v, _ := table.Lookup(1)
	assert.Equal(t, "/en/a.html", v)
	v, _ = table.Lookup(2)
	assert.Equal(t, "/fr/a.html", v)
	v, _ = table.Lookup(3)
	assert.Equal(t, "", v)

	l, _ = newLoader(t, RegexLinkExtractor{}, false)
	table, err = l.URLs(stream.FromSlice("http://site.com/en/a.html"))
	require.NoError(t, err)
	v, _ = table.Lookup(1)
	assert.Equal(t, "http://site.com/en/a.html", v)
}

func TestLoadLettSkipsShortRecordsWithoutShifting(t *testing.T) {
	l, m := newLoader(t, RegexLinkExtractor{}, true)
	table, err := l.Lett(stream.FromSlice(
		"en\ttext/html\tenc\thttp://s.com/en/1\thtml\ttext",
		"fr\ttext/html\tenc",
		"fr\ttext/html\tenc\thttp://s.com/fr/1\thtml",
	))
	require.NoError(t, err)

	v, err := table.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, "/en/1", v)

	// The short record leaves a hole rather than moving record 3 up.
	_, err = table.Lookup(2)
	assert.True(t, apperrors.Is(err, apperrors.ErrDocumentNotFound))

	v, err = table.Lookup(3)
	require.NoError(t, err)
	assert.Equal(t, "/fr/1", v)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeatureRecordsTotal.WithLabelValues("lett", "skipped")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FeatureRecordsTotal.WithLabelValues("lett", "loaded")))
}

func TestRegexLinkExtractor(t *testing.T) {
	markup := `<a HREF = "/en/one">1</a><link href='style.css'><a href="  /two">` +
		"<a\nhref=\n\"/three\">"
	assert.Equal(t, []string{"/en/one", "style.css", "/two", "/three"}, RegexLinkExtractor{}.Extract(markup))
	assert.Empty(t, RegexLinkExtractor{}.Extract("<p>no links</p>"))
}

func TestHTMLLinkExtractor(t *testing.T) {
	markup := `<html><body><A HREF="/en/one">1</A><link href='style.css'/><a href="/a?x=1&amp;y=2"><a href="">` +
		`<img src="/i.png"></body></html>`
	assert.Equal(t, []string{"/en/one", "style.css", "/a?x=1&y=2"}, HTMLLinkExtractor{}.Extract(markup))
}

func TestNewLinkExtractor(t *testing.T) {
	e, err := NewLinkExtractor("regex")
	require.NoError(t, err)
	assert.IsType(t, RegexLinkExtractor{}, e)
	e, err = NewLinkExtractor("html")
	require.NoError(t, err)
	assert.IsType(t, HTMLLinkExtractor{}, e)
	_, err = NewLinkExtractor("css")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidConfig))
}

func TestLoadLinkStrings(t *testing.T) {
	l, _ := newLoader(t, RegexLinkExtractor{}, true)
	markup := stream.FromSlice(
		b64(`<a href="http://s.com/en/a">a</a><a href="/en/b">b</a>`),
		b64(`<p>none</p>`),
	)
	urls := stream.FromSlice("http://s.com/en/index.html", "http://s.com/fr/index.html")
	table, err := l.LinkStrings(markup, urls)
	require.NoError(t, err)
	v, _ := table.Lookup(1)
	assert.Equal(t, "/en/a/en/b", v)
	v, _ = table.Lookup(2)
	assert.Equal(t, "", v)
}

func TestLoadLinkStringsWithoutURLs(t *testing.T) {
	l, _ := newLoader(t, RegexLinkExtractor{}, true)
	table, err := l.LinkStrings(stream.FromSlice(b64(`<a href="http://s.com/x">`)), nil)
	require.NoError(t, err)
	v, _ := table.Lookup(1)
	assert.Equal(t, "http://s.com/x", v)
}

func TestLoadLinkStringsMarkupTooShort(t *testing.T) {
	l, _ := newLoader(t, RegexLinkExtractor{}, true)
	_, err := l.LinkStrings(stream.FromSlice(b64("<a href='/x'>")), stream.FromSlice("http://a/", "http://b/"))
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
}

func TestLoadLinkSets(t *testing.T) {
	l, _ := newLoader(t, RegexLinkExtractor{}, true)
	table, err := l.LinkSets(stream.FromSlice(
		b64(`<a href="/a"></a><a href="/b"></a><a href="/a"></a>`),
		"",
	))
	require.NoError(t, err)
	v, _ := table.Lookup(1)
	assert.Equal(t, NewLinkSet("/a", "/b"), v)
	v, _ = table.Lookup(2)
	assert.Empty(t, v)

	_, err = l.LinkSets(stream.FromSlice("%%%"))
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
}
