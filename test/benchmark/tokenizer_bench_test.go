package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/docalign/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docalign/internal/transform"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `Parallel corpora are harvested from multilingual websites by pairing
        documents that are translations of each other. Each candidate pair is scored
        by comparing the words the two documents share after translation, the
        structure of their markup and the similarity of their URLs. Pairs that
        survive the scoring stages are then aligned sentence by sentence.`,
	"long": strings.Repeat(`Crawled websites often publish the same page in several
        languages under paths such as /en/about.html and /fr/about.html. The index
        builder records, for every word, the documents it appears in, so that later
        stages can look up translation candidates quickly. Very frequent words carry
        little information and are pruned before the postings are written. `, 20),
}

func BenchmarkWordSet(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				words := tokenizer.WordSet(text)
				_ = words
			}
		})
	}
}

func BenchmarkUAX29(b *testing.B) {
	tok := transform.UAX29()
	ctx := context.Background()
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				if _, err := tok.Apply(ctx, text); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSnowball(b *testing.B) {
	stemmer, err := transform.Snowball("en")
	if err != nil {
		b.Fatal(err)
	}
	text := "running distributed searching indexing tokenization normalization efficiently processing"
	ctx := context.Background()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := stemmer.Apply(ctx, text); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWordSetVaryingSize(b *testing.B) {
	sizes := []int{10, 100, 500, 1000, 5000}
	baseWord := "parallel corpus document alignment index "
	for _, size := range sizes {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				words := tokenizer.WordSet(text)
				_ = words
			}
		})
	}
}
