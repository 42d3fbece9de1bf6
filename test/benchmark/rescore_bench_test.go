package benchmark

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/docalign/internal/features"
	"github.com/Adithya-Monish-Kumar-K/docalign/internal/rescorer"
	"github.com/Adithya-Monish-Kumar-K/docalign/internal/rescorer/metric"
	"github.com/Adithya-Monish-Kumar-K/docalign/internal/stream"
	"github.com/Adithya-Monish-Kumar-K/docalign/pkg/metrics"
)

func BenchmarkEditDistance(b *testing.B) {
	pairs := []struct {
		name string
		a, c string
	}{
		{"short", "/en/about.html", "/fr/a-propos.html"},
		{"long", strings.Repeat("/en/products/item", 8), strings.Repeat("/fr/produits/article", 8)},
	}
	for _, p := range pairs {
		b.Run(p.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = metric.EditDistance(p.a, p.c)
			}
		})
	}
}

func BenchmarkJaccard(b *testing.B) {
	left, right := features.NewLinkSet(), features.NewLinkSet()
	for i := 0; i < 200; i++ {
		left[fmt.Sprintf("/page/%d", i)] = struct{}{}
		right[fmt.Sprintf("/page/%d", i+50)] = struct{}{}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = metric.Jaccard(left, right)
	}
}

// BenchmarkRescoreRun measures end-to-end rescoring of 1 000 ridx lines with
// ten candidates each.
func BenchmarkRescoreRun(b *testing.B) {
	table := features.NewTable[string]()
	for i := 1; i <= 1000; i++ {
		table.Set(i, fmt.Sprintf("/lang/section-%d/page-%d.html", i%13, i))
	}
	var ridx []string
	for i := 1; i <= 1000; i++ {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%d", i)
		for j := 1; j <= 10; j++ {
			fmt.Fprintf(&sb, "\t%d:0.5", (i+j*37)%1000+1)
		}
		ridx = append(ridx, sb.String())
	}
	r := rescorer.New("url-distance", table, metric.EditDistance, metrics.New())

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := r.Run(stream.FromSlice(ridx...), io.Discard); err != nil {
			b.Fatal(err)
		}
	}
}
