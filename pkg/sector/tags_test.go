package sector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBucketFor(t *testing.T) {
	require.Equal(t, CapLarge, BucketFor(2400))
	require.Equal(t, CapMid, BucketFor(350))
	require.Equal(t, CapSmall, BucketFor(80))
}

func TestInferStyles(t *testing.T) {
	styles := InferStyles([]string{"银行"}, 18000)
	require.Equal(t, []InvestmentStyle{StyleFinancial, StyleDividend, StyleValue}, styles)

	// Unmapped large-cap telecom falls back to value and picks up the
	// dividend flag; a small cap without a mapping defaults to growth.
	require.Equal(t, []InvestmentStyle{StyleValue, StyleDividend}, InferStyles([]string{"通信"}, 800))
	require.Equal(t, []InvestmentStyle{StyleGrowth}, InferStyles([]string{"航空运输"}, 90))

	// High-dividend membership appends without duplicating.
	styles = InferStyles([]string{"煤炭"}, 600)
	require.Contains(t, styles, StyleCyclical)
	count := 0
	for _, s := range styles {
		if s == StyleDividend {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestTagsFor(t *testing.T) {
	tags := TagsFor("600519", "贵州茅台", []string{"食品饮料"}, []string{"白酒"}, 21000)
	require.Equal(t, CapLarge, tags.CapBucket)
	require.Contains(t, tags.Styles, StyleConsumer)
	require.Contains(t, tags.Styles, StyleDividend)
	require.Equal(t, []string{"白酒"}, tags.Concepts)
}
