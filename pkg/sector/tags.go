package sector

import "strings"

// InvestmentStyle is a coarse style bucket for a stock.
type InvestmentStyle string

const (
	StyleGrowth    InvestmentStyle = "growth"
	StyleValue     InvestmentStyle = "value"
	StyleCyclical  InvestmentStyle = "cyclical"
	StyleDividend  InvestmentStyle = "dividend"
	StyleTech      InvestmentStyle = "tech"
	StyleConsumer  InvestmentStyle = "consumer"
	StyleFinancial InvestmentStyle = "financial"
	StyleEnergy    InvestmentStyle = "energy"
)

// CapBucket sizes a stock by total market cap.
type CapBucket string

const (
	CapLarge CapBucket = "large" // above CNY 100B
	CapMid   CapBucket = "mid"   // CNY 20B to 100B
	CapSmall CapBucket = "small"
)

// StockTags is the tag set attached to one watched symbol.
type StockTags struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`

	Industries []string          `json:"industries,omitempty"`
	Concepts   []string          `json:"concepts,omitempty"`
	Styles     []InvestmentStyle `json:"styles,omitempty"`

	CapBucket CapBucket `json:"cap_bucket"`
	MarketCap float64   `json:"market_cap,omitempty"` // CNY 100M
}

// styleMapping keys Tonghuashun industry names to style buckets.
var styleMapping = map[string][]InvestmentStyle{
	"科技":   {StyleTech, StyleGrowth},
	"半导体":  {StyleTech, StyleGrowth},
	"软件开发": {StyleTech, StyleGrowth},
	"互联网":  {StyleTech, StyleGrowth},
	"通信设备": {StyleTech},
	"食品饮料": {StyleConsumer, StyleDividend},
	"家用电器": {StyleConsumer, StyleValue},
	"纺织服装": {StyleConsumer},
	"商贸零售": {StyleConsumer},
	"银行":   {StyleFinancial, StyleDividend, StyleValue},
	"证券":   {StyleFinancial},
	"保险":   {StyleFinancial},
	"煤炭":   {StyleCyclical, StyleDividend, StyleEnergy},
	"有色金属": {StyleCyclical},
	"钢铁":   {StyleCyclical},
	"化工":   {StyleCyclical},
	"石油石化": {StyleCyclical, StyleDividend, StyleEnergy},
	"交通运输": {StyleCyclical},
	"房地产":  {StyleCyclical},
	"建筑材料": {StyleCyclical},
	"医疗器械": {StyleGrowth},
	"化学制药": {StyleGrowth},
	"中药":   {StyleValue, StyleDividend},
	"生物制品": {StyleGrowth},
	"光伏设备": {StyleGrowth, StyleEnergy},
	"电池":   {StyleGrowth, StyleEnergy},
	"风电设备": {StyleGrowth, StyleEnergy},
	"电力":   {StyleDividend, StyleValue},
	"燃气":   {StyleDividend},
	"水务":   {StyleDividend},
	"环保":   {StyleValue},
}

// highDividendIndustries flags industries that traditionally pay out.
var highDividendIndustries = map[string]bool{
	"煤炭": true, "石油石化": true, "银行": true, "电力": true,
	"通信": true, "家电": true, "食品饮料": true, "化学制药": true,
	"水务": true, "燃气": true,
}

// BucketFor sizes a market cap given in CNY 100M.
func BucketFor(marketCap float64) CapBucket {
	switch {
	case marketCap > 1000:
		return CapLarge
	case marketCap > 200:
		return CapMid
	default:
		return CapSmall
	}
}

// InferStyles derives style buckets from industry names and market cap.
// Unmapped industries fall back to a cap-driven guess.
func InferStyles(industries []string, marketCap float64) []InvestmentStyle {
	var styles []InvestmentStyle
	for _, industry := range industries {
		for key, mapped := range styleMapping {
			if strings.Contains(industry, key) {
				styles = append(styles, mapped...)
			}
		}
	}

	if len(styles) == 0 {
		if marketCap > 500 && anyIndustry(industries, "银行", "保险", "电力", "通信") {
			styles = append(styles, StyleValue)
		} else {
			styles = append(styles, StyleGrowth)
		}
	}

	for _, industry := range industries {
		if highDividendIndustries[industry] {
			styles = append(styles, StyleDividend)
			break
		}
	}

	seen := make(map[InvestmentStyle]bool, len(styles))
	unique := styles[:0]
	for _, s := range styles {
		if !seen[s] {
			seen[s] = true
			unique = append(unique, s)
		}
	}
	return unique
}

// TagsFor assembles the full tag set for one symbol.
func TagsFor(code, name string, industries, concepts []string, marketCap float64) StockTags {
	return StockTags{
		Code:       code,
		Name:       name,
		Industries: industries,
		Concepts:   concepts,
		Styles:     InferStyles(industries, marketCap),
		CapBucket:  BucketFor(marketCap),
		MarketCap:  marketCap,
	}
}

func anyIndustry(industries []string, keys ...string) bool {
	for _, industry := range industries {
		for _, key := range keys {
			if strings.Contains(industry, key) {
				return true
			}
		}
	}
	return false
}
