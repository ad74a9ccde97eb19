package analyzer

import "fmt"

// Config holds the tunable rule thresholds. Zero values fall back to the
// defaults, so an empty config is valid.
type Config struct {
	// BiasThreshold is the close-to-MA5 deviation (percent) above which a
	// symbol counts as overextended and chasing is penalised.
	BiasThreshold float64 `yaml:"bias_threshold"`
	// VolumeShrinkRatio and VolumeHeavyRatio bracket the day's volume
	// against the trailing five-day average.
	VolumeShrinkRatio float64 `yaml:"volume_shrink_ratio"`
	VolumeHeavyRatio  float64 `yaml:"volume_heavy_ratio"`
	// MASupportTolerance is the relative distance within which a moving
	// average counts as holding the price.
	MASupportTolerance float64 `yaml:"ma_support_tolerance"`

	MACDFast   int `yaml:"macd_fast"`
	MACDSlow   int `yaml:"macd_slow"`
	MACDSignal int `yaml:"macd_signal"`

	RSIPeriods    []int   `yaml:"rsi_periods"`
	RSIOverbought float64 `yaml:"rsi_overbought"`
	RSIOversold   float64 `yaml:"rsi_oversold"`

	// MinBars is the minimum history required for a full analysis.
	MinBars int `yaml:"min_bars"`
}

func (c Config) withDefaults() Config {
	if c.BiasThreshold <= 0 {
		c.BiasThreshold = 5.0
	}
	if c.VolumeShrinkRatio <= 0 {
		c.VolumeShrinkRatio = 0.7
	}
	if c.VolumeHeavyRatio <= 0 {
		c.VolumeHeavyRatio = 1.5
	}
	if c.MASupportTolerance <= 0 {
		c.MASupportTolerance = 0.02
	}
	if c.MACDFast <= 0 {
		c.MACDFast = 12
	}
	if c.MACDSlow <= 0 {
		c.MACDSlow = 26
	}
	if c.MACDSignal <= 0 {
		c.MACDSignal = 9
	}
	if len(c.RSIPeriods) == 0 {
		c.RSIPeriods = []int{6, 12, 24}
	}
	if c.RSIOverbought <= 0 {
		c.RSIOverbought = 70
	}
	if c.RSIOversold <= 0 {
		c.RSIOversold = 30
	}
	if c.MinBars <= 0 {
		c.MinBars = 30
	}
	return c
}

// Validate rejects configs that cannot produce a coherent analysis.
func (c Config) Validate() error {
	c = c.withDefaults()
	if c.MACDFast >= c.MACDSlow {
		return fmt.Errorf("analyzer: macd fast period %d must be below slow period %d", c.MACDFast, c.MACDSlow)
	}
	if c.RSIOversold >= c.RSIOverbought {
		return fmt.Errorf("analyzer: rsi oversold %.1f must be below overbought %.1f", c.RSIOversold, c.RSIOverbought)
	}
	if len(c.RSIPeriods) != 3 {
		return fmt.Errorf("analyzer: want 3 rsi periods, got %d", len(c.RSIPeriods))
	}
	if c.VolumeShrinkRatio >= c.VolumeHeavyRatio {
		return fmt.Errorf("analyzer: volume shrink ratio %.2f must be below heavy ratio %.2f", c.VolumeShrinkRatio, c.VolumeHeavyRatio)
	}
	return nil
}
