package datasource

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/HinaTK/daily-stock-analysis/pkg/confkit"
)

// Config describes the set of upstream adapters plus the shared pacing and
// caching policy for the acquisition layer.
type Config struct {
	Adapters map[string]*AdapterConfig `yaml:"adapters"`
	Kinds    map[string]*KindConfig    `yaml:"kinds"`
	Throttle ThrottleYAML              `yaml:"throttle"`
}

// AdapterConfig configures a single upstream adapter.
type AdapterConfig struct {
	Type     string `yaml:"type"`
	Priority int    `yaml:"priority"`
	// Dynamic marks the adapter for promotion above static-priority peers
	// when its credential is present.
	Dynamic bool   `yaml:"dynamic"`
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`

	TimeoutRaw string        `yaml:"timeout"`
	Timeout    time.Duration `yaml:"-"`

	Breaker BreakerYAML `yaml:"breaker"`
}

// HasCredential reports whether a usable credential is configured.
func (a *AdapterConfig) HasCredential() bool {
	return strings.TrimSpace(a.Token) != ""
}

// KindConfig tunes one data kind.
type KindConfig struct {
	TTLRaw   string        `yaml:"ttl"`
	TTL      time.Duration `yaml:"-"`
	Disabled bool          `yaml:"disabled"`
}

// BreakerYAML is the serialized form of BreakerConfig.
type BreakerYAML struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	CooldownRaw      string        `yaml:"cooldown"`
	Cooldown         time.Duration `yaml:"-"`
	CooldownFactor   float64       `yaml:"cooldown_factor"`
	MaxCooldownRaw   string        `yaml:"max_cooldown"`
	MaxCooldown      time.Duration `yaml:"-"`
}

func (b BreakerYAML) toConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: b.FailureThreshold,
		Cooldown:         b.Cooldown,
		CooldownFactor:   b.CooldownFactor,
		MaxCooldown:      b.MaxCooldown,
	}
}

// ThrottleYAML is the serialized form of ThrottleConfig.
type ThrottleYAML struct {
	MinDelayRaw     string        `yaml:"min_delay"`
	MinDelay        time.Duration `yaml:"-"`
	MaxDelayRaw     string        `yaml:"max_delay"`
	MaxDelay        time.Duration `yaml:"-"`
	BackoffBaseRaw  string        `yaml:"backoff_base"`
	BackoffBase     time.Duration `yaml:"-"`
	BackoffFactor   float64       `yaml:"backoff_factor"`
	MaxBackoffRaw   string        `yaml:"max_backoff"`
	MaxBackoff      time.Duration `yaml:"-"`
	BackoffDecayRaw string        `yaml:"backoff_decay"`
	BackoffDecay    time.Duration `yaml:"-"`
	QPS             float64       `yaml:"qps"`
	Burst           int           `yaml:"burst"`
}

func (t ThrottleYAML) toConfig() ThrottleConfig {
	return ThrottleConfig{
		MinDelay:      t.MinDelay,
		MaxDelay:      t.MaxDelay,
		BackoffBase:   t.BackoffBase,
		BackoffFactor: t.BackoffFactor,
		MaxBackoff:    t.MaxBackoff,
		BackoffDecay:  t.BackoffDecay,
		QPS:           t.QPS,
		Burst:         t.Burst,
	}
}

// AdapterBuilder constructs an Adapter from configuration.
type AdapterBuilder func(name string, cfg *AdapterConfig) (Adapter, error)

var (
	adapterRegistry   = make(map[string]AdapterBuilder)
	adapterRegistryMu sync.RWMutex
)

// RegisterAdapter registers an adapter constructor under a type name.
// Adapter packages call this from init.
func RegisterAdapter(typeName string, builder AdapterBuilder) {
	adapterRegistryMu.Lock()
	defer adapterRegistryMu.Unlock()
	adapterRegistry[strings.ToLower(strings.TrimSpace(typeName))] = builder
}

func lookupAdapterBuilder(typeName string) (AdapterBuilder, bool) {
	adapterRegistryMu.RLock()
	defer adapterRegistryMu.RUnlock()
	builder, ok := adapterRegistry[strings.ToLower(strings.TrimSpace(typeName))]
	return builder, ok
}

// LoadConfig reads configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open datasource config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read datasource config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal datasource config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	if c.Adapters == nil {
		c.Adapters = make(map[string]*AdapterConfig)
	}
	for name, adapter := range c.Adapters {
		if adapter == nil {
			adapter = &AdapterConfig{}
			c.Adapters[name] = adapter
		}
		adapter.Token = os.ExpandEnv(adapter.Token)
		adapter.BaseURL = os.ExpandEnv(adapter.BaseURL)
		if adapter.Type == "" {
			adapter.Type = name
		}
		var err error
		if adapter.Timeout, err = parseOptionalDuration(adapter.TimeoutRaw); err != nil {
			return fmt.Errorf("datasource config: adapter %s timeout: %w", name, err)
		}
		if adapter.Breaker.Cooldown, err = parseOptionalDuration(adapter.Breaker.CooldownRaw); err != nil {
			return fmt.Errorf("datasource config: adapter %s breaker cooldown: %w", name, err)
		}
		if adapter.Breaker.MaxCooldown, err = parseOptionalDuration(adapter.Breaker.MaxCooldownRaw); err != nil {
			return fmt.Errorf("datasource config: adapter %s breaker max_cooldown: %w", name, err)
		}
	}

	if c.Kinds == nil {
		c.Kinds = make(map[string]*KindConfig)
	}
	for name, kind := range c.Kinds {
		if kind == nil {
			kind = &KindConfig{}
			c.Kinds[name] = kind
		}
		var err error
		if kind.TTL, err = parseOptionalDuration(kind.TTLRaw); err != nil {
			return fmt.Errorf("datasource config: kind %s ttl: %w", name, err)
		}
	}

	fields := []struct {
		raw string
		dst *time.Duration
	}{
		{c.Throttle.MinDelayRaw, &c.Throttle.MinDelay},
		{c.Throttle.MaxDelayRaw, &c.Throttle.MaxDelay},
		{c.Throttle.BackoffBaseRaw, &c.Throttle.BackoffBase},
		{c.Throttle.MaxBackoffRaw, &c.Throttle.MaxBackoff},
		{c.Throttle.BackoffDecayRaw, &c.Throttle.BackoffDecay},
	}
	for _, f := range fields {
		d, err := parseOptionalDuration(f.raw)
		if err != nil {
			return fmt.Errorf("datasource config: throttle: %w", err)
		}
		*f.dst = d
	}
	return nil
}

// Validate checks referential integrity of the configuration.
func (c *Config) Validate() error {
	if len(c.Adapters) == 0 {
		return fmt.Errorf("datasource config: at least one adapter is required")
	}
	for name, adapter := range c.Adapters {
		if _, ok := lookupAdapterBuilder(adapter.Type); !ok {
			return fmt.Errorf("datasource config: adapter %s has unknown type %q", name, adapter.Type)
		}
	}
	for name := range c.Kinds {
		switch Kind(name) {
		case KindDaily, KindQuote, KindChip:
		default:
			return fmt.Errorf("datasource config: unknown data kind %q", name)
		}
	}
	return nil
}

// BuildManager constructs adapters through the registry and assembles the
// acquisition manager.
func (c *Config) BuildManager(opts ...ManagerOption) (*Manager, error) {
	names := make([]string, 0, len(c.Adapters))
	for name := range c.Adapters {
		names = append(names, name)
	}
	sort.Strings(names)

	specs := make([]AdapterSpec, 0, len(names))
	for _, name := range names {
		acfg := c.Adapters[name]
		builder, ok := lookupAdapterBuilder(acfg.Type)
		if !ok {
			return nil, fmt.Errorf("datasource: no builder registered for type %q", acfg.Type)
		}
		adapter, err := builder(name, acfg)
		if err != nil {
			return nil, fmt.Errorf("datasource: build adapter %s: %w", name, err)
		}
		specs = append(specs, AdapterSpec{
			Adapter:       adapter,
			Priority:      acfg.Priority,
			Dynamic:       acfg.Dynamic,
			HasCredential: acfg.HasCredential(),
			Breaker:       acfg.Breaker.toConfig(),
		})
	}

	managerOpts := []ManagerOption{WithThrottle(NewThrottle(c.Throttle.toConfig()))}
	for name, kind := range c.Kinds {
		if kind.Disabled {
			managerOpts = append(managerOpts, WithKindDisabled(Kind(name)))
		}
		if kind.TTL > 0 {
			managerOpts = append(managerOpts, WithTTL(Kind(name), kind.TTL))
		}
	}
	managerOpts = append(managerOpts, opts...)
	return NewManager(specs, managerOpts...), nil
}

func parseOptionalDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	return d, nil
}
