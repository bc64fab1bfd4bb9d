package urlfilter

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/caarlos0/env/v7"
	"gopkg.in/yaml.v3"

	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/filterforge/urlfilter/internal/cache"
)

// FilterConfig describes one static filter list in a Config's Filters slice.
type FilterConfig struct {
	// Content is the filter list's raw rule text.
	Content string `yaml:"content"`

	// FilterID is the list's identifier, propagated onto every rule parsed
	// from it and used as the first element of a source-map entry.
	FilterID int `yaml:"filter_id"`

	// Trusted records whether the list comes from a trusted source. The
	// engine does not read it: rules such as $removeheader are loaded the
	// same way from trusted and untrusted lists.
	Trusted bool `yaml:"trusted"`
}

// StealthConfig groups the stealth-mode toggles, per spec §6. The engine
// does not read them: neither MatchingResult nor the declarative converter
// carries them, and applying them (dropping a Referer header, spoofing
// cookie lifetimes) is the host environment's job.
type StealthConfig struct {
	HideReferrer            bool `yaml:"hide_referrer"`
	HideSearchQueries       bool `yaml:"hide_search_queries"`
	SendDoNotTrack          bool `yaml:"send_do_not_track"`
	BlockWebRTC             bool `yaml:"block_webrtc"`
	BlockChromeClientData   bool `yaml:"block_chrome_client_data"`

	SelfDestructFirstPartyCookies     bool `yaml:"self_destruct_first_party_cookies"`
	SelfDestructFirstPartyCookiesTime int  `yaml:"self_destruct_first_party_cookies_time"`

	SelfDestructThirdPartyCookies     bool `yaml:"self_destruct_third_party_cookies"`
	SelfDestructThirdPartyCookiesTime int  `yaml:"self_destruct_third_party_cookies_time"`
}

// Config is the engine's full configuration, per spec §6's "recognized
// options, exhaustive" list plus the ambient operational knobs (cache
// sizes, chunk size) that make sense to flip without editing a filter list.
type Config struct {
	// Logger receives build and match diagnostics. A nil Logger falls back
	// to slog.Default().
	Logger *slog.Logger `yaml:"-"`

	// CacheManager is the shared registry every bounded cache is added to,
	// so an operator can clear them from one place. A nil CacheManager
	// falls back to a cache.EmptyManager, i.e. caches are still built and
	// used but can't be cleared externally.
	CacheManager cache.Manager `yaml:"-"`

	// Metrics receives build and match instrumentation. A nil Metrics
	// disables instrumentation entirely rather than panicking.
	Metrics *Metrics `yaml:"-"`

	Filters   []FilterConfig `yaml:"filters"`
	UserRules []string       `yaml:"user_rules"`

	AllowlistRules    []string `yaml:"allowlist"`
	AllowlistEnabled  bool     `yaml:"allowlist_enabled"`
	AllowlistInverted bool     `yaml:"allowlist_inverted"`

	TrustedDomains []string `yaml:"trusted_domains"`

	Stealth StealthConfig `yaml:"stealth"`

	Verbose      bool `yaml:"verbose"`
	CollectStats bool `yaml:"collect_stats"`

	// ResultCacheSize and SourceRulesCacheSize bound the per-request result
	// cache and the source-rules cache (§4.8), both ≈100000 by default.
	ResultCacheSize      int `yaml:"result_cache_size" env:"URLFILTER_RESULT_CACHE_SIZE"`
	SourceRulesCacheSize int `yaml:"source_rules_cache_size" env:"URLFILTER_SOURCE_RULES_CACHE_SIZE"`

	// ChunkSize is how many rules the build phase parses between
	// cooperative yields (§4.8 "Loading").
	ChunkSize int `yaml:"chunk_size" env:"URLFILTER_BUILD_CHUNK_SIZE"`

	// MaxRuleListSize bounds how large a single filter list's content may
	// be before the build refuses to parse it, mirroring the teacher's
	// DefaultStorage.maxRuleListSize.
	MaxRuleListSize datasize.ByteSize `yaml:"max_rule_list_size" env:"URLFILTER_MAX_RULE_LIST_SIZE"`

	// BuildTimeout bounds how long a single Configure call is allowed to
	// take before its context is treated as expired between chunks.
	// timeutil.Duration, not a bare time.Duration, since that's what gives
	// it YAML/env text parsing ("30s") instead of a raw nanosecond count.
	BuildTimeout timeutil.Duration `yaml:"build_timeout" env:"URLFILTER_BUILD_TIMEOUT"`
}

// LoadConfig reads the on-disk YAML configuration at path, then overlays it
// with any URLFILTER_*-prefixed environment variables tagged on Config's
// ambient knobs (ResultCacheSize, ChunkSize, and friends), mirroring the
// teacher's readConfig/readEnvs split: YAML owns the filter-list/stealth
// shape, the environment owns the operational overrides.
func LoadConfig(path string) (c *Config, err error) {
	// #nosec G304 -- the path is operator-supplied, not request data.
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	c = &Config{}
	err = yaml.Unmarshal(yamlFile, c)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	err = env.Parse(c)
	if err != nil {
		return nil, fmt.Errorf("parsing environment overrides: %w", err)
	}

	return c, nil
}

// defaults for the knobs spec §4.8 names without pinning an exact value.
const (
	defaultResultCacheSize      = 100_000
	defaultSourceRulesCacheSize = 100_000
	defaultChunkSize            = 2_000
	defaultMaxRuleListSize      = 64 * datasize.MB
)

// defaultBuildTimeout is timeutil.Duration's zero-value-unfriendly default:
// a plain const can't hold a struct, so it's a var initialized once here
// rather than inline in withDefaults.
var defaultBuildTimeout = timeutil.Duration{Duration: 30 * time.Second}

// withDefaults returns a copy of c with every zero-valued ambient knob
// replaced by its default, leaving domain fields (Filters, UserRules, …)
// untouched.
func (c Config) withDefaults() (out Config) {
	out = c

	if out.Logger == nil {
		out.Logger = slog.Default()
	}

	if out.CacheManager == nil {
		out.CacheManager = cache.EmptyManager{}
	}

	if out.ResultCacheSize <= 0 {
		out.ResultCacheSize = defaultResultCacheSize
	}

	if out.SourceRulesCacheSize <= 0 {
		out.SourceRulesCacheSize = defaultSourceRulesCacheSize
	}

	if out.ChunkSize <= 0 {
		out.ChunkSize = defaultChunkSize
	}

	if out.MaxRuleListSize <= 0 {
		out.MaxRuleListSize = defaultMaxRuleListSize
	}

	if out.BuildTimeout.Duration <= 0 {
		out.BuildTimeout = defaultBuildTimeout
	}

	return out
}
