package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/joaaoazul/hypermint/internal/indicator"
	"github.com/joaaoazul/hypermint/internal/layout"
	"github.com/joaaoazul/hypermint/internal/model"
)

// Feed names accepted by FEED.
const (
	FeedSQLite = "sqlite"
	FeedRedis  = "redis"
)

// Config holds all application configuration loaded from environment variables
// and the optional YAML chart profile.
type Config struct {
	// Servers
	ListenAddr  string
	MetricsAddr string

	// Infrastructure
	Feed          string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string

	// Chart
	Symbol           string
	ActiveIndicators string // comma-separated kinds shown by default, e.g. "SMA,RSI"
	IndicatorConfigs string // comma-separated specs, e.g. "RSI:21,MACD:8:21:5"
	ChartHeight      int
	OscillatorHeight int
	MinMainHeight    int
	RightOffset      float64

	LogLevel    string
	ProfilePath string

	// Profile is the parsed CHART_PROFILE file, nil when unset.
	Profile *Profile
}

// Profile is the YAML chart profile. Environment variables win over it.
type Profile struct {
	Colors           model.ColorScheme `yaml:"colors"`
	ChartHeight      int               `yaml:"chart_height"`
	OscillatorHeight int               `yaml:"oscillator_height"`
	MinMainHeight    int               `yaml:"min_main_height"`
	RightOffset      float64           `yaml:"right_offset"`
	Active           []string          `yaml:"active"`
	Indicators       []indicator.Spec  `yaml:"indicators"`
}

// Load reads configuration from the environment (after an optional .env
// file) with sensible defaults. All validation problems are reported together.
func Load() (*Config, error) {
	// A missing .env is fine; plain env vars still apply.
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		Feed:          strings.ToLower(getEnv("FEED", FeedSQLite)),
		SQLitePath:    getEnv("SQLITE_PATH", "data/candles.db"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		Symbol:           getEnv("SYMBOL", "BTCUSDT"),
		IndicatorConfigs: getEnv("INDICATOR_CONFIGS", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		ProfilePath:      getEnv("CHART_PROFILE", ""),
	}

	var errs []string
	if cfg.ProfilePath != "" {
		p, err := LoadProfile(cfg.ProfilePath)
		if err != nil {
			errs = append(errs, err.Error())
		}
		cfg.Profile = p
	}

	prof := cfg.Profile
	if prof == nil {
		prof = &Profile{}
	}

	var err error
	if cfg.ChartHeight, err = getEnvInt("CHART_HEIGHT", orInt(prof.ChartHeight, layout.DefaultTotalHeight)); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.OscillatorHeight, err = getEnvInt("OSCILLATOR_HEIGHT", orInt(prof.OscillatorHeight, layout.DefaultOscillatorHeight)); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.MinMainHeight, err = getEnvInt("MIN_MAIN_HEIGHT", orInt(prof.MinMainHeight, layout.DefaultMinMainHeight)); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.RightOffset, err = getEnvFloat("RIGHT_OFFSET", prof.RightOffset); err != nil {
		errs = append(errs, err.Error())
	}
	cfg.ActiveIndicators = getEnv("ACTIVE_INDICATORS", strings.Join(prof.Active, ","))

	switch cfg.Feed {
	case FeedSQLite, FeedRedis:
	default:
		errs = append(errs, fmt.Sprintf("FEED must be %q or %q, got %q", FeedSQLite, FeedRedis, cfg.Feed))
	}
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}
	for _, h := range []struct {
		name string
		v    int
	}{
		{"CHART_HEIGHT", cfg.ChartHeight},
		{"OSCILLATOR_HEIGHT", cfg.OscillatorHeight},
		{"MIN_MAIN_HEIGHT", cfg.MinMainHeight},
	} {
		if h.v <= 0 {
			errs = append(errs, h.name+" must be positive")
		}
	}
	if cfg.RightOffset < 0 {
		errs = append(errs, "RIGHT_OFFSET cannot be negative")
	}
	if _, err := cfg.Specs(); err != nil {
		errs = append(errs, fmt.Sprintf("invalid INDICATOR_CONFIGS: %v", err))
	}

	if len(errs) > 0 {
		return nil, errors.New("config: " + strings.Join(errs, "; "))
	}
	return cfg, nil
}

// LoadProfile reads a YAML chart profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chart profile: %w", err)
	}
	p := &Profile{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse chart profile: %w", err)
	}
	for i, s := range p.Indicators {
		kind, ok := indicator.ParseKind(string(s.Kind))
		if !ok {
			return nil, fmt.Errorf("chart profile indicator %d: %q: %w", i, s.Kind, indicator.ErrUnknownKind)
		}
		p.Indicators[i] = withDefaults(kind, s)
	}
	return p, nil
}

// withDefaults fills parameters the profile left out from DefaultSpec.
func withDefaults(kind indicator.Kind, s indicator.Spec) indicator.Spec {
	out := indicator.DefaultSpec(kind)
	if s.Period != 0 {
		out.Period = s.Period
	}
	if s.Multiplier != 0 {
		out.Multiplier = s.Multiplier
	}
	if s.Fast != 0 {
		out.Fast = s.Fast
	}
	if s.Slow != 0 {
		out.Slow = s.Slow
	}
	if s.Signal != 0 {
		out.Signal = s.Signal
	}
	return out
}

// Specs merges indicator parameters: profile entries first, then
// INDICATOR_CONFIGS, with later entries for the same kind winning.
func (c *Config) Specs() ([]indicator.Spec, error) {
	fromEnv, err := indicator.ParseSpecs(c.IndicatorConfigs)
	if err != nil {
		return nil, err
	}
	var all []indicator.Spec
	if c.Profile != nil {
		all = append(all, c.Profile.Indicators...)
	}
	all = append(all, fromEnv...)

	byKind := make(map[indicator.Kind]int, len(all))
	var out []indicator.Spec
	for _, s := range all {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if i, ok := byKind[s.Kind]; ok {
			out[i] = s
			continue
		}
		byKind[s.Kind] = len(out)
		out = append(out, s)
	}
	return out, nil
}

// Active returns the default indicator identifiers for new sessions.
func (c *Config) Active() []string {
	var out []string
	for _, p := range strings.Split(c.ActiveIndicators, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Planner returns the pane height settings.
func (c *Config) Planner() layout.Planner {
	return layout.Planner{
		TotalHeight:      c.ChartHeight,
		OscillatorHeight: c.OscillatorHeight,
		MinMainHeight:    c.MinMainHeight,
	}
}

// Colors returns the profile's color scheme with defaults filled in.
func (c *Config) Colors() model.ColorScheme {
	if c.Profile == nil {
		return model.ColorScheme{}.WithDefaults()
	}
	return c.Profile.Colors.WithDefaults()
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %q", key, v)
	}
	return f, nil
}

func orInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
