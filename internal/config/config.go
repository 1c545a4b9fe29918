// Package config loads run settings from defaults, an optional config file,
// the environment and command-line overrides, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/freeeve/chessreview/internal/classify"
	"github.com/freeeve/chessreview/internal/eval"
)

// EnvPrefix prefixes every environment variable, e.g. CHESSREVIEW_DEPTH.
const EnvPrefix = "CHESSREVIEW"

// Config is the validated result of Load.
type Config struct {
	EnginePath     string  `mapstructure:"engine_path"`
	Depth          int     `mapstructure:"depth"`
	MultiPV        int     `mapstructure:"multipv"`
	UseTime        bool    `mapstructure:"use_time"`
	TimeLimit      float64 `mapstructure:"time_limit"`
	Threads        int     `mapstructure:"threads"`
	HashMB         int     `mapstructure:"hash_mb"`
	SyzygyPath     string  `mapstructure:"syzygy_path"`
	ThresholdsFile string  `mapstructure:"thresholds_file"`
	Workers        int     `mapstructure:"workers"`
	ECODir         string  `mapstructure:"eco_dir"`
	LogLevel       string  `mapstructure:"log_level"`
	LogJSON        bool    `mapstructure:"log_json"`
}

var defaults = map[string]any{
	"engine_path":     "",
	"depth":           eval.DefaultDepth,
	"multipv":         1,
	"use_time":        false,
	"time_limit":      eval.DefaultTimeLimit,
	"threads":         eval.DefaultThreads,
	"hash_mb":         eval.DefaultHashMB,
	"syzygy_path":     "",
	"thresholds_file": "",
	"workers":         1,
	"eco_dir":         "",
	"log_level":       "info",
	"log_json":        false,
}

// Keys returns every recognized setting name, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load builds a Config. file may be empty. overrides holds explicitly set
// command-line values keyed by setting name. Unrecognized keys are logged
// and ignored.
func Load(file string, overrides map[string]any, log zerolog.Logger) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("engine_path", EnvPrefix+"_ENGINE_PATH", "STOCKFISH_PATH"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	for k, val := range overrides {
		if _, ok := defaults[k]; !ok {
			log.Warn().Str("key", k).Msg("unknown setting ignored")
			continue
		}
		v.Set(k, val)
	}

	for _, k := range v.AllKeys() {
		if _, ok := defaults[k]; !ok {
			log.Warn().Str("key", k).Msg("unknown setting ignored")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that cannot be adjusted into range. Depth is
// clamped later and is not checked here.
func (c *Config) Validate() error {
	if c.MultiPV < 1 {
		return fmt.Errorf("multipv must be at least 1, got %d", c.MultiPV)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Threads < 1 || c.HashMB < 1 {
		return fmt.Errorf("threads and hash_mb must be positive")
	}
	if c.UseTime && c.TimeLimit <= 0 {
		return fmt.Errorf("time_limit must be positive when use_time is set")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// EngineConfig converts the engine settings.
func (c *Config) EngineConfig() eval.EngineConfig {
	ec := eval.EngineConfig{
		EnginePath: c.EnginePath,
		Depth:      c.Depth,
		MultiPV:    c.MultiPV,
		UseTime:    c.UseTime,
		TimeLimit:  c.TimeLimit,
		Threads:    c.Threads,
		HashMB:     c.HashMB,
	}
	if c.SyzygyPath != "" {
		p := c.SyzygyPath
		ec.SyzygyPath = &p
	}
	return ec
}

// Thresholds returns the classification bounds, read from ThresholdsFile
// when one is configured.
func (c *Config) Thresholds() (classify.Thresholds, error) {
	if c.ThresholdsFile == "" {
		return classify.DefaultThresholds(), nil
	}
	f, err := os.Open(c.ThresholdsFile)
	if err != nil {
		return classify.Thresholds{}, fmt.Errorf("open thresholds: %w", err)
	}
	defer f.Close()

	t, err := classify.LoadThresholds(f)
	if err != nil {
		return classify.Thresholds{}, fmt.Errorf("%s: %w", c.ThresholdsFile, err)
	}
	return t, nil
}
