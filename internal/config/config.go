// Package config loads the optional .unqualify.toml project file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"

	"github.com/jward/unqualify/internal/runtime"
	"github.com/jward/unqualify/internal/transform"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = ".unqualify.toml"

// DefaultCache is the ledger database path used when none is configured.
const DefaultCache = ".unqualify.db"

// Config mirrors .unqualify.toml. Relative Cache and Hook paths are
// resolved against the directory holding the file.
type Config struct {
	Namespace  string `toml:"namespace"`
	Module     string `toml:"module"`
	Quote      string `toml:"quote"`
	Semicolons string `toml:"semicolons"`

	Languages []string `toml:"languages"`
	Exclude   []string `toml:"exclude"`

	Hook     string `toml:"hook"`
	Cache    string `toml:"cache"`
	Parallel *bool  `toml:"parallel"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and validates the TOML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	applyDefaults(&cfg)
	resolvePaths(&cfg, filepath.Dir(path))

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadOptional is Load, except that a missing file yields Default().
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func applyDefaults(cfg *Config) {
	def := transform.DefaultConfig()
	if strings.TrimSpace(cfg.Namespace) == "" {
		cfg.Namespace = def.Namespace
	}
	if strings.TrimSpace(cfg.Module) == "" {
		cfg.Module = def.Module
	}
	if strings.TrimSpace(cfg.Quote) == "" {
		cfg.Quote = def.Quote
	}
	if strings.TrimSpace(cfg.Semicolons) == "" {
		cfg.Semicolons = def.Semicolons
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = runtime.Languages()
	}
	if strings.TrimSpace(cfg.Cache) == "" {
		cfg.Cache = DefaultCache
	}
	if cfg.Parallel == nil {
		parallel := true
		cfg.Parallel = &parallel
	}
}

func resolvePaths(cfg *Config, dir string) {
	if cfg.Cache != "" && cfg.Cache != ":memory:" && !filepath.IsAbs(cfg.Cache) {
		cfg.Cache = filepath.Join(dir, cfg.Cache)
	}
	if cfg.Hook != "" && !filepath.IsAbs(cfg.Hook) {
		cfg.Hook = filepath.Join(dir, cfg.Hook)
	}
}

// Validate checks cfg after command-line overrides have been applied.
func (c *Config) Validate() error {
	return validate(c)
}

func validate(cfg *Config) error {
	if err := cfg.Transform().Validate(); err != nil {
		return err
	}
	if err := validateLanguages(cfg); err != nil {
		return err
	}
	return validateExclude(cfg)
}

func validateLanguages(cfg *Config) error {
	known := runtime.Languages()
	for _, lang := range cfg.Languages {
		if !slices.Contains(known, lang) {
			return fmt.Errorf("languages: unknown language %q (known: %s)", lang, strings.Join(known, ", "))
		}
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for _, pattern := range cfg.Exclude {
		if strings.TrimSpace(pattern) == "" {
			return errors.New("exclude: empty pattern")
		}
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("exclude: pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// Transform returns the transform settings.
func (c *Config) Transform() transform.Config {
	return transform.Config{
		Namespace:  c.Namespace,
		Module:     c.Module,
		Quote:      c.Quote,
		Semicolons: c.Semicolons,
	}
}

// IsParallel reports whether files are processed by the worker pool.
func (c *Config) IsParallel() bool {
	return c.Parallel == nil || *c.Parallel
}
