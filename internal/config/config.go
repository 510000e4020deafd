// Package config loads emberc.toml, the per-project defaults for the
// translate and batch commands.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"emberc/internal/translator"
)

// DefaultCacheDir is where translation outputs are kept when [cache].dir is
// not set. Relative to the project root.
const DefaultCacheDir = ".emberc-cache"

var (
	// ErrInvalidJobs indicates a non-positive [batch].jobs.
	ErrInvalidJobs = errors.New("[batch].jobs must be positive")
	// ErrInvalidMaxDiagnostics indicates a negative [translate].max_diagnostics.
	ErrInvalidMaxDiagnostics = errors.New("[translate].max_diagnostics must not be negative")
	// ErrEmptyCacheDir indicates [cache].dir was set to an empty string.
	ErrEmptyCacheDir = errors.New("[cache].dir must not be empty")
)

// Config is the resolved project configuration.
type Config struct {
	// Path is the file the values came from, empty for defaults.
	Path string
	// Root is the directory relative paths are resolved against.
	Root string

	Translate Translate
	Batch     Batch
	Cache     Cache
}

type Translate struct {
	Target         translator.Target
	RapidIteration bool
	StatScopes     bool
	MaxDiagnostics int
}

type Batch struct {
	Jobs    int
	Scripts []string
}

type Cache struct {
	Enabled bool
	Dir     string
}

type fileConfig struct {
	Translate struct {
		Target         string `toml:"target"`
		RapidIteration bool   `toml:"rapid_iteration"`
		StatScopes     bool   `toml:"stat_scopes"`
		MaxDiagnostics int    `toml:"max_diagnostics"`
	} `toml:"translate"`
	Batch struct {
		Jobs    int      `toml:"jobs"`
		Scripts []string `toml:"scripts"`
	} `toml:"batch"`
	Cache struct {
		Enabled bool   `toml:"enabled"`
		Dir     string `toml:"dir"`
	} `toml:"cache"`
}

// Default returns the configuration used when no emberc.toml exists.
func Default() *Config {
	return &Config{
		Root: ".",
		Translate: Translate{
			Target: translator.TargetCPU,
		},
		Batch: Batch{
			Jobs: runtime.NumCPU(),
		},
		Cache: Cache{
			Enabled: true,
			Dir:     DefaultCacheDir,
		},
	}
}

// Load parses path. Keys that are absent keep their Default values.
func Load(path string) (*Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg := Default()
	cfg.Path = path
	cfg.Root = filepath.Dir(path)

	if meta.IsDefined("translate", "target") {
		target, err := translator.ParseTarget(raw.Translate.Target)
		if err != nil {
			return nil, fmt.Errorf("%s: [translate].target: %w", path, err)
		}
		cfg.Translate.Target = target
	}
	if meta.IsDefined("translate", "rapid_iteration") {
		cfg.Translate.RapidIteration = raw.Translate.RapidIteration
	}
	if meta.IsDefined("translate", "stat_scopes") {
		cfg.Translate.StatScopes = raw.Translate.StatScopes
	}
	if meta.IsDefined("translate", "max_diagnostics") {
		if raw.Translate.MaxDiagnostics < 0 {
			return nil, fmt.Errorf("%s: %w", path, ErrInvalidMaxDiagnostics)
		}
		cfg.Translate.MaxDiagnostics = raw.Translate.MaxDiagnostics
	}

	if meta.IsDefined("batch", "jobs") {
		if raw.Batch.Jobs <= 0 {
			return nil, fmt.Errorf("%s: %w", path, ErrInvalidJobs)
		}
		cfg.Batch.Jobs = raw.Batch.Jobs
	}
	if meta.IsDefined("batch", "scripts") {
		cfg.Batch.Scripts = raw.Batch.Scripts
	}

	if meta.IsDefined("cache", "enabled") {
		cfg.Cache.Enabled = raw.Cache.Enabled
	}
	if meta.IsDefined("cache", "dir") {
		dir := strings.TrimSpace(raw.Cache.Dir)
		if dir == "" {
			return nil, fmt.Errorf("%s: %w", path, ErrEmptyCacheDir)
		}
		cfg.Cache.Dir = dir
	}
	return cfg, nil
}

// Options converts the [translate] section into translator options.
func (c *Config) Options() translator.Options {
	return translator.Options{
		Target:         c.Translate.Target,
		RapidIteration: c.Translate.RapidIteration,
		StatScopes:     c.Translate.StatScopes,
		MaxDiagnostics: c.Translate.MaxDiagnostics,
	}
}

// CacheDir is the absolute-or-root-relative cache directory.
func (c *Config) CacheDir() string {
	return c.resolve(c.Cache.Dir)
}

// ScriptPaths expands the [batch].scripts globs against Root. Results are
// sorted and unique.
func (c *Config) ScriptPaths() ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range c.Batch.Scripts {
		matches, err := filepath.Glob(c.resolve(pattern))
		if err != nil {
			return nil, fmt.Errorf("[batch].scripts %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.Root == "" {
		return p
	}
	return filepath.Join(c.Root, p)
}
