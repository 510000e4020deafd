package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"emberc/internal/cache"
	"emberc/internal/config"
	"emberc/internal/translator"
)

// settings is the project configuration with command line overrides
// applied.
type settings struct {
	cfg      *config.Config
	opts     translator.Options
	useColor bool
	timings  bool
	cache    *cache.Store
}

func loadSettings(cmd *cobra.Command) (*settings, error) {
	flags := cmd.Flags()

	path, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg *config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return nil, err
	}

	if flags.Changed("target") {
		value, _ := flags.GetString("target")
		target, err := translator.ParseTarget(value)
		if err != nil {
			return nil, err
		}
		cfg.Translate.Target = target
	}
	if flags.Changed("rapid-iteration") {
		cfg.Translate.RapidIteration, _ = flags.GetBool("rapid-iteration")
	}
	if flags.Changed("stat-scopes") {
		cfg.Translate.StatScopes, _ = flags.GetBool("stat-scopes")
	}
	if flags.Changed("max-diagnostics") {
		n, _ := flags.GetInt("max-diagnostics")
		if n < 0 {
			return nil, fmt.Errorf("--max-diagnostics must not be negative")
		}
		cfg.Translate.MaxDiagnostics = n
	}
	if noCache, _ := flags.GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	if flags.Changed("cache-dir") {
		cfg.Cache.Dir, _ = flags.GetString("cache-dir")
	}

	s := &settings{cfg: cfg, opts: cfg.Options()}
	s.timings, err = flags.GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	s.opts.Timings = s.timings

	colorFlag, err := flags.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch strings.ToLower(colorFlag) {
	case "on":
		s.useColor = true
	case "off":
	case "auto", "":
		s.useColor = isTerminal(os.Stderr)
	default:
		return nil, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}

	if cfg.Cache.Enabled {
		s.cache, err = cache.Open(cfg.CacheDir())
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}
