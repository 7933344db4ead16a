package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.config/tada/tada.toml)
// 3. Project config file (./tada.toml), or the file named by -config / TADA_CONFIG
// 4. Environment variables
// 5. CLI flags
//
// The remaining positional arguments are returned alongside the config.
func Load(fs *flag.FlagSet, args []string) (*Config, []string, error) {
	if fs == nil {
		fs = flag.NewFlagSet("todo", flag.ContinueOnError)
	}
	var fl flagValues
	bindFlags(fs, &fl)
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("parsing flags: %w", err)
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := &Config{}
	setDefaults(cfg)

	if p := userConfigFile(); p != "" {
		if err := loadConfigFile(cfg, p); err != nil {
			return nil, nil, fmt.Errorf("loading user config file %s: %w", p, err)
		}
	}

	explicit := os.Getenv("TADA_CONFIG")
	if set["config"] {
		explicit = fl.config
	}
	if explicit != "" {
		if err := loadConfigFile(cfg, explicit); err != nil {
			return nil, nil, fmt.Errorf("loading config file %s: %w", explicit, err)
		}
		cfg.ConfigFile = explicit
	} else if p := projectConfigFile(); p != "" {
		if err := loadConfigFile(cfg, p); err != nil {
			return nil, nil, fmt.Errorf("loading project config file %s: %w", p, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, nil, fmt.Errorf("reading environment: %w", err)
	}
	fl.apply(cfg, set)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}

func loadConfigFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func userConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return existing(filepath.Join(dir, "tada", FileName))
}

func projectConfigFile() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	if p := existing(filepath.Join(wd, FileName)); p != "" {
		return p
	}
	return existing(filepath.Join(wd, "."+FileName))
}

func existing(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// loadFromEnv overrides config from TADA_* environment variables.
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("TADA_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("TADA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TADA_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("TADA_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("TADA_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("TADA_TOKEN")); v != "" {
		cfg.Token = v
	}
	var errs []error
	if v := os.Getenv("TADA_GROUP"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TADA_GROUP: %w", err))
		} else {
			cfg.Group = b
		}
	}
	if v := os.Getenv("TADA_SEED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TADA_SEED: %w", err))
		} else {
			cfg.Seed = b
		}
	}
	return errors.Join(errs...)
}

type flagValues struct {
	config    string
	theme     string
	group     bool
	logLevel  string
	logFormat string
	logFile   string
	listen    string
	token     string
	seed      bool
}

func bindFlags(fs *flag.FlagSet, fl *flagValues) {
	fs.StringVar(&fl.config, "config", "", "Path to a tada.toml config file")
	fs.StringVar(&fl.theme, "theme", DefaultTheme, "Output theme: classic, neon or mono")
	fs.BoolVar(&fl.group, "group", false, "Group list output by pending/done")
	fs.StringVar(&fl.logLevel, "log-level", DefaultLogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&fl.logFormat, "log-format", DefaultLogFormat, "Log format: text, json or logfmt")
	fs.StringVar(&fl.logFile, "log-file", "", "Write logs to this file")
	fs.StringVar(&fl.listen, "listen", DefaultListen, "HTTP listen address for serve")
	fs.StringVar(&fl.token, "token", "", "Bearer token required by the HTTP API")
	fs.BoolVar(&fl.seed, "seed", true, "Start with the sample task")
}

// apply copies only the flags the user actually set.
func (fl *flagValues) apply(cfg *Config, set map[string]bool) {
	if set["theme"] {
		cfg.Theme = fl.theme
	}
	if set["group"] {
		cfg.Group = fl.group
	}
	if set["log-level"] {
		cfg.LogLevel = fl.logLevel
	}
	if set["log-format"] {
		cfg.LogFormat = fl.logFormat
	}
	if set["log-file"] {
		cfg.LogFile = fl.logFile
	}
	if set["listen"] {
		cfg.Listen = fl.listen
	}
	if set["token"] {
		cfg.Token = fl.token
	}
	if set["seed"] {
		cfg.Seed = fl.seed
	}
}
