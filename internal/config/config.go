package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/iamwavecut/spamguard/internal/monitor"
)

const (
	envPrefix         = "SG_"
	defaultMonitorYML = "monitor.yml"
	defaultJournalDB  = "journal.db"
)

type (
	Config struct {
		TelegramAPIToken  string `env:"TOKEN"`
		LogLevel          int    `env:"LOG_LEVEL,default=4"`
		DotPath           string `env:"DOT_PATH,default=~/.spamguard"`
		MonitorConfigPath string `env:"MONITOR_CONFIG"`
		MetricsAddr       string `env:"METRICS_ADDR"`
		Journal           Journal
		Telegram          Telegram
	}

	Journal struct {
		Enabled   bool   `env:"JOURNAL_ENABLED,default=true"`
		Path      string `env:"JOURNAL_PATH"`
		QueueSize int    `env:"JOURNAL_QUEUE_SIZE,default=256"`
	}

	Telegram struct {
		SendRate      float64       `env:"SEND_RATE,default=1"`
		SendBurst     int           `env:"SEND_BURST,default=3"`
		AdminCacheTTL time.Duration `env:"ADMIN_CACHE_TTL,default=5m"`
		PollTimeout   int           `env:"POLL_TIMEOUT,default=60"`
	}
)

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

// Load reads the process configuration from SG_ prefixed environment variables once.
func Load() (Config, error) {
	once.Do(func() {
		cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
		if err != nil {
			globalErr = err
			return
		}
		log.Traceln("loaded config")
		globalConfig = &cfg
	})
	return *globalConfig, globalErr
}

// LoadWith resolves the configuration from an arbitrary lookuper and expands paths.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	cfg := Config{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Lookuper: envconfig.PrefixLookuper(envPrefix, lookuper),
		Target:   &cfg,
	}); err != nil {
		return Config{}, fmt.Errorf("process env config: %w", err)
	}

	dotPath, err := homedir.Expand(cfg.DotPath)
	if err != nil {
		return Config{}, fmt.Errorf("expand dot path: %w", err)
	}
	cfg.DotPath = dotPath

	if cfg.Journal.Path == "" {
		cfg.Journal.Path = filepath.Join(cfg.DotPath, defaultJournalDB)
	}
	if cfg.Journal.Path, err = homedir.Expand(cfg.Journal.Path); err != nil {
		return Config{}, fmt.Errorf("expand journal path: %w", err)
	}
	if cfg.MonitorConfigPath, err = homedir.Expand(cfg.MonitorConfigPath); err != nil {
		return Config{}, fmt.Errorf("expand monitor config path: %w", err)
	}
	return cfg, nil
}

// MonitorFile is the monitor options file: the explicit path, or monitor.yml in the dot path.
func (c Config) MonitorFile() string {
	if c.MonitorConfigPath != "" {
		return c.MonitorConfigPath
	}
	return filepath.Join(c.DotPath, defaultMonitorYML)
}

// LoadMonitorOptions decodes a YAML options file. A missing file yields empty options, so every
// setting takes its default.
func LoadMonitorOptions(path string) (monitor.Options, error) {
	opts := monitor.Options{}
	if path == "" {
		return opts, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.WithField("path", path).Debug("no monitor config file, using defaults")
			return opts, nil
		}
		return opts, fmt.Errorf("read monitor config: %w", err)
	}
	if err := yaml.UnmarshalStrict(raw, &opts); err != nil {
		return opts, fmt.Errorf("decode monitor config %s: %w", path, err)
	}
	return opts, nil
}

// MonitorConfig loads the options file and resolves it over the defaults. Unordered thresholds
// are logged and tolerated; any other validation error is returned.
func (c Config) MonitorConfig() (monitor.Config, error) {
	opts, err := LoadMonitorOptions(c.MonitorFile())
	if err != nil {
		return monitor.Config{}, err
	}
	cfg := monitor.NewConfig(opts)
	if err := cfg.Validate(); err != nil {
		if !errors.Is(err, monitor.ErrThresholdOrder) {
			return monitor.Config{}, err
		}
		log.WithFields(log.Fields{
			"warn": cfg.WarnThreshold,
			"kick": cfg.KickThreshold,
			"ban":  cfg.BanThreshold,
		}).Warn(err.Error())
	}
	return cfg, nil
}
