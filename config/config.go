// Package config loads agent configuration from the environment and an
// optional YAML file.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultEvaluateInterval = 30 * time.Second
	defaultBackoffInterval  = 5 * time.Minute
	defaultOrderDelay       = 1 * time.Second
	defaultHistoryDays      = 365
	defaultQuoteCurrency    = "brl"
	defaultNotificationFeed = "harvester"
)

// defaultEnabledSymbols is the fixed allow-list for the re-entry buy path.
var defaultEnabledSymbols = []string{"bitcoin", "ethereum", "solana"}

// Config is the resolved agent configuration.
type Config struct {
	// Live submits orders for real; otherwise every submission is dry-run.
	Live bool

	EncryptionKey           string
	FirebaseCredentialsFile string
	FirebaseDatabaseURL     string
	CoingeckoAPIKey         string

	EvaluateInterval time.Duration
	BackoffInterval  time.Duration
	OrderDelay       time.Duration

	HistoryDays      int
	QuoteCurrency    string
	NotificationFeed string
	EnabledSymbols   []string
	JournalDir       string
}

// configTmp mirrors the YAML file; durations come in as strings.
type configTmp struct {
	EvaluateIntervalStr string   `yaml:"evaluate_interval,omitempty"`
	BackoffIntervalStr  string   `yaml:"backoff_interval,omitempty"`
	OrderDelayStr       string   `yaml:"order_delay,omitempty"`
	HistoryDays         int      `yaml:"history_days,omitempty"`
	QuoteCurrency       string   `yaml:"quote_currency,omitempty"`
	NotificationFeed    string   `yaml:"notification_feed,omitempty"`
	EnabledSymbols      []string `yaml:"enabled_symbols,omitempty"`
	JournalDir          string   `yaml:"journal_dir,omitempty"`
}

// Get resolves the configuration: defaults, then the optional --config YAML
// file, with secrets and the run mode always taken from the environment.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	flag.Parse()

	// a missing .env file is fine, the environment may be set directly
	_ = godotenv.Load()

	cfg := Config{
		Live:                    os.Getenv("ENVIRONMENT") == "SERVER",
		EncryptionKey:           os.Getenv("ENCRYPTION_KEY"),
		FirebaseCredentialsFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		FirebaseDatabaseURL:     os.Getenv("FIREBASE_DATABASE_URL"),
		CoingeckoAPIKey:         os.Getenv("COINGECKO_API_KEY"),
		EvaluateInterval:        defaultEvaluateInterval,
		BackoffInterval:         defaultBackoffInterval,
		OrderDelay:              defaultOrderDelay,
		HistoryDays:             defaultHistoryDays,
		QuoteCurrency:           defaultQuoteCurrency,
		NotificationFeed:        defaultNotificationFeed,
		EnabledSymbols:          defaultEnabledSymbols,
	}

	if *configPath != "" {
		if err := applyYaml(&cfg, *configPath); err != nil {
			return Config{}, err
		}
	}

	if cfg.EncryptionKey == "" {
		return Config{}, fmt.Errorf("ENCRYPTION_KEY env is not set")
	}
	if cfg.FirebaseCredentialsFile == "" {
		return Config{}, fmt.Errorf("FIREBASE_CREDENTIALS_FILE env is not set")
	}
	if cfg.FirebaseDatabaseURL == "" {
		return Config{}, fmt.Errorf("FIREBASE_DATABASE_URL env is not set")
	}

	return cfg, nil
}

func applyYaml(cfg *Config, path string) error {
	f, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read yaml config: %w", err)
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return fmt.Errorf("parse yaml config: %w", err)
	}

	if tmp.EvaluateIntervalStr != "" {
		d, err := time.ParseDuration(tmp.EvaluateIntervalStr)
		if err != nil {
			return fmt.Errorf("incorrect 'evaluate_interval' param in yaml config: %w", err)
		}
		cfg.EvaluateInterval = d
	}
	if tmp.BackoffIntervalStr != "" {
		d, err := time.ParseDuration(tmp.BackoffIntervalStr)
		if err != nil {
			return fmt.Errorf("incorrect 'backoff_interval' param in yaml config: %w", err)
		}
		cfg.BackoffInterval = d
	}
	if tmp.OrderDelayStr != "" {
		d, err := time.ParseDuration(tmp.OrderDelayStr)
		if err != nil {
			return fmt.Errorf("incorrect 'order_delay' param in yaml config: %w", err)
		}
		cfg.OrderDelay = d
	}
	if tmp.HistoryDays > 0 {
		cfg.HistoryDays = tmp.HistoryDays
	}
	if tmp.QuoteCurrency != "" {
		cfg.QuoteCurrency = tmp.QuoteCurrency
	}
	if tmp.NotificationFeed != "" {
		cfg.NotificationFeed = tmp.NotificationFeed
	}
	if len(tmp.EnabledSymbols) > 0 {
		cfg.EnabledSymbols = tmp.EnabledSymbols
	}
	if tmp.JournalDir != "" {
		cfg.JournalDir = tmp.JournalDir
	}

	return nil
}
