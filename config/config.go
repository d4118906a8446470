package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/timgluz/soilflag/reading"
)

const (
	EnvPrefix = "SOILFLAG"
	// LegacyAPIKeyEnv is read when no API key is configured otherwise.
	LegacyAPIKeyEnv = "X_API_KEY"

	StoreCSV    = "csv"
	StoreSQLite = "sqlite"

	OracleThreshold = "threshold"
	OracleExec      = "exec"
)

var ErrInvalidConfig = fmt.Errorf("invalid configuration")

type Config struct {
	API      APIConfig      `yaml:"api" envconfig:"API"`
	Catalog  CatalogConfig  `yaml:"catalog" envconfig:"CATALOG"`
	Store    StoreConfig    `yaml:"store" envconfig:"STORE"`
	Flagging FlaggingConfig `yaml:"flagging" envconfig:"FLAGGING"`
	Oracle   OracleConfig   `yaml:"oracle" envconfig:"ORACLE"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOG"`
	Metrics  MetricsConfig  `yaml:"metrics" envconfig:"METRICS"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Report   ReportConfig   `yaml:"report" envconfig:"REPORT"`
}

type APIConfig struct {
	BaseURL           string        `yaml:"base_url" split_words:"true" validate:"required,url"`
	Key               string        `yaml:"key"`
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" split_words:"true" validate:"gte=0"`
	Burst             int           `yaml:"burst" validate:"gte=1"`
}

type CatalogConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type StoreConfig struct {
	Kind string `yaml:"kind" validate:"oneof=csv sqlite"`
	Path string `yaml:"path" validate:"required"`
}

type FlaggingConfig struct {
	// SamplingInterval is an ISO-8601 duration such as PT4H.
	SamplingInterval string `yaml:"sampling_interval" split_words:"true" validate:"required"`
	FetchConcurrency int    `yaml:"fetch_concurrency" split_words:"true" validate:"gte=1,lte=32"`
}

type OracleConfig struct {
	Kind       string        `yaml:"kind" validate:"oneof=threshold exec"`
	Command    string        `yaml:"command" validate:"required_if=Kind exec"`
	Args       []string      `yaml:"args"`
	Timeout    time.Duration `yaml:"timeout" validate:"gte=0"`
	Minimum    float64       `yaml:"minimum"`
	Maximum    float64       `yaml:"maximum" validate:"gtfield=Minimum"`
	SpikeRatio float64       `yaml:"spike_ratio" split_words:"true" validate:"gt=0"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type MetricsConfig struct {
	// TextfilePath is where run metrics are written for the node exporter.
	TextfilePath string `yaml:"textfile_path" split_words:"true"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
	// Tokens maps client names to bearer tokens; empty disables auth.
	Tokens map[string]string `yaml:"tokens"`
}

const DefaultAPIBaseURL = "https://api.precisionsustainableag.org"

type ReportConfig struct {
	XLSXPath string `yaml:"xlsx_path" split_words:"true"`
}

func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           DefaultAPIBaseURL,
			Timeout:           30 * time.Second,
			RequestsPerSecond: 2,
			Burst:             1,
		},
		Catalog: CatalogConfig{Path: "farm_codes.csv"},
		Store:   StoreConfig{Kind: StoreCSV, Path: "all_flags.csv"},
		Flagging: FlaggingConfig{
			SamplingInterval: reading.DefaultSamplingInterval,
			FetchConcurrency: 1,
		},
		Oracle: OracleConfig{
			Kind:       OracleThreshold,
			Timeout:    5 * time.Minute,
			Minimum:    0,
			Maximum:    60,
			SpikeRatio: 0.15,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Server:  ServerConfig{Addr: ":8080"},
	}
}

// Load reads the optional YAML file at path on top of the defaults, applies
// SOILFLAG_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := decodeYAML(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if cfg.API.Key == "" {
		cfg.API.Key = os.Getenv(LegacyAPIKeyEnv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if _, err := c.Frequency(); err != nil {
		return fmt.Errorf("%w: flagging.sampling_interval: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Frequency converts the sampling interval to readings per hour.
func (c *Config) Frequency() (float64, error) {
	return reading.FrequencyFromISO8601(c.Flagging.SamplingInterval)
}

// Redacted returns a copy without secrets, for logging.
func (c Config) Redacted() Config {
	if c.API.Key != "" {
		c.API.Key = "***"
	}
	if len(c.Server.Tokens) > 0 {
		tokens := make(map[string]string, len(c.Server.Tokens))
		for client := range c.Server.Tokens {
			tokens[client] = "***"
		}
		c.Server.Tokens = tokens
	}
	return c
}
