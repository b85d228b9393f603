// Package config loads orderdeck settings from the environment and an
// optional YAML file, then validates the merged result against an embedded
// CUE schema.
//
// Precedence: environment variables override file values, file values
// override defaults. A .env file in the working directory is honored the
// same way the backend's dotenv setup is.
//
// Missing credentials (API base URL, KDS API key) are deliberately not a
// load error: surfaces render a dedicated configuration-error view instead
// of crashing, so Load reports them through MissingError and still returns
// the config it assembled.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// cuePathConfig addresses the #Config definition inside schema.cue.
var cuePathConfig = cue.ParsePath("#Config")

//go:embed schema.cue
var schemaCUE string

// Defaults applied when neither the environment nor the file sets a value.
const (
	DefaultListenAddr   = ":8090"
	DefaultStorePath    = "orderdeck.db"
	defaultPollSeconds  = 5
	defaultMenuTTLMins  = 5
)

// Config is the merged, validated configuration.
type Config struct {
	APIBaseURL   string `yaml:"api_base_url" json:"api_base_url"`
	KDSAPIKey    string `yaml:"kds_api_key" json:"kds_api_key"`
	RestaurantID string `yaml:"restaurant_id" json:"restaurant_id"`
	RealtimeURL  string `yaml:"realtime_url" json:"realtime_url"`
	RealtimeKey  string `yaml:"realtime_key" json:"realtime_key"`
	StorePath    string `yaml:"store_path" json:"store_path"`
	ListenAddr   string `yaml:"listen_addr" json:"listen_addr"`
	PollSeconds  int    `yaml:"poll_interval_seconds" json:"poll_interval_seconds"`
	MenuTTLMins  int    `yaml:"menu_ttl_minutes" json:"menu_ttl_minutes"`
}

// PollInterval is how often displays refetch the order list.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

// MenuTTL is the freshness window of the per-restaurant menu cache.
func (c Config) MenuTTL() time.Duration {
	return time.Duration(c.MenuTTLMins) * time.Minute
}

// MissingError reports configuration values that are required for the
// requested surface but absent. Callers render the configuration-error
// view rather than treating this as a crash.
type MissingError struct {
	Fields []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Fields, ", "))
}

// Load assembles the configuration from defaults, the optional YAML file at
// path (empty path skips the file), and the environment. The merged result
// is validated against the embedded CUE schema; schema violations are hard
// errors, missing credentials come back as *MissingError alongside the
// assembled config.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		StorePath:   DefaultStorePath,
		ListenAddr:  DefaultListenAddr,
		PollSeconds: defaultPollSeconds,
		MenuTTLMins: defaultMenuTTLMins,
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	var missing []string
	if cfg.APIBaseURL == "" {
		missing = append(missing, "API_BASE_URL")
	}
	if cfg.KDSAPIKey == "" {
		missing = append(missing, "KDS_API_KEY")
	}
	if len(missing) > 0 {
		return cfg, &MissingError{Fields: missing}
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(dest *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dest = v
		}
	}
	setString(&cfg.APIBaseURL, "API_BASE_URL")
	setString(&cfg.KDSAPIKey, "KDS_API_KEY")
	setString(&cfg.RestaurantID, "RESTAURANT_ID")
	setString(&cfg.RealtimeURL, "REALTIME_URL")
	setString(&cfg.RealtimeKey, "REALTIME_KEY")
	setString(&cfg.StorePath, "STORE_PATH")
	setString(&cfg.ListenAddr, "LISTEN_ADDR")

	setInt := func(dest *int, key string) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dest = n
			}
		}
	}
	setInt(&cfg.PollSeconds, "POLL_INTERVAL_SECONDS")
	setInt(&cfg.MenuTTLMins, "MENU_TTL_MINUTES")
}

// validate unifies the JSON form of cfg with the #Config schema.
func validate(cfg Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE).LookupPath(cuePathConfig)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	data := ctx.CompileBytes(raw)
	if err := data.Err(); err != nil {
		return fmt.Errorf("decode config for validation: %w", err)
	}

	if err := schema.Unify(data).Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
