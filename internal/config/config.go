// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	DB      DBConfig      `mapstructure:"db"`
	Media   MediaConfig   `mapstructure:"media"`
	Ingest  IngestConfig  `mapstructure:"ingest"`
	Feed    FeedConfig    `mapstructure:"feed"`
	Reaper  ReaperConfig  `mapstructure:"reaper"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles for the public surface.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// DBConfig controls access to the catalog database. An empty DSN runs
// the service against the in-memory store.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// MediaConfig sets the blob bucket and object naming for uploads.
type MediaConfig struct {
	GCSBucket   string `mapstructure:"gcs_bucket"`
	Prefix      string `mapstructure:"prefix"`
	ContentType string `mapstructure:"content_type"`
}

// IngestConfig governs the operator ingestion workflow.
type IngestConfig struct {
	OperatorID       string `mapstructure:"operator_id"`
	CommandQueueSize int    `mapstructure:"command_queue_size"`
	SessionTTLSec    int    `mapstructure:"session_ttl_seconds"`
	ExpirySweepSec   int    `mapstructure:"expiry_sweep_seconds"`
}

// FeedConfig bounds the public feed.
type FeedConfig struct {
	MaxItems int `mapstructure:"max_items"`
}

// ReaperConfig governs the link health sweep.
type ReaperConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	IntervalSec     int     `mapstructure:"interval_seconds"`
	ProbeTimeoutSec int     `mapstructure:"probe_timeout_seconds"`
	ProbeRPS        float64 `mapstructure:"probe_rps"`
	Concurrency     int     `mapstructure:"concurrency"`
}

// PubSubConfig holds metadata for commit event notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "media_content")
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("media.gcs_bucket", "")
	v.SetDefault("media.prefix", "media")
	v.SetDefault("media.content_type", "image/jpeg")
	v.SetDefault("ingest.operator_id", "")
	v.SetDefault("ingest.command_queue_size", 64)
	v.SetDefault("ingest.session_ttl_seconds", 900)
	v.SetDefault("ingest.expiry_sweep_seconds", 60)
	v.SetDefault("feed.max_items", 50)
	v.SetDefault("reaper.enabled", true)
	v.SetDefault("reaper.interval_seconds", 3600)
	v.SetDefault("reaper.probe_timeout_seconds", 10)
	v.SetDefault("reaper.probe_rps", 5)
	v.SetDefault("reaper.concurrency", 4)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Ingest.OperatorID == "" {
		return fmt.Errorf("ingest.operator_id must be set")
	}
	if c.Ingest.SessionTTLSec <= 0 {
		return fmt.Errorf("ingest.session_ttl_seconds must be > 0")
	}
	if c.Feed.MaxItems <= 0 {
		return fmt.Errorf("feed.max_items must be > 0")
	}
	if c.Reaper.Enabled {
		if c.Reaper.IntervalSec <= 0 {
			return fmt.Errorf("reaper.interval_seconds must be > 0")
		}
		if c.Reaper.Concurrency <= 0 {
			return fmt.Errorf("reaper.concurrency must be > 0")
		}
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// SessionTTL converts the ingest idle timeout into a duration.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.Ingest.SessionTTLSec) * time.Second
}

// ExpirySweep converts the session expiry sweep interval into a duration.
func (c Config) ExpirySweep() time.Duration {
	return time.Duration(c.Ingest.ExpirySweepSec) * time.Second
}

// ReaperInterval converts the sweep interval into a duration.
func (c Config) ReaperInterval() time.Duration {
	return time.Duration(c.Reaper.IntervalSec) * time.Second
}

// ProbeTimeout converts the probe timeout into a duration.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Reaper.ProbeTimeoutSec) * time.Second
}
