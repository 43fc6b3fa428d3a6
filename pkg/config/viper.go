package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// InitViper creates and returns a configured *viper.Viper. It sets
// defaults from NewDefaultConfig(), reads config.toml from configDir if
// present, and binds environment variables with the SORIVA_ prefix.
//
// Config precedence (highest to lowest):
//  1. Environment variables (SORIVA_STORAGE_BACKEND, SORIVA_MEMORY_SUMMARY_THRESHOLD, ...)
//  2. config.toml file values
//  3. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("SORIVA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper unmarshals a configured viper into a Config.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Load resolves the effective config from configDir in one call.
func Load(configDir string) (*Config, error) {
	v, err := InitViper(configDir)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source
// of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Storage
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	// Memory
	v.SetDefault("memory.summary_threshold", d.Memory.SummaryThreshold)
	v.SetDefault("memory.max_raw_messages", d.Memory.MaxRawMessages)
	v.SetDefault("memory.max_summary_tokens", d.Memory.MaxSummaryTokens)
	v.SetDefault("memory.max_message_content", d.Memory.MaxMessageContent)
	v.SetDefault("memory.max_fact_keys", d.Memory.MaxFactKeys)
	v.SetDefault("memory.max_fact_value_length", d.Memory.MaxFactValueLength)

	// Worker
	v.SetDefault("worker.num_workers", d.Worker.NumWorkers)
	v.SetDefault("worker.queue_size", d.Worker.QueueSize)

	// Extractor
	v.SetDefault("extractor.provider", d.Extractor.Provider)
	v.SetDefault("extractor.model", d.Extractor.Model)

	// Event stream
	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)
}

// Limits returns the memory bounds as concrete values, substituting
// defaults for unset fields.
func (m MemoryConfig) Limits() (summaryThreshold, maxRawMessages, maxSummaryTokens, maxMessageContent, maxFactKeys, maxFactValueLength int) {
	d := NewDefaultConfig().Memory
	pick := func(v, def int) int {
		if v <= 0 {
			return def
		}
		return v
	}
	return pick(m.SummaryThreshold, d.SummaryThreshold),
		pick(m.MaxRawMessages, d.MaxRawMessages),
		pick(m.MaxSummaryTokens, d.MaxSummaryTokens),
		pick(m.MaxMessageContent, d.MaxMessageContent),
		pick(m.MaxFactKeys, d.MaxFactKeys),
		pick(m.MaxFactValueLength, d.MaxFactValueLength)
}
