// Package config loads the soriva memory configuration from defaults, a
// config.toml file, and SORIVA_-prefixed environment variables.
package config

// Config is the persistent configuration. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version     int               `mapstructure:"version" toml:"version"`
	Storage     StorageConfig     `mapstructure:"storage" toml:"storage"`
	Memory      MemoryConfig      `mapstructure:"memory" toml:"memory"`
	Worker      WorkerConfig      `mapstructure:"worker" toml:"worker"`
	Extractor   ExtractorConfig   `mapstructure:"extractor" toml:"extractor"`
	EventStream EventStreamConfig `mapstructure:"eventstream" toml:"eventstream"`
}

// StorageConfig selects and configures the persistence gateway.
type StorageConfig struct {
	// Backend is "sqlite", "postgres" or "inmemory".
	Backend string `mapstructure:"backend" toml:"backend,omitempty"`

	// SQLitePath is the database file path for the sqlite backend.
	SQLitePath string `mapstructure:"sqlite_path" toml:"sqlite_path,omitempty"`

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `mapstructure:"postgres_dsn" toml:"postgres_dsn,omitempty"`
}

// MemoryConfig bounds the three memory layers.
type MemoryConfig struct {
	SummaryThreshold   int `mapstructure:"summary_threshold" toml:"summary_threshold,omitempty"`
	MaxRawMessages     int `mapstructure:"max_raw_messages" toml:"max_raw_messages,omitempty"`
	MaxSummaryTokens   int `mapstructure:"max_summary_tokens" toml:"max_summary_tokens,omitempty"`
	MaxMessageContent  int `mapstructure:"max_message_content" toml:"max_message_content,omitempty"`
	MaxFactKeys        int `mapstructure:"max_fact_keys" toml:"max_fact_keys,omitempty"`
	MaxFactValueLength int `mapstructure:"max_fact_value_length" toml:"max_fact_value_length,omitempty"`
}

// WorkerConfig sizes the maintenance pool.
type WorkerConfig struct {
	NumWorkers uint `mapstructure:"num_workers" toml:"num_workers,omitempty"`
	QueueSize  uint `mapstructure:"queue_size" toml:"queue_size,omitempty"`
}

// ExtractorConfig selects the fact extractor backend.
type ExtractorConfig struct {
	// Provider is "nop" or "anthropic".
	Provider string `mapstructure:"provider" toml:"provider,omitempty"`

	// Model is the model identifier for LLM-backed providers.
	Model string `mapstructure:"model" toml:"model,omitempty"`
}

// EventStreamConfig selects the event publisher backend.
type EventStreamConfig struct {
	// Provider is "nop" or "kafka".
	Provider string `mapstructure:"provider" toml:"provider,omitempty"`

	// Brokers is the Kafka bootstrap broker list.
	Brokers []string `mapstructure:"brokers" toml:"brokers,omitempty"`

	// Topic is the Kafka destination topic.
	Topic string `mapstructure:"topic" toml:"topic,omitempty"`
}
