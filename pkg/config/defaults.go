package config

// CurrentV is the current config schema version.
const CurrentV = 1

const (
	defaultStorageBackend = "sqlite"
	defaultSQLitePath     = "soriva-memory.db"

	defaultSummaryThreshold   = 6
	defaultMaxRawMessages     = 3
	defaultMaxSummaryTokens   = 500
	defaultMaxMessageContent  = 200
	defaultMaxFactKeys        = 50
	defaultMaxFactValueLength = 500

	defaultNumWorkers = 2
	defaultQueueSize  = 256

	defaultExtractorProvider = "nop"
	defaultExtractorModel    = "claude-haiku-4-5"

	defaultEventStreamProvider = "nop"
	defaultEventStreamTopic    = "soriva.memory.events"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Backend:    defaultStorageBackend,
			SQLitePath: defaultSQLitePath,
		},
		Memory: MemoryConfig{
			SummaryThreshold:   defaultSummaryThreshold,
			MaxRawMessages:     defaultMaxRawMessages,
			MaxSummaryTokens:   defaultMaxSummaryTokens,
			MaxMessageContent:  defaultMaxMessageContent,
			MaxFactKeys:        defaultMaxFactKeys,
			MaxFactValueLength: defaultMaxFactValueLength,
		},
		Worker: WorkerConfig{
			NumWorkers: defaultNumWorkers,
			QueueSize:  defaultQueueSize,
		},
		Extractor: ExtractorConfig{
			Provider: defaultExtractorProvider,
			Model:    defaultExtractorModel,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
	}
}
