// Package openstore resolves the effective config and wires the full
// memory runtime: storage backend, store, extractor, event publisher,
// worker pool and service facade. Shared by the sorivamem subcommands so
// provider selection lives in one place.
package openstore

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Aman3189/soriva-backend-sub004/pkg/config"
	"github.com/Aman3189/soriva-backend-sub004/pkg/eventstream"
	eskafka "github.com/Aman3189/soriva-backend-sub004/pkg/eventstream/kafka"
	esnop "github.com/Aman3189/soriva-backend-sub004/pkg/eventstream/nop"
	"github.com/Aman3189/soriva-backend-sub004/pkg/extractor"
	exanthropic "github.com/Aman3189/soriva-backend-sub004/pkg/extractor/anthropic"
	exnop "github.com/Aman3189/soriva-backend-sub004/pkg/extractor/nop"
	"github.com/Aman3189/soriva-backend-sub004/pkg/logger"
	"github.com/Aman3189/soriva-backend-sub004/pkg/memory"
	"github.com/Aman3189/soriva-backend-sub004/pkg/service"
	"github.com/Aman3189/soriva-backend-sub004/pkg/storage"
	"github.com/Aman3189/soriva-backend-sub004/pkg/storage/inmemory"
	"github.com/Aman3189/soriva-backend-sub004/pkg/storage/postgres"
	"github.com/Aman3189/soriva-backend-sub004/pkg/storage/sqlite"
	"github.com/Aman3189/soriva-backend-sub004/pkg/worker"
)

// Env bundles everything a subcommand needs to talk to memory.
type Env struct {
	Config    *config.Config
	Logger    *zap.Logger
	Driver    storage.Driver
	Store     *memory.Store
	Extractor extractor.Driver
	Publisher eventstream.Publisher
	Pool      *worker.Pool
	Service   *service.Service
}

// FromCommand reads the root command's persistent flags and opens an Env.
func FromCommand(cmd *cobra.Command) (*Env, error) {
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return nil, err
	}
	configDir, err := cmd.Flags().GetString("config-dir")
	if err != nil {
		return nil, err
	}
	return Open(cmd.Context(), configDir, debug)
}

// Open loads config from configDir and wires the whole runtime.
func Open(ctx context.Context, configDir string, debug bool) (*Env, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}

	log := logger.New(debug)

	driver, err := openDriver(ctx, cfg)
	if err != nil {
		return nil, err
	}

	threshold, rawMax, summaryTokens, messageContent, factKeys, factValueLen := cfg.Memory.Limits()
	store, err := memory.NewStore(&memory.Config{
		Driver: driver,
		Limits: memory.Limits{
			SummaryThreshold:   threshold,
			MaxRawMessages:     rawMax,
			MaxSummaryTokens:   summaryTokens,
			MaxMessageContent:  messageContent,
			MaxFactKeys:        factKeys,
			MaxFactValueLength: factValueLen,
		},
		Logger: log,
	})
	if err != nil {
		_ = driver.Close()
		return nil, err
	}

	extr, err := openExtractor(cfg)
	if err != nil {
		_ = driver.Close()
		return nil, err
	}

	publisher, err := openPublisher(cfg)
	if err != nil {
		_ = extr.Close()
		_ = driver.Close()
		return nil, err
	}

	pool, err := worker.NewPool(&worker.Config{
		Store:      store,
		Extractor:  extr,
		Publisher:  publisher,
		NumWorkers: cfg.Worker.NumWorkers,
		QueueSize:  cfg.Worker.QueueSize,
		Logger:     log,
	})
	if err != nil {
		_ = publisher.Close()
		_ = extr.Close()
		_ = driver.Close()
		return nil, err
	}
	store.SetScheduler(pool)

	svc, err := service.New(&service.Config{
		Store:     store,
		Pool:      pool,
		Extractor: extr,
		Publisher: publisher,
		Logger:    log,
	})
	if err != nil {
		pool.Close()
		_ = publisher.Close()
		_ = extr.Close()
		_ = driver.Close()
		return nil, err
	}

	return &Env{
		Config:    cfg,
		Logger:    log,
		Driver:    driver,
		Store:     store,
		Extractor: extr,
		Publisher: publisher,
		Pool:      pool,
		Service:   svc,
	}, nil
}

// Close drains the worker pool and releases every backend, in dependency
// order.
func (e *Env) Close() error {
	e.Pool.Close()
	_ = e.Publisher.Close()
	_ = e.Extractor.Close()
	return e.Driver.Close()
}

func openDriver(ctx context.Context, cfg *config.Config) (storage.Driver, error) {
	switch cfg.Storage.Backend {
	case "sqlite", "":
		return sqlite.NewDriver(cfg.Storage.SQLitePath)
	case "postgres":
		return postgres.NewDriver(ctx, cfg.Storage.PostgresDSN)
	case "inmemory":
		return inmemory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func openExtractor(cfg *config.Config) (extractor.Driver, error) {
	switch cfg.Extractor.Provider {
	case "nop", "":
		return exnop.NewDriver(), nil
	case "anthropic":
		return exanthropic.NewDriver(exanthropic.Config{Model: cfg.Extractor.Model}), nil
	default:
		return nil, fmt.Errorf("unknown extractor provider %q", cfg.Extractor.Provider)
	}
}

func openPublisher(cfg *config.Config) (eventstream.Publisher, error) {
	switch cfg.EventStream.Provider {
	case "nop", "":
		return esnop.NewPublisher(), nil
	case "kafka":
		return eskafka.NewPublisher(eskafka.Config{
			Brokers: cfg.EventStream.Brokers,
			Topic:   cfg.EventStream.Topic,
		})
	default:
		return nil, fmt.Errorf("unknown eventstream provider %q", cfg.EventStream.Provider)
	}
}
