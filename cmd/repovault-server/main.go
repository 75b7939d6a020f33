// Package main provides the entry point for repovault-server.
//
// repovault-server issues, lists, and revokes repository access
// credentials. Issued data keys are envelope-encrypted: the ciphertext
// half is persisted as the token, the plaintext half is returned to the
// caller once and never stored.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"

	"github.com/repovault/repovault-go/internal/core/service"
	"github.com/repovault/repovault-go/internal/infra/buildinfo"
	"github.com/repovault/repovault-go/internal/infra/confloader"
	"github.com/repovault/repovault-go/internal/infra/shutdown"
	"github.com/repovault/repovault-go/internal/keyprovider"
	"github.com/repovault/repovault-go/internal/server/config"
	"github.com/repovault/repovault-go/internal/server/httpserver"
	"github.com/repovault/repovault-go/internal/storage"
	"github.com/repovault/repovault-go/internal/storage/badgerstore"
	"github.com/repovault/repovault-go/internal/storage/dynamo"
	"github.com/repovault/repovault-go/internal/storage/memory"
	"github.com/repovault/repovault-go/internal/telemetry/logger"
	"github.com/repovault/repovault-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("repovault-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, slogLogger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.Info("starting repovault-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", *configFile,
		"store_backend", cfg.Store.Backend,
		"key_backend", cfg.KeyProvider.Backend)

	ctx := context.Background()
	metrics := metric.NewRegistry()

	store, err := initStore(ctx, cfg, slogLogger, metrics)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	provider, err := initKeyProvider(ctx, cfg, slogLogger)
	if err != nil {
		return fmt.Errorf("init key provider: %w", err)
	}

	svc := service.NewCredentialService(provider, store, slogLogger)

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Service:   svc,
		Logger:    log,
		Metrics:   metrics,
		RateLimit: cfg.Server.RateLimit,
		RateBurst: cfg.Server.RateBurst,
	})

	httpServer := httpserver.New(httpserver.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, router)

	// Reload log level on config file changes.
	var watcher *confloader.Watcher
	if *configFile != "" {
		watcher, err = startConfigWatcher(*configFile, slogLogger)
		if err != nil {
			log.Warn("config watcher unavailable", "error", err)
		}
	}

	shutdownHandler := shutdown.NewHandler(cfg.Server.ShutdownTimeout)

	shutdownHandler.OnShutdown(func(context.Context) error {
		log.Info("shutting down token store")
		return store.Close()
	})
	if watcher != nil {
		shutdownHandler.OnShutdown(func(context.Context) error {
			return watcher.Stop()
		})
	}
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig merges defaults, the optional YAML file, and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger initializes the structured logger and returns both the
// interface and a *slog.Logger for components that take one directly.
func initLogger(cfg *config.ServerConfig) (logger.Logger, *slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.SetDefault(log)
	return log, logger.Slog(log), nil
}

// initStore constructs the configured token store backend.
func initStore(ctx context.Context, cfg *config.ServerConfig, log *slog.Logger, metrics *metric.Registry) (storage.TokenStore, error) {
	observePages := func(pages int) {
		metrics.StorePages.Observe(float64(pages))
	}

	switch cfg.Store.Backend {
	case "memory":
		opts := []memory.Option{memory.WithPageObserver(observePages)}
		if cfg.Store.PageSize > 0 {
			opts = append(opts, memory.WithPageSize(cfg.Store.PageSize))
		}
		return memory.New(opts...), nil

	case "badger":
		bcfg := badgerstore.DefaultConfig(cfg.Store.Badger.Dir)
		bcfg.SyncWrites = cfg.Store.Badger.SyncWrites
		bcfg.PageObserver = observePages
		if cfg.Store.Badger.GCInterval > 0 {
			bcfg.GCInterval = cfg.Store.Badger.GCInterval
		}
		if cfg.Store.PageSize > 0 {
			bcfg.PageSize = cfg.Store.PageSize
		}
		return badgerstore.New(bcfg, log)

	case "dynamo":
		awsCfg, err := loadAWSConfig(ctx, cfg.Store.Dynamo.Region)
		if err != nil {
			return nil, fmt.Errorf("aws config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg)
		return dynamo.New(client, cfg.Store.Dynamo.Table, log,
			dynamo.WithPageObserver(observePages)), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// initKeyProvider constructs the configured data-key provider.
func initKeyProvider(ctx context.Context, cfg *config.ServerConfig, log *slog.Logger) (keyprovider.Provider, error) {
	switch cfg.KeyProvider.Backend {
	case "kms":
		awsCfg, err := loadAWSConfig(ctx, cfg.KeyProvider.Region)
		if err != nil {
			return nil, fmt.Errorf("aws config: %w", err)
		}
		client := kms.NewFromConfig(awsCfg)
		return keyprovider.NewKMSProvider(client, cfg.KeyProvider.KeyID, log), nil

	case "local":
		masterKey, err := localMasterKey(cfg.KeyProvider.MasterKey, log)
		if err != nil {
			return nil, err
		}
		return keyprovider.NewLocalProvider(masterKey, cfg.KeyProvider.KeyID, log)

	default:
		return nil, fmt.Errorf("unknown key provider backend %q", cfg.KeyProvider.Backend)
	}
}

// localMasterKey decodes the configured master key, or generates an
// ephemeral one. Ephemeral keys make stored tokens undecipherable after
// a restart, which is fine for development and nothing else.
func localMasterKey(encoded string, log *slog.Logger) ([]byte, error) {
	if encoded != "" {
		return base64.StdEncoding.DecodeString(encoded)
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate master key: %w", err)
	}
	log.Warn("no master key configured, generated an ephemeral one")
	return key, nil
}

func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

// startConfigWatcher reloads the log level when the config file changes.
func startConfigWatcher(path string, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(string) {
		cfg := config.Default()
		if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
			log.Error("config reload failed", "error", err)
			return
		}
		if err := config.Verify(cfg); err != nil {
			log.Error("reloaded config invalid", "error", err)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		log.Info("log level reloaded", "level", cfg.Log.Level)
	})

	watcher.StartAsync()
	return watcher, nil
}
