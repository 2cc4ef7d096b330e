package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/hushnetwork/token-factory/internal/adapter"
	"github.com/hushnetwork/token-factory/internal/api/server"
	"github.com/hushnetwork/token-factory/internal/config"
	"github.com/hushnetwork/token-factory/internal/contracts/factory"
	"github.com/hushnetwork/token-factory/internal/ledger"
	"github.com/hushnetwork/token-factory/internal/logger"
	"github.com/hushnetwork/token-factory/internal/providers/jetstream"
	"github.com/hushnetwork/token-factory/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

// factoryManifest names the factory account; together with the bootstrap
// owner it yields a stable factory address across restarts.
const factoryManifest = "token-factory-v1"

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Token Factory API")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	if err := store.AutoMigrate(db); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Connect to NATS JetStream
	publisher, err := jetstream.NewPublisher(jetstream.Config{
		URL:            cfg.NATS.URL,
		StreamName:     cfg.NATS.StreamName,
		MaxReconnects:  cfg.NATS.MaxReconnects,
		ReconnectWait:  cfg.NATS.ReconnectWait,
		ConnectionName: cfg.NATS.ConnectionName,
	}, adapter.NewNatsJetStream(), adapter.NewJSON())
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	defer publisher.Close()
	logger.InfoCtx(ctx, "Connected to NATS", zap.String("url", cfg.NATS.URL))

	// Build the ledger environment on top of the persistent store
	env := ledger.NewEnv(ledger.Options{
		Clock:     adapter.NewClock(),
		Persister: dataStore,
		Publisher: publisher,
	})
	entries, err := dataStore.LoadEntries(ctx)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to load ledger state", zap.Error(err))
	}
	env.Hydrate(entries)
	logger.InfoCtx(ctx, "Hydrated ledger state", zap.Int("entries", len(entries)))

	// Resolve the factory account and bootstrap it on first run
	owner := common.HexToAddress(cfg.Factory.OwnerAddress)
	factoryAddr := ledger.DeriveAddress(owner, crypto.Keccak256([]byte(factoryManifest)), factoryManifest)
	f := factory.At(factoryAddr)
	env.RegisterPaymentHandler(factoryAddr, f)

	if err := bootstrapFactory(ctx, env, f, owner, cfg.Factory.TemplatePath); err != nil {
		logger.FatalCtx(ctx, "Failed to bootstrap factory", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Factory ready",
		zap.String("address", factoryAddr.Hex()),
		zap.String("owner", owner.Hex()),
	)

	// Create server config
	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		Admin:        owner,
		JWTPublicKey: cfg.Auth.JWTPublicKey,
		APIKeys:      cfg.Auth.APIKeys,
	}

	// Create and start server
	srv := server.New(serverConfig, env, f)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	logger.InfoCtx(shutdownCtx, "Shutting down server...")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("API server stopped")
}

// bootstrapFactory initializes the factory account on a fresh ledger and
// installs the token template when one is configured
func bootstrapFactory(ctx context.Context, env *ledger.Env, f *factory.Factory, owner common.Address, templatePath string) error {
	initialized := false
	if err := env.View(ctx, func(tx *ledger.TxContext) error {
		initialized = f.IsInitialized(tx)
		return nil
	}); err != nil {
		return err
	}
	if initialized {
		return nil
	}

	var template []byte
	if templatePath != "" {
		code, err := os.ReadFile(templatePath) //nolint:gosec,G304
		if err != nil {
			return fmt.Errorf("failed to read token template: %w", err)
		}
		template = code
	}

	return env.Transact(ctx, []common.Address{owner}, func(tx *ledger.TxContext) error {
		if err := f.Bootstrap(tx, owner); err != nil {
			return err
		}
		if len(template) > 0 {
			return f.SetTemplate(tx, template)
		}
		logger.WarnCtx(ctx, "Token template not configured, creation payments will be rejected until one is installed")
		return nil
	})
}
