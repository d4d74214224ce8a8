// Package cli wires configuration, logging, storage and events together for
// the moneylog command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"moneylog/internal/amqp"
	"moneylog/internal/backend"
	"moneylog/internal/config"
	"moneylog/internal/log"
	"moneylog/internal/services"
	"moneylog/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error.
func LoadEnvFile(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// SetupLogger builds the process logger from configuration and installs it as
// the slog default. Logs go to w so command output on stdout stays clean.
func SetupLogger(cfg *config.Config, w io.Writer) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	lc.Component = log.ComponentCLI
	lc.Output = w

	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration from the environment and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App is an opened ledger together with the resources behind it.
type App struct {
	Config *config.Config
	Logger *log.Logger
	Ledger *services.LedgerService
	// Events is nil when AMQP is not configured or unreachable.
	Events *amqp.Client

	cleanup []func() error
}

// OpenApp opens storage, connects to the event bus when configured and loads
// the ledger. The returned App must be closed.
func OpenApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	app.cleanup = append(app.cleanup, result.Cleanup)

	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events",
				log.FieldError, err.Error())
		} else {
			app.Events = client
			publisher = client
			app.cleanup = append(app.cleanup, client.Close)
		}
	}

	ledger, err := services.Open(ctx, storage.NewStore(result.KV, logger), publisher, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Ledger = ledger
	return app, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanup = nil
	if len(errs) > 0 {
		return fmt.Errorf("close: %w", errors.Join(errs...))
	}
	return nil
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
