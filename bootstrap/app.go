// Package bootstrap wires configuration, storage, and the API server into a
// runnable application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"shadowagent/api"
	"shadowagent/config"
	"shadowagent/storage"
)

// App represents the ShadowAgent application with all its components.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	SQLite          *storage.SQLite
	ThreatStorage   *storage.SQLiteThreatStorage
	UserStorage     *storage.SQLiteUserStorage
	IdentityStorage *storage.SQLiteIdentityStorage

	APIServer *api.API

	serviceWg *sync.WaitGroup
}

// NewApp creates a new application instance and initializes all components.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{
		serviceWg: &sync.WaitGroup{},
	}

	logger, sugar, err := InitLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger
	app.Sugar = sugar

	sugar.Info("ShadowAgent starting...")

	cfg, err := InitConfig(sugar)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	if err := EnsureDataDirectories(cfg, sugar); err != nil {
		return nil, err
	}

	sqlite, err := storage.NewSQLite(cfg.Storage.SQLitePath, sugar)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sqlite: %w", err)
	}
	app.SQLite = sqlite

	app.ThreatStorage = storage.NewSQLiteThreatStorage(sqlite, sugar)
	app.UserStorage = storage.NewSQLiteUserStorage(sqlite, sugar)
	app.IdentityStorage = storage.NewSQLiteIdentityStorage(sqlite, sugar)

	app.APIServer = api.NewAPI(
		app.ThreatStorage,
		app.UserStorage,
		app.IdentityStorage,
		cfg,
		sugar,
	)

	return app, nil
}

// Start starts the API server in a background goroutine.
func (a *App) Start(ctx context.Context) error {
	a.serviceWg.Add(1)
	go func() {
		defer a.serviceWg.Done()
		addr := fmt.Sprintf(":%d", a.Config.API.Port)
		a.Sugar.Infof("API server started on %s", addr)

		var err error
		if a.Config.API.TLS {
			err = a.APIServer.StartTLS(addr, a.Config.API.CertFile, a.Config.API.KeyFile)
		} else {
			err = a.APIServer.Start(addr)
		}

		if err != nil && err != http.ErrServerClosed {
			a.Sugar.Errorf("API server error: %v", err)
		}
	}()

	return nil
}

// WaitForShutdown blocks until a shutdown signal is received.
func (a *App) WaitForShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown() {
	a.Sugar.Info("Shutting down...")

	if a.APIServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.APIServer.Stop(ctx); err != nil {
			a.Sugar.Errorw("Failed to stop API server", "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		a.serviceWg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		a.Sugar.Warn("Service goroutine shutdown timed out")
	}

	if a.SQLite != nil {
		a.SQLite.Close()
	}

	a.Sugar.Info("Shutdown complete")
	_ = a.Logger.Sync()
}
