// Package app wires the index data service together and owns its lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/index-back/internal/api"
	"github.com/index-back/internal/cache"
	"github.com/index-back/internal/catalog"
	"github.com/index-back/internal/database"
	"github.com/index-back/internal/indices"
	"github.com/index-back/internal/messaging"
	"github.com/index-back/internal/upstream"
	"github.com/index-back/pkg/config"
	"github.com/index-back/pkg/models"
)

// App represents the main application
type App struct {
	cfg    *config.Config
	logger *logrus.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Core components
	store      cache.Store
	client     *upstream.Client
	service    *indices.Service
	apiServer  *api.Server
	redisStore *cache.RedisStore
	publisher  *messaging.Publisher
	influxDB   *database.InfluxClient
	mysqlDB    *database.MySQLClient
}

// New creates a new application instance
func New(cfg *config.Config, logger *logrus.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Initialize initializes all application components
func (a *App) Initialize() error {
	if err := a.initializeCache(); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	if err := a.initializeCollaborators(); err != nil {
		return fmt.Errorf("failed to initialize collaborators: %w", err)
	}

	catalogue, err := a.loadCatalogue()
	if err != nil {
		return fmt.Errorf("failed to load instrument catalogue: %w", err)
	}

	a.client = upstream.NewClient(&a.cfg.Upstream, a.logger)

	opts := []indices.Option{}
	if a.publisher != nil {
		opts = append(opts, indices.WithPublisher(a.publisher))
	}
	if a.influxDB != nil {
		opts = append(opts, indices.WithRecorder(a.influxDB))
	}
	a.service = indices.NewService(catalogue, a.client, a.store, a.logger, opts...)

	a.apiServer = api.NewServer(a.cfg, a.logger, a.service)

	return nil
}

// initializeCache picks the configured cache backend.
func (a *App) initializeCache() error {
	switch a.cfg.Cache.Backend {
	case "redis":
		store, err := cache.NewRedisStore(&a.cfg.Redis, a.logger)
		if err != nil {
			return err
		}
		a.redisStore = store
		a.store = store
	default:
		a.store = cache.NewMemoryStore(a.logger)
	}
	return nil
}

// initializeCollaborators connects the optional messaging and storage
// collaborators. None of them is required for aggregation.
func (a *App) initializeCollaborators() error {
	if a.cfg.NATS.Enabled {
		publisher, err := messaging.NewPublisher(&a.cfg.NATS, a.logger)
		if err != nil {
			return err
		}
		a.publisher = publisher
	}

	if a.cfg.InfluxDB.Enabled {
		influxDB, err := database.NewInfluxClient(&a.cfg.InfluxDB, a.logger)
		if err != nil {
			return err
		}
		a.influxDB = influxDB
	}

	if a.cfg.MySQL.Enabled {
		mysqlDB, err := database.NewMySQLClient(&a.cfg.MySQL, a.cfg.GetMySQLDSN(), a.logger)
		if err != nil {
			return err
		}
		a.mysqlDB = mysqlDB
	}

	return nil
}

// loadCatalogue prefers the MySQL catalogue when configured, falling back to
// the built-in one.
func (a *App) loadCatalogue() ([]models.InstrumentConfig, error) {
	if a.mysqlDB == nil {
		return catalog.Default(), nil
	}

	ctx, cancel := context.WithTimeout(a.ctx, 10*time.Second)
	defer cancel()

	catalogue, err := a.mysqlDB.Instruments(ctx)
	if err != nil {
		return nil, err
	}
	if len(catalogue) == 0 {
		a.logger.Warn("MySQL catalogue is empty, using built-in instruments")
		return catalog.Default(), nil
	}
	return catalogue, nil
}

// Start starts the application
func (a *App) Start() error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.apiServer.Start(); err != nil {
			if err != http.ErrServerClosed {
				a.logger.WithError(err).Error("API server error")
			}
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.runCacheCleanup()
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.runRefreshLoop()
	}()

	return nil
}

// runCacheCleanup periodically sweeps stale cache entries.
func (a *App) runCacheCleanup() {
	ticker := time.NewTicker(a.cfg.Cache.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.store.CleanupOldEntries(a.ctx)
		}
	}
}

// runRefreshLoop periodically re-aggregates so cached answers stay warm and
// subscribers keep receiving updates.
func (a *App) runRefreshLoop() {
	ticker := time.NewTicker(a.cfg.Cache.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.service.GetAllIndices(a.ctx)
		}
	}
}

// Stop gracefully stops the application
func (a *App) Stop() error {
	a.logger.Info("Stopping application...")

	a.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.apiServer != nil {
		if err := a.apiServer.Stop(shutdownCtx); err != nil {
			a.logger.WithError(err).Error("Error stopping HTTP server")
		}
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("All goroutines stopped")
	case <-time.After(3 * time.Second):
		a.logger.Warn("Timeout waiting for goroutines to finish")
	}

	a.closeConnections()

	a.logger.Info("Application stopped successfully")
	return nil
}

// closeConnections closes the optional collaborators.
func (a *App) closeConnections() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.influxDB != nil {
		a.influxDB.Close()
	}
	if a.mysqlDB != nil {
		a.mysqlDB.Close()
	}
	if a.redisStore != nil {
		a.redisStore.Close()
	}
}
