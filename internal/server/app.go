// Package server wires configuration, storage, services and transports into
// one process and runs it until a termination signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/investsync/internal/logging"
	"github.com/dmitrijs2005/investsync/internal/server/archive"
	"github.com/dmitrijs2005/investsync/internal/server/auth"
	"github.com/dmitrijs2005/investsync/internal/server/config"
	"github.com/dmitrijs2005/investsync/internal/server/httpapi"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/investsync/internal/server/services"
	"github.com/gin-gonic/gin"

	gs "github.com/dmitrijs2005/investsync/internal/server/grpc"
)

// openPostgres is a seam for tests.
var openPostgres = func(ctx context.Context, dsn string) (repomanager.RepositoryManager, error) {
	return repomanager.OpenPostgres(ctx, dsn)
}

type App struct {
	config *config.Config
	logger logging.Logger
	store  repomanager.RepositoryManager
	router http.Handler
}

// NewApp opens the configured store, applies migrations and builds the
// HTTP router. Logs go to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger := logging.New(c.Environment, w)

	store, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenIssuer(c.SecretKey, c.JWTAlgorithm, c.TokenValidityDuration)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	var archiver services.SnapshotArchiver
	if c.ArchiveEnabled() {
		archiver = archive.NewS3Archiver(c, logger)
	}

	investments := services.NewInvestmentService(store, logger)
	sites := services.NewSiteConfigService(store, logger)

	svc := httpapi.Services{
		Users:       services.NewUserService(store, auth.NewPasswordHasher(c.BcryptCost), tokens, logger),
		Identity:    services.NewIdentityResolver(store, tokens),
		Investments: investments,
		Sites:       sites,
		Preferences: services.NewPreferencesService(store),
		Sync:        services.NewSyncService(store, investments, sites, archiver, logger),
	}

	if c.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := httpapi.NewRouter(svc, httpapi.Options{
		Environment:        c.Environment,
		AllowedOrigins:     c.AllowedOrigins,
		RateLimitPerMinute: c.RateLimitPerMinute,
	}, logger)

	return &App{config: c, logger: logger, store: store, router: router}, nil
}

func openStore(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	if c.StorageType == config.StorageTypeMemory {
		return repomanager.NewMemoryRepositoryManager(), nil
	}

	store, err := openPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := store.RunMigrations(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return store, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.store)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.EndpointAddrHTTP)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a listener fails,
// then closes the store.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageType)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.EndpointAddrGRPC != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.logger.Info(ctx, "Closing store...")
	return app.store.Close()
}
