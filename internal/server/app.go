// Package server wires the fitkeeper components together: configuration,
// the store backend, object storage, services and the HTTP API, and runs
// them until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/fitkeeper/internal/logging"
	"github.com/dmitrijs2005/fitkeeper/internal/server/config"
	"github.com/dmitrijs2005/fitkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/fitkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/fitkeeper/internal/server/objects"
	"github.com/dmitrijs2005/fitkeeper/internal/server/repositories"
	"github.com/dmitrijs2005/fitkeeper/internal/server/services"
)

// newObjectStore is a test seam for objects.NewS3Store.
var newObjectStore = func(ctx context.Context, c *config.Config) (services.ObjectStore, error) {
	return objects.NewS3Store(ctx, c)
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	manager *repositories.Manager
	server  *httpapi.Server
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	m, err := repositories.Open(c)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	obj, err := newObjectStore(context.Background(), c)
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	res := services.NewResources(m)
	us := services.NewUserService(m.Users, m.Memberships, res.Users, c)
	up := services.NewUploader(obj, c, logger.With("module", "uploader"))

	srv := httpapi.NewServer(c, logger, res, us, up, metrics.New())

	return &App{config: c, logger: logger, manager: m, server: srv}, nil
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	err := app.server.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
	return err
}

// Run serves until ctx is cancelled or a shutdown signal arrives, then
// closes the store connection.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "driver", app.config.StoreDriver)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	var runErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.manager.Close(); err != nil {
		app.logger.Error(ctx, "store close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	return runErr
}
