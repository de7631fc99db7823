// cmd/kiosk/app.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"kiosk-client/docs"
	"kiosk-client/internal/auth"
	"kiosk-client/internal/config"
	"kiosk-client/internal/gateway"
	"kiosk-client/internal/handler"
	"kiosk-client/internal/printer"
	"kiosk-client/internal/push"
	"kiosk-client/internal/routes"
	"kiosk-client/internal/status"
	"kiosk-client/internal/utils"
)

// Application represents the running kiosk client
type Application struct {
	config *config.Config
	logger *zap.Logger
	server *http.Server

	reporter     *status.Reporter
	device       *printer.Device
	gateway      *gateway.Gateway
	statusStream *handler.StatusStreamHandler
	pushListener *push.Listener
}

func runKiosk(c *cli.Context) error {
	cfg, logger, err := loadRuntime(c)
	if err != nil {
		return err
	}
	defer utils.CloseLogger(logger)

	serviceLogger := utils.NewServiceLogger(logger, "kiosk-client")
	serviceLogger.LogServiceStart(cfg.App.Version, redacted(cfg))

	// Startup (token retries, printer open) can be interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	app, err := NewApplication(ctx, cfg, logger)
	interrupted := ctx.Err() != nil
	stop()
	if err != nil {
		return err
	}
	if interrupted {
		app.abandonStartup()
		return nil
	}

	return app.Start()
}

// NewApplication obtains the app token and wires the printer, status
// reporting and the bridge server
func NewApplication(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Application, error) {
	app := &Application{
		config: cfg,
		logger: logger,
	}

	token, err := auth.NewTokenClient(cfg.GetTokenURL(), &cfg.Remote, logger).Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain app token: %w", err)
	}

	app.initializeReporter(token)

	if err := app.initializeDevice(ctx); err != nil {
		app.reporter.Stop()
		return nil, fmt.Errorf("failed to initialize printer: %w", err)
	}

	app.gateway = gateway.New(app.device, logger)
	app.statusStream = handler.NewStatusStreamHandler(app.device, &cfg.Security, logger)
	app.reporter.AddListener(app.statusStream)

	if cfg.Push.Enabled {
		app.pushListener = push.NewListener(cfg.GetPushURL(), token, &cfg.Push, app.gateway, logger)
	}

	app.initializeServer()
	return app, nil
}

// initializeReporter starts the background status reporter
func (app *Application) initializeReporter(token string) {
	client := status.NewClient(app.config.GetStatusURL(), token, app.config.Remote.RequestTimeout, app.logger)
	app.reporter = status.NewReporter(client, &app.config.Status, app.logger)
	app.reporter.Start()
}

// initializeDevice creates the printer device and opens it. A missing or
// failing printer is reported through the status channel and does not stop
// the client.
func (app *Application) initializeDevice(ctx context.Context) error {
	device, err := newDevice(app.config, app.reporter, app.logger)
	if err != nil {
		return err
	}
	app.device = device

	if err := device.Initialize(ctx); err != nil {
		var permErr *printer.PermissionError
		if errors.As(err, &permErr) {
			fmt.Fprintf(os.Stderr, "USB permission error for printer %s\n\n%s\n", permErr.Identity, permErr.Remediation)
		}
		app.logger.Error("Printer initialization failed", zap.Error(err))
	}
	return nil
}

// initializeServer sets up the bridge HTTP server and routes
func (app *Application) initializeServer() {
	docs.SwaggerInfo.Host = app.config.GetServerAddr()

	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		app.gateway,
		app.device,
		app.statusStream,
	)

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      routerManager.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("Bridge server initialized", zap.String("address", app.server.Addr))
}

// Start serves the bridge and the push channel until a shutdown signal or a
// server failure
func (app *Application) Start() error {
	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("Starting bridge server", zap.String("address", app.server.Addr))
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if app.pushListener != nil {
		app.pushListener.Start(context.Background())
	}

	err := app.waitForShutdown(serverErr)
	app.shutdown()
	return err
}

// waitForShutdown blocks until SIGINT, SIGTERM or a server failure
func (app *Application) waitForShutdown(serverErr <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		return nil
	case err := <-serverErr:
		app.logger.Error("Bridge server failed", zap.Error(err))
		return fmt.Errorf("bridge server failed: %w", err)
	}
}

// shutdown stops the bridge, the push channel and releases the printer
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "kiosk-client")
	serviceLogger.LogServiceStop("shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("Bridge server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("Bridge server stopped")
	}

	if app.pushListener != nil {
		app.pushListener.Stop()
	}
	app.statusStream.Close()

	// Stops the reporter, then closes the printer handle
	app.device.Cleanup()

	app.logger.Info("Application shutdown completed")
}

// abandonStartup releases what NewApplication acquired when a shutdown
// signal arrived before the server started
func (app *Application) abandonStartup() {
	app.logger.Info("Shutdown requested during startup")

	app.statusStream.Close()
	app.device.Cleanup()

	app.logger.Info("Application shutdown completed")
}

// redacted returns a copy of the configuration that is safe to log
func redacted(cfg *config.Config) config.Config {
	safe := *cfg
	if safe.Remote.AppSecret != "" {
		safe.Remote.AppSecret = "***"
	}
	return safe
}
