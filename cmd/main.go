package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"heating_bridge/internal/cloud"
	"heating_bridge/internal/config"
	"heating_bridge/internal/handlers"
	"heating_bridge/internal/logger"
	"heating_bridge/internal/repository"
	"heating_bridge/internal/repository/db"
	"heating_bridge/internal/sensor"
	"heating_bridge/internal/server"
	"heating_bridge/internal/service"
)

func main() {
	// load configs/config.yml + environment overrides
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger at the configured level
	log := logger.Get(cfg.LogLevel)

	// open DB
	conn, err := db.Init(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn)
	dialer := cloud.NewDialer(cfg.Cloud, cfg.Rooms, log)
	services := service.NewService(repos, service.Deps{
		Dialer: service.NewCloudDialer(dialer),
		Sensor: sensor.NewClient(cfg.Sensor),
		Log:    log,
		Cfg:    cfg,
	})
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start background telemetry recorder (via composed service)
	go services.Telemetry.Run(ctx, cfg.Telemetry.Interval)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
