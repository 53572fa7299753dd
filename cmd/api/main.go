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

	"battery-sizing/internal/api"
	"battery-sizing/internal/api/cache"
	"battery-sizing/internal/api/handlers"
	"battery-sizing/internal/config"
	"battery-sizing/internal/data"
	"battery-sizing/internal/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	settings, err := config.LoadSettings(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "settings: %v\n", err)
		os.Exit(1)
	}
	log := logging.Must(settings.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := run(settings, log); err != nil {
		log.Fatal("api server stopped", zap.Error(err))
	}
}

func run(settings config.Settings, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if settings.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if info, err := os.Stat(settings.BatteryDir); err != nil || !info.IsDir() {
		log.Warn("battery directory not found", zap.String("dir", settings.BatteryDir), zap.Error(err))
	}

	deps := handlers.Deps{
		BatteryDir:  settings.BatteryDir,
		CatalogFile: settings.CatalogFile,
		Timeout:     settings.SolveTimeout,
		Workers:     settings.Workers,
		Logger:      log,
	}
	if settings.ResultCacheEnabled() {
		deps.Cache = cache.New(settings.CacheTTL)
		go deps.Cache.Run(ctx, 5*time.Minute)
		log.Info("result cache enabled", zap.Duration("ttl", settings.CacheTTL))
	}

	if settings.CatalogSchedule != "" {
		refresher := data.CatalogRefresher{
			Dir:         settings.DataDir,
			CatalogFile: settings.CatalogFile,
			Columns:     data.DefaultColumns,
			Log:         log.Named("catalog"),
		}
		go func() {
			if err := refresher.Run(ctx, settings.CatalogSchedule); err != nil {
				log.Error("catalog refresher stopped", zap.Error(err))
			}
		}()
	}

	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = "./web/dist"
	}
	router := api.NewRouter(deps, api.RouterOptions{
		CORSOrigins: settings.CORSOrigins,
		StaticDir:   staticDir,
	})

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("starting API server", zap.String("addr", srv.Addr), zap.String("env", settings.Env))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
