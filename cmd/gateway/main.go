// Command gateway boots the HTTP frontend, Storage actor, and Engine pool,
// the same top-level wiring shape the teacher's cmd binaries use.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/flow-heater/flow-heater/internal/config"
	"github.com/flow-heater/flow-heater/internal/engine"
	"github.com/flow-heater/flow-heater/internal/httpapi"
	"github.com/flow-heater/flow-heater/internal/logger"
	"github.com/flow-heater/flow-heater/internal/storage/actor"
	"github.com/flow-heater/flow-heater/internal/storage/postgres"
)

func main() {
	log := logger.NewDefault("gateway")

	cfg, err := config.Load()
	if err != nil {
		log.WithField("error", err).Fatal("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.WithField("error", err).Fatal("open database")
	}
	defer db.Close()

	store := actor.New(ctx, postgres.New(db))
	limits := engine.DispatchLimits{
		Timeout:      cfg.DispatchTimeout,
		MaxBodyBytes: cfg.DispatchMaxBodyBytes,
		Limiter:      rate.NewLimiter(rate.Limit(cfg.DispatchRateLimit), cfg.DispatchBurst),
	}
	eng := engine.New(ctx, store)

	router := httpapi.NewRouter(store, eng, log, limits)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithField("error", err).Error("metrics server exited")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", cfg.ListenAddr).Info("gateway listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithField("error", err).Fatal("gateway server exited")
	}
}
