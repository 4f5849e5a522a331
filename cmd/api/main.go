package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/usersapi/internal/config"
	"github.com/geocoder89/usersapi/internal/domain/user"
	httpx "github.com/geocoder89/usersapi/internal/http"
	"github.com/geocoder89/usersapi/internal/observability"
	"github.com/geocoder89/usersapi/internal/repo"
	"github.com/geocoder89/usersapi/internal/users"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	shutdownTracer, err := observability.InitTracer(context.Background(), observability.TracerConfig{
		ServiceName: cfg.ServiceName,
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	prom := observability.NewProm()

	// a store that cannot be reached at startup is fatal; there is no retry loop
	openCtx, cancelOpen := config.WithTimeout(10 * time.Second)
	store, err := repo.Open(openCtx, cfg.StoreURI, prom, log)
	cancelOpen()

	if err != nil {
		log.Error("store connection failed", "err", err)
		os.Exit(1)
	}

	svc := users.NewService(store, user.NewValidator(), log)

	router := httpx.NewRouter(httpx.Deps{
		Log:   log,
		Users: svc,
		Ready: svc.Ping,
		Prom:  prom,
	}, cfg)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		log.Info("server starting", "addr", "http://127.0.0.1"+srv.Addr, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-stop:
		log.Info("server shutting down")
	case err := <-serverErr:
		log.Error("server failed", "err", err)
		exitCode = 1
	}

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := store.Close(ctx); err != nil {
			log.Error("store close failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
		exitCode = 1
	}

	os.Exit(exitCode)
}
