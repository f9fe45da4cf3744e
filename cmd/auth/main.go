package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "github.com/Yaroher2442/FORTIFIED/internal/auth/http"
	"github.com/Yaroher2442/FORTIFIED/internal/common/bootstrap"
	commonhttp "github.com/Yaroher2442/FORTIFIED/internal/common/http"
	srv "github.com/Yaroher2442/FORTIFIED/internal/common/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.NewAuthApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start auth service: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	log := app.Log

	go app.Pruner.Start(ctx, app.Config.CleanupInterval)

	rateLimiter := commonhttp.NewStrictRateLimiter()
	handler := authhttp.NewHandler(app.Service, authhttp.Config{
		RequestTimeout: app.Config.RequestTimeout,
		HealthChecks:   app.HealthChecks,
		RateLimiter:    rateLimiter,
	}, log)

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle("/metrics", promhttp.Handler())

	server := srv.New(srv.DefaultConfig(app.Config.HTTPPort), commonhttp.BuildBaseHandler(log, mux))

	hooks := []srv.ShutdownHook{
		func(ctx context.Context) error {
			log.Infof("auth service: stopping cleanup and rate limiters")
			cancel()
			rateLimiter.Stop()
			return nil
		},
	}

	if err := srv.Run(ctx, server, log, "auth", hooks...); err != nil {
		log.Errorf("auth service stopped with error: %v", err)
		app.Close()
		os.Exit(1)
	}
}
