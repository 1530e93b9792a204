// Command httpx-server runs the request dispatcher on a TCP address.
//
//	HTTPX_TOKEN=s3cret httpx-server -addr localhost:8080
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dqx0.com/go/httpwire/httpx"
	"dqx0.com/go/httpwire/internal/obs"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "listen address")
	token := flag.String("token", os.Getenv("HTTPX_TOKEN"), "bearer token for protected targets (default $HTTPX_TOKEN)")
	prefix := flag.String("prefix", httpx.DefaultProtectedPrefix, "protected target prefix")
	idle := flag.Duration("idle", httpx.DefaultIdleTimeout, "idle read timeout")
	headTimeout := flag.Duration("header-timeout", 30*time.Second, "time allowed for the whole request head")
	maxBody := flag.Int64("max-body", httpx.DefaultMaxBodyBytes, "request body limit in bytes")
	level := flag.String("log-level", "info", "log level")
	dev := flag.Bool("dev", false, "human-readable logs")
	flag.Parse()

	log, err := obs.New(*level, *dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync()
	if *token == "" {
		log.Warn("no token configured; every protected request will be rejected", zap.String("prefix", *prefix))
	}

	tally := &obs.Tally{}
	d := httpx.NewDispatcher(*token)
	d.ProtectedPrefix = *prefix
	d.MaxBodyBytes = *maxBody
	d.Logger = log
	d.Meter = tally

	s := &httpx.Server{
		Addr:              *addr,
		Dispatcher:        d,
		IdleTimeout:       *idle,
		ReadHeaderTimeout: *headTimeout,
		Logger:            log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() { errc <- s.ListenAndServe() }()

	select {
	case err := <-errc:
		log.Fatal("server stopped", zap.Error(err))
	case <-ctx.Done():
	}
	log.Info("shutting down")
	if err := s.Close(); err != nil {
		log.Warn("close", zap.Error(err))
	}
	if err := <-errc; err != nil && !errors.Is(err, httpx.ErrServerClosed) {
		log.Warn("serve", zap.Error(err))
	}
	fields := []zap.Field{}
	for k, v := range tally.Snapshot() {
		fields = append(fields, zap.Float64(k, v))
	}
	log.Info("served", fields...)
}
