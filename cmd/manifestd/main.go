// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

// Command manifestd is the composition root for the manifest
// control-plane handler. It wires a RequestHandler against a concrete
// ModelStore/StatusReader/Notifier and blocks until an OS signal is
// received. The message-bus transport that feeds it requests is out of
// scope for this core and is not implemented here: manifestd starts the
// handler and its metrics endpoint only.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rinswind/wadm-manifest-handler/internal/config"
	"github.com/rinswind/wadm-manifest-handler/internal/manifest"
	"github.com/rinswind/wadm-manifest-handler/internal/manifest/memstore"
	"github.com/rinswind/wadm-manifest-handler/internal/manifest/redisstore"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "manifestd",
		Short: "manifest control-plane handler for the workload-orchestration lattice",
		RunE:  run,
	}
	root.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zapLog, err := newZapLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer zapLog.Sync() //nolint:errcheck
	log := zapr.NewLogger(zapLog)
	ctx := logr.NewContext(cmd.Context(), log)

	store, statusReader, notifier, err := buildBackend(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build store backend: %w", err)
	}

	reg := prometheus.NewRegistry()
	handler := manifest.NewRequestHandler(store, statusReader, notifier, reg)
	_ = handler // handler is driven by the (out-of-scope) bus transport

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			log.Info("metrics endpoint starting", "addr", cfg.Metrics.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error(err, "metrics endpoint failed")
			}
		}()
	}

	log.Info("manifestd started", "lattice_id", cfg.Lattice.LatticeID, "store_backend", cfg.Store.Backend)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error(err, "metrics endpoint shutdown failed")
		}
	}
	return nil
}

func newZapLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zcfg.Level = level
	return zcfg.Build()
}

func buildBackend(cfg *config.Config, log logr.Logger) (manifest.ModelStore, manifest.StatusReader, manifest.Notifier, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		log.Info("using redis store backend", "addr", cfg.Store.Redis.Addr)
		return redisstore.NewStore(rdb), redisstore.NewStatusReader(rdb), noopNotifier{}, nil
	default:
		log.Info("using in-memory store backend")
		return memstore.NewStore(), memstore.NewStatusLog(), &memstore.Notifier{}, nil
	}
}

// noopNotifier is used with the Redis backend until a concrete
// reconciler-notification transport is wired in; publishing is out of
// scope for this core beyond the Notifier contract it calls through.
type noopNotifier struct{}

func (noopNotifier) Deployed(context.Context, string, manifest.Manifest) error { return nil }
func (noopNotifier) Undeployed(context.Context, string, string) error          { return nil }
