// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/template"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tsepg/tsepg/internal"
	"github.com/tsepg/tsepg/pkg/epg"
	"github.com/tsepg/tsepg/pkg/epg/collect"
	"github.com/tsepg/tsepg/pkg/logging"
)

func mountLogRoutes(r chi.Router) {
	for _, route := range logging.LogRoutes {
		r.MethodFunc(route.Method, route.Path, route.Handler)
	}
}

// SetupServer sets up the router, middleware, Collection Coordinator,
// and background pass loop, given the loaded configuration. ctx
// governs the Coordinator's pass loop; cancel it to stop collection.
func SetupServer(ctx context.Context, cfg *ServerConfig) (*Server, error) {
	logger := slog.Default()

	channels, err := cfg.ResolveChannels()
	if err != nil {
		return nil, fmt.Errorf("resolve channels: %w", err)
	}
	if len(channels) == 0 {
		logger.Warn("starting with no configured channels; every pass will discover nothing")
	}

	for name, tmpl := range map[string]string{
		"scan_services": cfg.ScanServicesCmd,
		"collect_eits":  cfg.CollectEitsCmd,
	} {
		if _, err := template.New(name).Parse(tmpl); err != nil {
			return nil, fmt.Errorf("%w: %s command template: %v", collect.ErrFatalConfig, name, err)
		}
	}

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	idx, err := epg.LoadIndex(cfg.CacheDir)
	loadedCache := err == nil
	if err != nil {
		logger.Warn("no usable schedule cache, starting empty", "err", err)
		idx = epg.NewIndex()
	}

	server := &Server{
		Cfg:         cfg,
		passMetrics: newPassMetrics(),
		force:       make(chan struct{}, 1),
	}

	server.coordinator = collect.New(collect.Config{
		Channels:        channels,
		ScanServicesCmd: cfg.ScanServicesCmd,
		CollectEitsCmd:  cfg.CollectEitsCmd,
		CacheDir:        cfg.CacheDir,
		Tuner:           collect.NopTuner{},
		Helpers:         collect.ExecHelperRunner{},
		Publisher:       server,
		Logger:          logger,
		OnPass:          server.passMetrics.Observe,
	}, idx)

	// Publish the warm cache immediately so /api/snapshot has data
	// before the first pass completes, rather than 503ing until then.
	if loadedCache {
		if err := server.Publish(ctx, epg.Flatten(idx)); err != nil {
			logger.Warn("failed to publish warm cache snapshot", "err", err)
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.SlogMiddleWare(logger))
	r.Use(middleware.Recoverer)
	reqMetrics := newRequestMetrics()
	r.Use(reqMetrics.middleware)

	r.Get("/healthz", server.healthzHandlerFunc)
	r.Mount("/metrics", promhttp.Handler())
	r.Get("/api/snapshot", server.snapshotHandlerFunc)
	r.Post("/api/run", server.runHandlerFunc)
	mountLogRoutes(r)

	server.Router = r

	logger.Info("tsepgd starting", "version", internal.GetVersion(), "port", cfg.Port, "channels", len(channels))
	go server.coordinator.Run(ctx, server.force)

	return server, nil
}
