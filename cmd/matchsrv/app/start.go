// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/echoprint/matchsrv/internal"
	"github.com/echoprint/matchsrv/pkg/codestore"
	"github.com/echoprint/matchsrv/pkg/index"
	"github.com/echoprint/matchsrv/pkg/logging"
	"github.com/echoprint/matchsrv/pkg/matcher"
)

// SetupServer sets up the router, middleware, backend stores, and
// matcher engine, given koanf configuration.
func SetupServer(ctx context.Context, cfg *ServerConfig) (*Server, error) {
	var err error

	logger := slog.Default()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.SlogMiddleWare(logger))
	r.Use(middleware.Recoverer)
	r.Use(NewPrometheusMiddleware())
	r.Use(addVersionHeader)

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	if cfg.TimeoutS > 0 {
		r.Use(middleware.Timeout(time.Duration(cfg.TimeoutS) * time.Second))
	}

	r.Mount("/metrics", promhttp.Handler())

	var reqLimiter *IPRequestLimiter
	if cfg.MaxRequests > 0 {
		reqLimiter, err = NewIPRequestLimiter(cfg.MaxRequests, time.Duration(cfg.ReqLimitInt)*time.Second,
			time.Now(), cfg.WhiteListBlocks, cfg.ReqLimitLog)
		if err != nil {
			return nil, fmt.Errorf("newIPLimiter: %w", err)
		}
		r.Use(NewLimiterMiddleware("Matchsrv-Requests", reqLimiter))
	}

	idx := index.NewMemStore(cfg.IndexShards)
	codes := codestore.NewMemStore()
	engine := matcher.NewEngine(idx, codes)
	engine.Elbow = cfg.Elbow
	engine.Slop = cfg.Slop
	engine.QueryRows = cfg.IndexRows

	server := Server{
		Router:     r,
		Cfg:        cfg,
		Engine:     engine,
		Index:      idx,
		Codes:      codes,
		reqLimiter: reqLimiter,
	}

	if err := server.Routes(ctx); err != nil {
		return nil, fmt.Errorf("routes: %w", err)
	}

	logger.Info("matchsrv starting", "version", internal.GetVersion(), "port", cfg.Port,
		"elbow", cfg.Elbow, "slop", cfg.Slop, "indexShards", cfg.IndexShards)
	return &server, nil
}
