// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"context"

	"github.com/echoprint/matchsrv/pkg/logging"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes defines dispatches for all routes.
func (s *Server) Routes(_ context.Context) error {
	for _, route := range logging.LogRoutes {
		s.Router.MethodFunc(route.Method, route.Path, route.Handler)
	}
	s.Router.Mount("/debug", middleware.Profiler())
	s.Router.MethodFunc("GET", "/healthz", s.healthzHandlerFunc)
	s.Router.MethodFunc("POST", "/ingest", s.ingestHandlerFunc)
	s.Router.MethodFunc("GET", "/query", s.queryHandlerFunc)
	s.Router.MethodFunc("POST", "/query", s.queryHandlerFunc)
	s.Router.MethodFunc("POST", "/delete", s.deleteHandlerFunc)
	s.Router.Route("/api", createRouteAPI(s))
	return nil
}
