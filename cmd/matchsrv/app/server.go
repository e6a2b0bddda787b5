// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/echoprint/matchsrv/pkg/codestore"
	"github.com/echoprint/matchsrv/pkg/index"
	"github.com/echoprint/matchsrv/pkg/matcher"
)

// Server wires the HTTP surface to a matcher.Engine and its backend stores.
type Server struct {
	Router     *chi.Mux
	Cfg        *ServerConfig
	Engine     *matcher.Engine
	Index      *index.MemStore
	Codes      *codestore.MemStore
	reqLimiter *IPRequestLimiter
}

func (s *Server) healthzHandlerFunc(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, map[string]bool{"ok": true}, http.StatusOK)
}

// jsonResponse marshals message and gives a response with code.
//
// Don't add any more content after this since Content-Length is set.
func (s *Server) jsonResponse(w http.ResponseWriter, message any, code int) {
	raw, err := json.Marshal(message)
	if err != nil {
		http.Error(w, fmt.Sprintf("{\"message\": %q}", err.Error()), http.StatusInternalServerError)
		slog.Error(err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
	w.WriteHeader(code)
	if _, err = w.Write(raw); err != nil {
		slog.Error("could not write HTTP response", "err", err)
	}
}
