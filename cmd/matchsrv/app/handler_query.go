// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"net/http"
	"time"

	"github.com/echoprint/matchsrv/pkg/matcher"
)

// queryResponse is the JSON shape returned by GET|POST /query.
type queryResponse struct {
	OK        bool   `json:"ok"`
	Query     string `json:"query"`
	Message   string `json:"message"`
	Match     bool   `json:"match"`
	Score     int    `json:"score,omitempty"`
	QTime     int    `json:"qtime,omitempty"`
	TrackID   string `json:"track_id,omitempty"`
	TotalTime int64  `json:"total_time"`
}

// queryHandlerFunc handles GET and POST /query: it runs fp_code through
// the matcher and reports the classification as JSON.
func (s *Server) queryHandlerFunc(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := r.ParseForm(); err != nil {
		s.jsonResponse(w, map[string]string{"error": err.Error()}, http.StatusBadRequest)
		return
	}

	fpCode := r.FormValue("fp_code")
	if fpCode == "" {
		s.jsonResponse(w, map[string]string{"error": errEmptyQuery.Error()}, http.StatusBadRequest)
		return
	}

	engine := *s.Engine
	if elbow := r.FormValue("elbow"); elbow != "" {
		f := newFormAccErr()
		engine.Elbow = f.Atoi("elbow", elbow)
		if f.err != nil {
			s.jsonResponse(w, map[string]string{"error": f.err.Error()}, http.StatusBadRequest)
			return
		}
	}

	resp := engine.BestMatch(r.Context(), fpCode)

	out := queryResponse{
		OK:        true,
		Query:     fpCode,
		Message:   resp.Code.Message(),
		Match:     resp.Code.Match(),
		Score:     resp.Score,
		QTime:     resp.QTime,
		TrackID:   resp.TrackID,
		TotalTime: time.Since(start).Milliseconds(),
	}
	status := http.StatusOK
	if resp.Code == matcher.CannotDecode {
		status = http.StatusBadRequest
	}
	s.jsonResponse(w, out, status)
}
